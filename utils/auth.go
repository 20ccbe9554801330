package utils

import "slices"

// Permission levels
const (
	DeveloperPermission = "developer"
	OwnerPermission     = "owner"
	AdminPermission     = "admin"
	GuestPermission     = "guest"
)

// CheckPermission returns the highest permission level of a member.
// Developers are configured by user ID, admins by role ID; the guild owner always ranks
// above admins.
func CheckPermission(userID, ownerID string, memberRoleIDs, adminRoleIDs, developerUserIDs []string) string {
	if slices.Contains(developerUserIDs, userID) {
		return DeveloperPermission
	}

	if ownerID != "" && userID == ownerID {
		return OwnerPermission
	}

	for _, roleID := range memberRoleIDs {
		if slices.Contains(adminRoleIDs, roleID) {
			return AdminPermission
		}
	}

	return GuestPermission
}
