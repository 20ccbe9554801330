package demotion

import (
	"errors"
	"fmt"
	"time"

	"demote-bot/model"
)

var (
	ErrNotAuthorized   = errors.New("actor is not allowed to manage demotions")
	ErrSelfTarget      = errors.New("actor cannot demote themselves")
	ErrInvalidDuration = errors.New("demotion duration must be between 1 minute and 720 hours 59 minutes")
	ErrAlreadyDemoted  = errors.New("user is already demoted from this role")
	ErrRoleNotHeld     = errors.New("user does not hold the role")
	ErrRoleHierarchy   = errors.New("role is at or above the bot's highest role")
	ErrTargetNotFound  = errors.New("target not found")
	ErrPlatform        = errors.New("platform operation failed")
	ErrNotDemoted      = errors.New("no active demotion found")
)

// ConflictError is returned when an active demotion already exists for the triple.
// It matches ErrAlreadyDemoted with errors.Is.
type ConflictError struct {
	Existing *model.DemotionRecord
}

func (e *ConflictError) Error() string {
	if e.Existing == nil {
		return ErrAlreadyDemoted.Error()
	}
	return fmt.Sprintf("%s (restores at %s)", ErrAlreadyDemoted, e.Existing.RestoreTime().Format(time.RFC3339))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyDemoted
}

func platformError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPlatform, op, err)
}

// ValidateRecord rejects records that break the store invariants before they are written.
func ValidateRecord(record *model.DemotionRecord) error {
	if record.UserID == "" || record.GuildID == "" || record.RoleID == "" {
		return fmt.Errorf("demotion record is missing user, guild or role id")
	}
	if record.RestoreAt <= record.DemotedAt {
		return fmt.Errorf("%w: restore_at %d is not after demoted_at %d", ErrInvalidDuration, record.RestoreAt, record.DemotedAt)
	}
	if record.Restored {
		return fmt.Errorf("cannot insert an already restored demotion")
	}
	return nil
}
