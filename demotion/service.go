package demotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"demote-bot/model"
	"demote-bot/utils"

	"go.uber.org/zap"
)

const (
	MaxHours   = 720
	MaxMinutes = 59

	// DefaultReservationGrace is how long a restore marker outlives the restore call,
	// covering the platform's delayed role update event.
	DefaultReservationGrace = 5 * time.Second

	// reservationHold bounds a marker while its restore is still running.
	reservationHold = 2 * time.Minute
)

var errRestoreInFlight = errors.New("restore already in progress")

// ReservationKey is the marker key shared by the restore paths and the guard.
func ReservationKey(userID, roleID string) string {
	return userID + "-" + roleID
}

// CreateRequest describes a demotion as issued by a moderator.
type CreateRequest struct {
	GuildID  string
	UserID   string
	RoleID   string
	ActorID  string
	ActorTag string
	Reason   string
	Hours    int
	Minutes  int
}

// Duration validates the requested length and returns it.
func (r CreateRequest) Duration() (time.Duration, error) {
	if r.Hours < 0 || r.Hours > MaxHours || r.Minutes < 0 || r.Minutes > MaxMinutes {
		return 0, ErrInvalidDuration
	}
	if r.Hours == 0 && r.Minutes == 0 {
		return 0, ErrInvalidDuration
	}
	return time.Duration(r.Hours)*time.Hour + time.Duration(r.Minutes)*time.Minute, nil
}

// RestoreRequest lifts a user's demotions early. An empty RoleID restores every active role.
type RestoreRequest struct {
	GuildID  string
	UserID   string
	RoleID   string
	ActorID  string
	ActorTag string
}

// Service owns the demotion lifecycle: create, automatic restore and manual restore.
type Service struct {
	store        Store
	gw           Gateway
	auth         Authorizer
	reservations *utils.ExpiryCache
	logger       *zap.Logger
	now          func() time.Time
	grace        time.Duration
}

type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReservationGrace sets how long restore markers linger after a restore completes.
func WithReservationGrace(d time.Duration) Option {
	return func(s *Service) { s.grace = d }
}

func NewService(store Store, gw Gateway, auth Authorizer, reservations *utils.ExpiryCache, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		gw:           gw,
		auth:         auth,
		reservations: reservations,
		logger:       logger.Named("demotion"),
		now:          time.Now,
		grace:        DefaultReservationGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Authorize checks whether actorID may manage demotions in the guild.
func (s *Service) Authorize(ctx context.Context, guildID, actorID string) error {
	return s.auth.Authorize(ctx, guildID, actorID)
}

// Create validates the request, removes the role on the platform and then persists the
// record. A failed removal leaves nothing behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.DemotionRecord, error) {
	if err := s.auth.Authorize(ctx, req.GuildID, req.ActorID); err != nil {
		return nil, err
	}
	if req.UserID == req.ActorID {
		return nil, ErrSelfTarget
	}
	duration, err := req.Duration()
	if err != nil {
		return nil, err
	}

	member, err := s.gw.FetchMember(ctx, req.GuildID, req.UserID)
	if err != nil {
		return nil, platformError("fetch member", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: member %s", ErrTargetNotFound, req.UserID)
	}

	role, err := s.gw.FetchRole(ctx, req.GuildID, req.RoleID)
	if err != nil {
		return nil, platformError("fetch role", err)
	}
	if role == nil {
		return nil, fmt.Errorf("%w: role %s", ErrTargetNotFound, req.RoleID)
	}

	existing, err := s.store.FindActive(ctx, req.UserID, req.GuildID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for an active demotion: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{Existing: existing}
	}

	if !member.HasRole(role.ID) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotHeld, role.Name)
	}

	top, err := s.gw.BotTopRolePosition(ctx, req.GuildID)
	if err != nil {
		return nil, platformError("fetch bot roles", err)
	}
	if role.Position >= top {
		return nil, fmt.Errorf("%w: %s", ErrRoleHierarchy, role.Name)
	}

	now := s.now()
	record := &model.DemotionRecord{
		UserID:    req.UserID,
		GuildID:   req.GuildID,
		RoleID:    role.ID,
		RoleName:  role.Name,
		DemotedBy: req.ActorID,
		Reason:    strings.TrimSpace(req.Reason),
		DemotedAt: now.UnixMilli(),
	}
	record.RestoreAt = record.DemotedAt + duration.Milliseconds()

	auditReason := fmt.Sprintf("Timed demotion by %s: %s", actorLabel(req.ActorTag, req.ActorID), ReasonOrDefault(record.Reason))
	if err := s.gw.RemoveRole(ctx, req.GuildID, req.UserID, role.ID, auditReason); err != nil {
		return nil, platformError("remove role", err)
	}

	id, err := s.store.Insert(ctx, record)
	if err != nil {
		s.logger.Error("Role removed but demotion was not persisted",
			zap.String("guild_id", req.GuildID),
			zap.String("user_id", req.UserID),
			zap.String("role_id", role.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to persist demotion: %w", err)
	}
	record.ID = id

	s.logger.Info("User demoted",
		zap.Int64("demotion_id", id),
		zap.String("guild_id", req.GuildID),
		zap.String("user_id", req.UserID),
		zap.String("role", role.Name),
		zap.Duration("duration", duration),
		zap.String("actor_id", req.ActorID))

	return record, nil
}

// RestoreResult reports what a manual restore did to each matched record, by role name.
type RestoreResult struct {
	// Restored roles were given back.
	Restored []string
	// Closed records had nothing to give back: the member left or the role was deleted.
	Closed []string
	// InFlight records were already being restored by another caller.
	InFlight []string
	// Failed records were closed but the platform rejected the grant.
	Failed []string
}

// Restore ends a user's demotions early. Records are closed even when the member left the
// guild or the role was deleted. When any grant fails the result is still returned, along
// with an error matching ErrPlatform.
func (s *Service) Restore(ctx context.Context, req RestoreRequest) (*RestoreResult, error) {
	if err := s.auth.Authorize(ctx, req.GuildID, req.ActorID); err != nil {
		return nil, err
	}

	var records []model.DemotionRecord
	if req.RoleID != "" {
		record, err := s.store.FindActive(ctx, req.UserID, req.GuildID, req.RoleID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up demotion: %w", err)
		}
		if record != nil {
			records = append(records, *record)
		}
	} else {
		var err error
		records, err = s.store.ListActiveForUser(ctx, req.UserID, req.GuildID)
		if err != nil {
			return nil, fmt.Errorf("failed to list demotions: %w", err)
		}
	}
	if len(records) == 0 {
		return nil, ErrNotDemoted
	}

	auditReason := "Early restoration by " + actorLabel(req.ActorTag, req.ActorID)
	result := &RestoreResult{}
	var errs []error
	for _, record := range records {
		outcome, err := s.restoreRecord(ctx, record, auditReason)
		switch {
		case errors.Is(err, errRestoreInFlight):
			result.InFlight = append(result.InFlight, record.RoleName)
		case err != nil:
			s.logger.Error("Failed to restore role early",
				zap.Int64("demotion_id", record.ID),
				zap.String("role", record.RoleName),
				zap.Error(err))
			result.Failed = append(result.Failed, record.RoleName)
			errs = append(errs, fmt.Errorf("%s: %w", record.RoleName, err))
		case outcome == restoreGranted:
			result.Restored = append(result.Restored, record.RoleName)
		case outcome == restoreClosed:
			result.Closed = append(result.Closed, record.RoleName)
		default:
			result.InFlight = append(result.InFlight, record.RoleName)
		}
	}

	if len(result.Restored) > 0 {
		guildName := s.guildName(ctx, req.GuildID)
		s.notify(ctx, req.UserID, fmt.Sprintf("✅ Your demotion has been lifted early! Your role(s) **%s** in **%s** have been restored by %s.",
			strings.Join(result.Restored, ", "), guildName, actorLabel(req.ActorTag, req.ActorID)))
	}

	return result, errors.Join(errs...)
}

// AutoRestore gives back the role of an expired record. It is driven by the restorer.
func (s *Service) AutoRestore(ctx context.Context, record model.DemotionRecord) error {
	outcome, err := s.restoreRecord(ctx, record, "Timed demotion expired - role restored automatically")
	if errors.Is(err, errRestoreInFlight) {
		s.logger.Debug("Restore already in progress, skipping", zap.Int64("demotion_id", record.ID))
		return nil
	}
	if err != nil {
		return err
	}
	if outcome != restoreGranted {
		return nil
	}

	guildName := s.guildName(ctx, record.GuildID)
	s.logger.Info("Demotion expired, role restored",
		zap.Int64("demotion_id", record.ID),
		zap.String("guild_id", record.GuildID),
		zap.String("user_id", record.UserID),
		zap.String("role", record.RoleName))
	s.notify(ctx, record.UserID, fmt.Sprintf("✅ Your temporary demotion has ended! Your **%s** role in **%s** has been restored.",
		record.RoleName, guildName))
	return nil
}

type restoreOutcome int

const (
	// restoreSkipped means another caller closed the record first.
	restoreSkipped restoreOutcome = iota
	restoreGranted
	// restoreClosed means the record was closed with nothing to grant.
	restoreClosed
)

// restoreRecord reserves the marker, closes the record and then grants the role.
// Only the caller that closes the record grants, so a record is granted at most once.
func (s *Service) restoreRecord(ctx context.Context, record model.DemotionRecord, auditReason string) (restoreOutcome, error) {
	key := ReservationKey(record.UserID, record.RoleID)
	if !s.reservations.Reserve(key, reservationHold) {
		return restoreSkipped, errRestoreInFlight
	}

	changed, err := s.store.MarkRestored(ctx, record.ID)
	if err != nil {
		s.reservations.Release(key)
		return restoreSkipped, fmt.Errorf("failed to mark demotion %d restored: %w", record.ID, err)
	}
	if !changed {
		s.reservations.Release(key)
		return restoreSkipped, nil
	}
	defer s.reservations.Extend(key, s.grace)

	member, err := s.gw.FetchMember(ctx, record.GuildID, record.UserID)
	if err != nil {
		return restoreClosed, platformError("fetch member", err)
	}
	if member == nil {
		s.logger.Info("Demoted user is no longer in the guild",
			zap.Int64("demotion_id", record.ID),
			zap.String("guild_id", record.GuildID),
			zap.String("user_id", record.UserID))
		return restoreClosed, nil
	}

	role, err := s.gw.FetchRole(ctx, record.GuildID, record.RoleID)
	if err != nil {
		return restoreClosed, platformError("fetch role", err)
	}
	if role == nil {
		s.logger.Info("Demoted role no longer exists",
			zap.Int64("demotion_id", record.ID),
			zap.String("guild_id", record.GuildID),
			zap.String("role_id", record.RoleID))
		return restoreClosed, nil
	}

	if err := s.gw.AddRole(ctx, record.GuildID, record.UserID, record.RoleID, auditReason); err != nil {
		return restoreClosed, platformError("add role", err)
	}
	return restoreGranted, nil
}

// ListActive returns the guild's active demotions, soonest restore first.
func (s *Service) ListActive(ctx context.Context, guildID string) ([]model.DemotionRecord, error) {
	return s.store.ListActive(ctx, guildID)
}

// History returns up to limit demotions of a user, newest first.
func (s *Service) History(ctx context.Context, userID, guildID string, limit int) ([]model.DemotionRecord, error) {
	return s.store.History(ctx, userID, guildID, limit)
}

// Expired returns every active demotion whose restore time has passed.
func (s *Service) Expired(ctx context.Context) ([]model.DemotionRecord, error) {
	return s.store.ListExpired(ctx, s.now())
}

func (s *Service) guildName(ctx context.Context, guildID string) string {
	guild, err := s.gw.FetchGuild(ctx, guildID)
	if err != nil || guild == nil {
		return "the server"
	}
	return guild.Name
}

// notify sends a best-effort DM.
func (s *Service) notify(ctx context.Context, userID, text string) {
	if err := s.gw.SendDirectMessage(ctx, userID, text); err != nil {
		s.logger.Debug("Could not DM user", zap.String("user_id", userID), zap.Error(err))
	}
}

func actorLabel(tag, id string) string {
	if tag != "" {
		return tag
	}
	return id
}
