package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// IdentityStore maps a browser profile to a stable user id.
type IdentityStore interface {
	ResolveUserID(ctx context.Context, profileID string) (string, error)
}

// UserIdentity decides which user id a new session belongs to.
type UserIdentity struct {
	store     IdentityStore
	defaultID string
	logger    *zap.Logger
}

func NewUserIdentity(store IdentityStore, defaultID string, logger *zap.Logger) *UserIdentity {
	return &UserIdentity{store: store, defaultID: defaultID, logger: logger}
}

// Resolve prefers an explicit user id, then the id stored for the profile,
// then the default. A store failure falls back to the default.
func (u *UserIdentity) Resolve(ctx context.Context, userID, profileID string) string {
	if userID = strings.TrimSpace(userID); userID != "" {
		return userID
	}
	profileID = strings.TrimSpace(profileID)
	if profileID == "" || u.store == nil {
		return u.defaultID
	}

	id, err := u.store.ResolveUserID(ctx, profileID)
	if err != nil || id == "" {
		u.logger.Warn("Identity lookup failed, using default user", zap.String("profile_id", profileID), zap.Error(err))
		return u.defaultID
	}
	return id
}
