package services

import (
	"context"
	"log"
	"sync"

	"github.com/infofoot/nexo-backend/internal/repository"
)

var (
	adminUsers repository.UserRepository
	adminOnce  sync.Once
	adminIDs   map[string]struct{}
)

// InitAdmin wires the repository the lazy admin lookup reads from.
func InitAdmin(users repository.UserRepository) {
	adminUsers = users
}

// IsAdmin reports whether the user id belongs to an admin account. The
// admin set is loaded from Postgres on first use and memoized for the
// process lifetime; promoting an admin requires a restart.
func IsAdmin(ctx context.Context, userID string) bool {
	adminOnce.Do(func() {
		adminIDs = make(map[string]struct{})
		if adminUsers == nil {
			return
		}
		ids, err := adminUsers.AdminIDs(ctx)
		if err != nil {
			log.Printf("failed to load admin ids: %v", err)
			return
		}
		for _, id := range ids {
			adminIDs[id] = struct{}{}
		}
	})

	_, ok := adminIDs[userID]
	return ok
}
