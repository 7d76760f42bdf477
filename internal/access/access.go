// Package access provides the deployment-level capability
// implementations the engine consumes: who may administer the pool and
// whether the pool is paused.
package access

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// AdminSet is a fixed administrator allowlist, loaded at startup.
type AdminSet struct {
	admins map[uuid.UUID]bool
}

// ParseAdminSet builds an AdminSet from a comma-separated list of
// account UUIDs.
func ParseAdminSet(list string) (*AdminSet, error) {
	set := make(map[uuid.UUID]bool)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("parse admin %q: %w", part, err)
		}
		set[id] = true
	}
	return &AdminSet{admins: set}, nil
}

func (a *AdminSet) IsAdministrator(account uuid.UUID) bool {
	return a.admins[account]
}

func (a *AdminSet) Len() int {
	return len(a.admins)
}

// Switch is a process-wide pause flag. Zero value is unpaused.
type Switch struct {
	paused atomic.Bool
}

func (s *Switch) SetPaused(paused bool) {
	s.paused.Store(paused)
}

func (s *Switch) Paused() bool {
	return s.paused.Load()
}
