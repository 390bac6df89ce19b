// Package registry is the in-memory store of users, bans, admins,
// force-subscription channels and runtime settings. It is volatile by
// design: nothing survives a restart.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codeflix/filestore-bot/internal/domain"
)

// MinAutoDeleteSeconds is the smallest accepted auto-delete TTL.
const MinAutoDeleteSeconds = 60

// Seed carries the configuration-derived initial state.
type Seed struct {
	OwnerID           int64
	Admins            []int64
	Channels          []int64
	AutoDeleteSeconds int
	ForceSubEnabled   bool
	AutoDeleteEnabled bool
}

// Stats is a consistent point-in-time view of the registry.
type Stats struct {
	KnownUsers        int
	BannedUsers       int
	Admins            int
	Channels          int
	ForceSubEnabled   bool
	AutoDeleteSeconds int
	AutoDeleteEnabled bool
	Uptime            time.Duration
}

// Registry guards all access-control state behind one mutex. Every
// exported method is atomic with respect to concurrent callers.
type Registry struct {
	mu sync.RWMutex

	ownerID int64
	users   map[int64]struct{}
	banned  map[int64]struct{}
	admins  map[int64]struct{}

	// Channels keep insertion order so policy evaluation reports a
	// deterministic first failing channel.
	channels   []int64
	channelSet map[int64]struct{}

	forceSubEnabled   bool
	autoDeleteSeconds int
	autoDeleteEnabled bool

	startedAt time.Time
}

// New creates a Registry seeded from configuration. The owner is always
// an admin, whether or not the admin list mentions them.
func New(seed Seed) *Registry {
	r := &Registry{
		ownerID:           seed.OwnerID,
		users:             make(map[int64]struct{}),
		banned:            make(map[int64]struct{}),
		admins:            make(map[int64]struct{}),
		channelSet:        make(map[int64]struct{}),
		forceSubEnabled:   seed.ForceSubEnabled,
		autoDeleteSeconds: seed.AutoDeleteSeconds,
		autoDeleteEnabled: seed.AutoDeleteEnabled,
		startedAt:         time.Now(),
	}
	r.admins[seed.OwnerID] = struct{}{}
	for _, id := range seed.Admins {
		r.admins[id] = struct{}{}
	}
	for _, id := range seed.Channels {
		if _, ok := r.channelSet[id]; ok {
			continue
		}
		r.channelSet[id] = struct{}{}
		r.channels = append(r.channels, id)
	}
	return r
}

// OwnerID returns the configured owner identifier.
func (r *Registry) OwnerID() int64 { return r.ownerID }

// AddUser records a user as known. Idempotent.
func (r *Registry) AddUser(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = struct{}{}
}

// RemoveUser forgets a user. The caller is responsible for purging the
// per-owner catalog association alongside (see service.RemoveUser).
func (r *Registry) RemoveUser(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// IsKnown reports whether the user has interacted with the bot.
func (r *Registry) IsKnown(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[id]
	return ok
}

// CountKnown returns the number of known users.
func (r *Registry) CountKnown() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// ListKnown returns all known user ids, sorted for stable output.
func (r *Registry) ListKnown() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.users)
}

// Ban marks a user as banned. Banning the owner is rejected.
func (r *Registry) Ban(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.ownerID {
		return fmt.Errorf("ban owner %d: %w", id, domain.ErrProtectedEntity)
	}
	r.banned[id] = struct{}{}
	return nil
}

// Unban lifts a ban. Unbanning a user who is not banned is a no-op.
func (r *Registry) Unban(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.banned, id)
}

// IsBanned reports whether the user is banned.
func (r *Registry) IsBanned(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.banned[id]
	return ok
}

// ListBanned returns all banned user ids, sorted.
func (r *Registry) ListBanned() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.banned)
}

// AddAdmin grants admin rights. Idempotent.
func (r *Registry) AddAdmin(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[id] = struct{}{}
}

// RemoveAdmin revokes admin rights. Removing the owner always fails
// with domain.ErrProtectedEntity, never silently.
func (r *Registry) RemoveAdmin(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == r.ownerID {
		return fmt.Errorf("remove owner %d from admins: %w", id, domain.ErrProtectedEntity)
	}
	delete(r.admins, id)
	return nil
}

// IsAdmin reports whether the user has admin rights. The owner is
// always an admin.
func (r *Registry) IsAdmin(id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.admins[id]
	return ok
}

// ListAdmins returns all admin ids, sorted. Always contains the owner.
func (r *Registry) ListAdmins() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.admins)
}

// AddChannel appends a force-subscription channel, preserving insertion
// order. Adding a channel twice is a no-op.
func (r *Registry) AddChannel(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channelSet[id]; ok {
		return
	}
	r.channelSet[id] = struct{}{}
	r.channels = append(r.channels, id)
}

// RemoveChannel drops a force-subscription channel.
func (r *Registry) RemoveChannel(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channelSet[id]; !ok {
		return
	}
	delete(r.channelSet, id)
	for i, ch := range r.channels {
		if ch == id {
			r.channels = append(r.channels[:i], r.channels[i+1:]...)
			break
		}
	}
}

// ListChannels returns the force-subscription channels in the order
// they were added.
func (r *Registry) ListChannels() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, len(r.channels))
	copy(out, r.channels)
	return out
}

// SetForceSubEnabled toggles the force-subscription gate.
func (r *Registry) SetForceSubEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forceSubEnabled = enabled
}

// ForceSubEnabled reports whether the force-subscription gate is on.
func (r *Registry) ForceSubEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forceSubEnabled
}

// SetAutoDeleteSeconds updates the catalog TTL. Values below
// MinAutoDeleteSeconds are rejected with domain.ErrInvalidValue.
func (r *Registry) SetAutoDeleteSeconds(n int) error {
	if n < MinAutoDeleteSeconds {
		return fmt.Errorf("auto-delete time %ds below minimum %ds: %w",
			n, MinAutoDeleteSeconds, domain.ErrInvalidValue)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoDeleteSeconds = n
	return nil
}

// AutoDeleteSeconds returns the current catalog TTL in seconds.
func (r *Registry) AutoDeleteSeconds() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoDeleteSeconds
}

// SetAutoDeleteEnabled toggles the expiry sweeper kill switch.
func (r *Registry) SetAutoDeleteEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoDeleteEnabled = enabled
}

// AutoDeleteEnabled reports whether expiry sweeping is active.
func (r *Registry) AutoDeleteEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoDeleteEnabled
}

// Stats returns a consistent snapshot of all registry counters and
// settings without requiring the caller to coordinate multiple reads.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		KnownUsers:        len(r.users),
		BannedUsers:       len(r.banned),
		Admins:            len(r.admins),
		Channels:          len(r.channels),
		ForceSubEnabled:   r.forceSubEnabled,
		AutoDeleteSeconds: r.autoDeleteSeconds,
		AutoDeleteEnabled: r.autoDeleteEnabled,
		Uptime:            time.Since(r.startedAt),
	}
}

func sortedKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
