// Package policy decides whether a requesting user may use the bot,
// composing ban state and force-subscription membership.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemberStatus is the outcome of a channel-membership lookup.
type MemberStatus int

const (
	StatusMember MemberStatus = iota
	StatusKicked
	StatusLeft
	StatusUnknown
)

// Code classifies an access decision.
type Code int

const (
	Allowed Code = iota
	DeniedBanned
	DeniedNotSubscribed
)

// Decision is the result of evaluating a user against current registry
// state. Channel is set only for DeniedNotSubscribed.
type Decision struct {
	Code    Code
	Channel int64
}

func (d Decision) String() string {
	switch d.Code {
	case Allowed:
		return "allowed"
	case DeniedBanned:
		return "denied: banned"
	case DeniedNotSubscribed:
		return fmt.Sprintf("denied: not subscribed to %d", d.Channel)
	default:
		return "unknown"
	}
}

// MembershipChecker resolves a user's status in a channel. Lookups go
// over the network; implementations must respect the context deadline.
type MembershipChecker interface {
	MemberStatus(ctx context.Context, channelID, userID int64) (MemberStatus, error)
}

// RegistryView is the read-only registry surface the evaluator needs.
type RegistryView interface {
	IsBanned(id int64) bool
	ForceSubEnabled() bool
	ListChannels() []int64
}

const (
	lookupTimeout = 5 * time.Second

	// Positive membership results are cached briefly so a burst of
	// requests from one user does not hammer the membership API.
	// Negative results are never cached: a user who just joined must
	// pass the very next check.
	membershipCacheSize = 4096
	membershipCacheTTL  = 5 * time.Minute
)

// Evaluator is a pure function of registry state plus a membership
// checker, with a small positive-result cache in front of the checker.
type Evaluator struct {
	registry RegistryView
	members  MembershipChecker
	cache    *expirable.LRU[string, struct{}]
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(registry RegistryView, members MembershipChecker) *Evaluator {
	return &Evaluator{
		registry: registry,
		members:  members,
		cache:    expirable.NewLRU[string, struct{}](membershipCacheSize, nil, membershipCacheTTL),
	}
}

// Evaluate returns the access decision for a user. Bans take precedence
// over everything. Force-subscription applies only when the gate is
// enabled and at least one channel is configured; channels are checked
// in registry order and the first failure is reported. A lookup error
// counts as not subscribed (fail-closed).
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) Decision {
	if e.registry.IsBanned(userID) {
		return Decision{Code: DeniedBanned}
	}

	channels := e.registry.ListChannels()
	if !e.registry.ForceSubEnabled() || len(channels) == 0 {
		return Decision{Code: Allowed}
	}

	for _, channelID := range channels {
		if e.subscribed(ctx, channelID, userID) {
			continue
		}
		return Decision{Code: DeniedNotSubscribed, Channel: channelID}
	}
	return Decision{Code: Allowed}
}

func (e *Evaluator) subscribed(ctx context.Context, channelID, userID int64) bool {
	key := fmt.Sprintf("%d:%d", channelID, userID)
	if _, ok := e.cache.Get(key); ok {
		return true
	}

	lctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	status, err := e.members.MemberStatus(lctx, channelID, userID)
	if err != nil || status != StatusMember {
		return false
	}
	e.cache.Add(key, struct{}{})
	return true
}
