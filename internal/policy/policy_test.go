package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeflix/filestore-bot/internal/registry"
)

type fakeMembers struct {
	statuses map[int64]MemberStatus
	errs     map[int64]error
	calls    int
}

func (f *fakeMembers) MemberStatus(_ context.Context, channelID, _ int64) (MemberStatus, error) {
	f.calls++
	if err, ok := f.errs[channelID]; ok {
		return StatusUnknown, err
	}
	if st, ok := f.statuses[channelID]; ok {
		return st, nil
	}
	return StatusMember, nil
}

func newPolicyRegistry(channels []int64, enabled bool) *registry.Registry {
	return registry.New(registry.Seed{
		OwnerID:           111,
		Channels:          channels,
		AutoDeleteSeconds: 600,
		ForceSubEnabled:   enabled,
	})
}

func TestBanPrecedesSubscription(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500}, true)
	_ = reg.Ban(42)

	// Subscribed to every channel, but banned.
	e := NewEvaluator(reg, &fakeMembers{})
	d := e.Evaluate(context.Background(), 42)
	assert.Equal(t, DeniedBanned, d.Code)
}

func TestVacuousForceSub(t *testing.T) {
	reg := newPolicyRegistry(nil, true)

	members := &fakeMembers{}
	e := NewEvaluator(reg, members)
	d := e.Evaluate(context.Background(), 42)
	assert.Equal(t, Allowed, d.Code)
	assert.Zero(t, members.calls, "no channels means no lookups")
}

func TestForceSubDisabledSkipsChecks(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500}, false)

	members := &fakeMembers{statuses: map[int64]MemberStatus{-100500: StatusLeft}}
	e := NewEvaluator(reg, members)
	d := e.Evaluate(context.Background(), 42)
	assert.Equal(t, Allowed, d.Code)
	assert.Zero(t, members.calls)
}

func TestFirstFailingChannelReported(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500, -100600, -100700}, true)

	members := &fakeMembers{statuses: map[int64]MemberStatus{
		-100600: StatusLeft,
		-100700: StatusKicked,
	}}
	e := NewEvaluator(reg, members)
	d := e.Evaluate(context.Background(), 42)
	assert.Equal(t, DeniedNotSubscribed, d.Code)
	assert.Equal(t, int64(-100600), d.Channel)
}

func TestLookupErrorFailsClosed(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500}, true)

	members := &fakeMembers{errs: map[int64]error{-100500: errors.New("chat not found")}}
	e := NewEvaluator(reg, members)
	d := e.Evaluate(context.Background(), 42)
	assert.Equal(t, DeniedNotSubscribed, d.Code)
	assert.Equal(t, int64(-100500), d.Channel)
}

func TestUnknownStatusFailsClosed(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500}, true)

	members := &fakeMembers{statuses: map[int64]MemberStatus{-100500: StatusUnknown}}
	e := NewEvaluator(reg, members)
	d := e.Evaluate(context.Background(), 42)
	assert.Equal(t, DeniedNotSubscribed, d.Code)
}

func TestPositiveResultsCached(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500}, true)

	members := &fakeMembers{}
	e := NewEvaluator(reg, members)

	for i := 0; i < 3; i++ {
		d := e.Evaluate(context.Background(), 42)
		assert.Equal(t, Allowed, d.Code)
	}
	assert.Equal(t, 1, members.calls, "repeat evaluations should hit the cache")
}

func TestNegativeResultsNotCached(t *testing.T) {
	reg := newPolicyRegistry([]int64{-100500}, true)

	members := &fakeMembers{statuses: map[int64]MemberStatus{-100500: StatusLeft}}
	e := NewEvaluator(reg, members)

	assert.Equal(t, DeniedNotSubscribed, e.Evaluate(context.Background(), 42).Code)

	// The user joins; the next evaluation must see it immediately.
	members.statuses[-100500] = StatusMember
	assert.Equal(t, Allowed, e.Evaluate(context.Background(), 42).Code)
}
