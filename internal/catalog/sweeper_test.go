package catalog

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeflix/filestore-bot/internal/domain"
)

type fakeSettings struct {
	enabled bool
	seconds int
}

func (f fakeSettings) AutoDeleteEnabled() bool { return f.enabled }
func (f fakeSettings) AutoDeleteSeconds() int  { return f.seconds }

func discardLogger() *log.Logger { return log.New(io.Discard) }

func TestSweepExpiryCorrectness(t *testing.T) {
	c := New()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	c.now = func() time.Time { return base }
	old := c.PutFile(testFile(7))

	c.now = func() time.Time { return base.Add(30 * time.Second) }
	fresh := c.PutFile(testFile(7))

	s := NewSweeper(c, fakeSettings{enabled: true, seconds: 60}, time.Minute, discardLogger())
	s.now = func() time.Time { return base.Add(61 * time.Second) }

	files, batches := s.Sweep()
	assert.Equal(t, 1, files)
	assert.Equal(t, 0, batches)

	_, err := c.GetFile(old)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "file created at T=0 must be swept at T=61")
	_, err = c.GetFile(fresh)
	assert.NoError(t, err, "file created at T=30 must survive a sweep at T=61")
}

func TestSweepKillSwitch(t *testing.T) {
	c := New()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base.Add(-time.Hour) }
	key := c.PutFile(testFile(7))
	bkey := c.PutBatch(domain.BatchRecord{FileKeys: []string{key}})

	s := NewSweeper(c, fakeSettings{enabled: false, seconds: 60}, time.Minute, discardLogger())
	s.now = func() time.Time { return base }

	files, batches := s.Sweep()
	assert.Zero(t, files)
	assert.Zero(t, batches)

	_, err := c.GetFile(key)
	assert.NoError(t, err)
	_, err = c.GetBatch(bkey)
	assert.NoError(t, err)
}

func TestSweepExpiresBatches(t *testing.T) {
	c := New()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	key := c.PutFile(testFile(7))
	bkey := c.PutBatch(domain.BatchRecord{FileKeys: []string{key}})

	s := NewSweeper(c, fakeSettings{enabled: true, seconds: 60}, time.Minute, discardLogger())
	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	files, batches := s.Sweep()
	assert.Equal(t, 1, files)
	assert.Equal(t, 1, batches)

	_, err := c.GetBatch(bkey)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// failingStore rejects one specific key to prove a sweep continues past
// per-entry failures.
type failingStore struct {
	*Catalog
	failKey string
}

func (f *failingStore) DeleteFile(key string) error {
	if key == f.failKey {
		return errors.New("boom")
	}
	return f.Catalog.DeleteFile(key)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	c := New()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	k1 := c.PutFile(testFile(7))
	k2 := c.PutFile(testFile(7))
	k3 := c.PutFile(testFile(7))

	store := &failingStore{Catalog: c, failKey: k2}
	s := NewSweeper(store, fakeSettings{enabled: true, seconds: 60}, time.Minute, discardLogger())
	s.now = func() time.Time { return base.Add(time.Hour) }

	files, _ := s.Sweep()
	assert.Equal(t, 2, files, "the failing entry must not abort the rest")

	for _, key := range []string{k1, k3} {
		_, err := c.GetFile(key)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	}
	_, err := c.GetFile(k2)
	assert.NoError(t, err, "the failed deletion leaves the entry in place")
}

func TestRunStopsOnCancel(t *testing.T) {
	c := New()
	s := NewSweeper(c, fakeSettings{enabled: true, seconds: 60}, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "sweeper did not stop on context cancellation")
	}
}
