package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeflix/filestore-bot/internal/catalog"
	"github.com/codeflix/filestore-bot/internal/domain"
	"github.com/codeflix/filestore-bot/internal/registry"
	"github.com/codeflix/filestore-bot/internal/token"
)

type passthroughShortener struct{ calls int }

func (p *passthroughShortener) Shorten(_ context.Context, u string) string {
	p.calls++
	return u
}

func newTestStore() (*FileStore, *passthroughShortener) {
	reg := registry.New(registry.Seed{OwnerID: 111, AutoDeleteSeconds: 600})
	short := &passthroughShortener{}
	s := New(reg, catalog.New(), short)
	s.SetBotUsername("filestorebot")
	return s, short
}

func sampleMeta() MediaMeta {
	return MediaMeta{
		Name:       "movie.mkv",
		Size:       1 << 30,
		Kind:       domain.MediaVideo,
		Hash:       "AgADdQEAAr",
		UploadedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRegisterAndRedeemFile(t *testing.T) {
	s, _ := newTestStore()

	key := s.RegisterMedia(7, -100123, 42, sampleMeta())

	res, err := s.Redeem(token.Encode(key))
	require.NoError(t, err)
	require.NotNil(t, res.File)
	assert.Nil(t, res.Batch)
	assert.Equal(t, "movie.mkv", res.File.Name)
	assert.Equal(t, int64(1), res.File.AccessCount)
}

func TestRedeemBatch(t *testing.T) {
	s, _ := newTestStore()

	k1 := s.RegisterMedia(7, -100123, 42, sampleMeta())
	k2 := s.RegisterMedia(7, -100123, 43, sampleMeta())

	batchKey, err := s.CreateBatch(7, -100123, []string{k1, k2}, 42, 43, nil)
	require.NoError(t, err)

	res, err := s.Redeem(token.Encode(batchKey))
	require.NoError(t, err)
	require.NotNil(t, res.Batch)
	assert.Equal(t, []string{k1, k2}, res.Batch.FileKeys)
}

func TestRedeemMalformedToken(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.Redeem("!!definitely not base64!!")
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))

	// Well-formed base64, but not a catalog key.
	_, err = s.Redeem(token.Encode("something_else"))
	assert.True(t, errors.Is(err, domain.ErrMalformedToken))
}

func TestRedeemNotFound(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.Redeem(token.Encode("file_00000000-0000-0000-0000-000000000000"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateBatchRejectsEmpty(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.CreateBatch(7, -100123, nil, 42, 43, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidValue))
	assert.Zero(t, s.Catalog().Counters().TotalBatches)
}

func TestShareLink(t *testing.T) {
	s, short := newTestStore()

	key := s.RegisterMedia(7, -100123, 42, sampleMeta())
	link := s.ShareLink(context.Background(), key)

	assert.Equal(t, "https://t.me/filestorebot?start="+token.Encode(key), link)
	assert.Equal(t, 1, short.calls)
}

func TestRemoveUserPurgesAssociation(t *testing.T) {
	s, _ := newTestStore()
	s.RegisterUser(7)
	key := s.RegisterMedia(7, -100123, 42, sampleMeta())

	s.RemoveUser(7)
	assert.False(t, s.Registry().IsKnown(7))
	assert.Empty(t, s.Catalog().FilesByOwner(7))

	// The file stays independently addressable.
	_, err := s.Redeem(token.Encode(key))
	assert.NoError(t, err)
}
