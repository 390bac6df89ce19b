// Package service implements the use cases on top of the registry and
// catalog: registering media references, building share links and
// redeeming tokens.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codeflix/filestore-bot/internal/catalog"
	"github.com/codeflix/filestore-bot/internal/domain"
	"github.com/codeflix/filestore-bot/internal/registry"
	"github.com/codeflix/filestore-bot/internal/token"
)

// URLShortener shortens share links best-effort.
type URLShortener interface {
	Shorten(ctx context.Context, longURL string) string
}

// MediaMeta carries the transport-extracted description of one media
// item being registered.
type MediaMeta struct {
	Name       string
	Size       int64
	Kind       domain.MediaKind
	Hash       string
	UploadedAt time.Time
	Provenance domain.Provenance
}

// RedeemResult is the outcome of a successful token redemption; exactly
// one of File or Batch is set.
type RedeemResult struct {
	File  *domain.FileRecord
	Batch *domain.BatchRecord
}

// FileStore wires the registry, catalog and shortener into the
// operations the transport layer calls.
type FileStore struct {
	registry  *registry.Registry
	catalog   *catalog.Catalog
	shortener URLShortener

	// botUsername is set once after the transport authenticates,
	// before any handler runs.
	botUsername string
}

// New creates a FileStore.
func New(reg *registry.Registry, cat *catalog.Catalog, short URLShortener) *FileStore {
	return &FileStore{registry: reg, catalog: cat, shortener: short}
}

// SetBotUsername records the authenticated bot username used to build
// deep links. Must be called before handlers start.
func (s *FileStore) SetBotUsername(name string) { s.botUsername = name }

// Registry exposes the access registry to the transport layer.
func (s *FileStore) Registry() *registry.Registry { return s.registry }

// Catalog exposes the file/batch catalog to the transport layer.
func (s *FileStore) Catalog() *catalog.Catalog { return s.catalog }

// RegisterUser records a user as known.
func (s *FileStore) RegisterUser(id int64) { s.registry.AddUser(id) }

// RemoveUser forgets a user and purges the per-owner file association
// so no dangling lookups remain. The files themselves stay addressable.
func (s *FileStore) RemoveUser(id int64) {
	s.registry.RemoveUser(id)
	s.catalog.PurgeOwner(id)
}

// RegisterMedia stores a reference to externally hosted media and
// returns its catalog key. ownerID 0 marks a system-generated entry.
func (s *FileStore) RegisterMedia(ownerID, channelID int64, messageID int, meta MediaMeta) string {
	return s.catalog.PutFile(domain.FileRecord{
		OwnerID:    ownerID,
		ChannelID:  channelID,
		MessageID:  messageID,
		Name:       meta.Name,
		Size:       meta.Size,
		Kind:       meta.Kind,
		Hash:       meta.Hash,
		UploadedAt: meta.UploadedAt,
		Provenance: meta.Provenance,
	})
}

// CreateBatch commits a batch over already-registered file keys. A
// batch with no resolved files is rejected with domain.ErrInvalidValue;
// the catalog itself does not enforce non-emptiness.
func (s *FileStore) CreateBatch(ownerID, channelID int64, fileKeys []string, firstID, lastID int, messageIDs []int) (string, error) {
	if len(fileKeys) == 0 {
		return "", fmt.Errorf("batch with no resolved files: %w", domain.ErrInvalidValue)
	}
	key := s.catalog.PutBatch(domain.BatchRecord{
		OwnerID:        ownerID,
		ChannelID:      channelID,
		FileKeys:       fileKeys,
		FirstMessageID: firstID,
		LastMessageID:  lastID,
		MessageIDs:     messageIDs,
	})
	return key, nil
}

// DeepLink builds the unshortened bot-invocation URL for a catalog key.
func (s *FileStore) DeepLink(key string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, token.Encode(key))
}

// ShareLink builds the deep link for a key and shortens it when a
// shortener is configured. Shortening failures fall back silently.
func (s *FileStore) ShareLink(ctx context.Context, key string) string {
	return s.shortener.Shorten(ctx, s.DeepLink(key))
}

// Redeem resolves a deep-link token to a file or batch record. It
// fails with domain.ErrMalformedToken for tokens that are not codec
// output (or decode to an unrecognized key shape) and with
// domain.ErrNotFound for keys that are absent or already swept.
func (s *FileStore) Redeem(tok string) (RedeemResult, error) {
	key, err := token.Decode(tok)
	if err != nil {
		return RedeemResult{}, err
	}

	switch {
	case strings.HasPrefix(key, catalog.FileKeyPrefix):
		rec, err := s.catalog.GetFile(key)
		if err != nil {
			return RedeemResult{}, err
		}
		return RedeemResult{File: &rec}, nil
	case strings.HasPrefix(key, catalog.BatchKeyPrefix):
		rec, err := s.catalog.GetBatch(key)
		if err != nil {
			return RedeemResult{}, err
		}
		return RedeemResult{Batch: &rec}, nil
	default:
		return RedeemResult{}, fmt.Errorf("unrecognized key %q: %w", key, domain.ErrMalformedToken)
	}
}
