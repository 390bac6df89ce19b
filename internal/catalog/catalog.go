// Package catalog is the in-memory store of file and batch records,
// keyed by generated unique identifiers. Expiry is owned exclusively by
// the Sweeper; reads never evict.
package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/codeflix/filestore-bot/internal/domain"
)

// Key prefixes let a redeemed token be dispatched to the right store.
const (
	FileKeyPrefix  = "file_"
	BatchKeyPrefix = "batch_"
)

// Counters reports catalog totals. The "Total" counters are monotonic
// and never decremented, even by the sweeper.
type Counters struct {
	TotalFiles     int64
	TotalBatches   int64
	CurrentFiles   int64
	CurrentBatches int64
}

// Catalog guards file and batch records behind one mutex. Every
// exported method is atomic with respect to concurrent callers.
type Catalog struct {
	mu sync.RWMutex

	files   map[string]*domain.FileRecord
	batches map[string]*domain.BatchRecord

	// ownerFiles indexes file keys by owning user for listing and for
	// purging when a user is removed. System entries (owner 0) are not
	// indexed.
	ownerFiles map[int64][]string

	totalFiles   int64
	totalBatches int64

	now func() time.Time
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		files:      make(map[string]*domain.FileRecord),
		batches:    make(map[string]*domain.BatchRecord),
		ownerFiles: make(map[int64][]string),
		now:        time.Now,
	}
}

// PutFile stores a record under a freshly generated key and returns the
// key. The catalog assigns Key, CreatedAt and a zero access counter; a
// missing SizeHuman is derived from Size.
func (c *Catalog) PutFile(rec domain.FileRecord) string {
	key := FileKeyPrefix + uuid.NewString()
	rec.Key = key
	rec.AccessCount = 0
	if rec.SizeHuman == "" && rec.Size > 0 {
		rec.SizeHuman = humanize.IBytes(uint64(rec.Size))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rec.CreatedAt = c.now()
	c.files[key] = &rec
	if rec.OwnerID != 0 {
		c.ownerFiles[rec.OwnerID] = append(c.ownerFiles[rec.OwnerID], key)
	}
	c.totalFiles++
	return key
}

// GetFile returns a copy of the record, incrementing its access counter
// on hit. Expired-but-not-yet-swept records are still returned; the
// sweeper is the only component that evicts.
func (c *Catalog) GetFile(key string) (domain.FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.files[key]
	if !ok {
		return domain.FileRecord{}, fmt.Errorf("file %s: %w", key, domain.ErrNotFound)
	}
	rec.AccessCount++
	return *rec, nil
}

// DeleteFile removes a file record. Deleting an absent key is a no-op.
func (c *Catalog) DeleteFile(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.files[key]
	if !ok {
		return nil
	}
	delete(c.files, key)
	if rec.OwnerID != 0 {
		c.ownerFiles[rec.OwnerID] = removeKey(c.ownerFiles[rec.OwnerID], key)
		if len(c.ownerFiles[rec.OwnerID]) == 0 {
			delete(c.ownerFiles, rec.OwnerID)
		}
	}
	return nil
}

// FilesByOwner returns copies of all records owned by the user.
func (c *Catalog) FilesByOwner(ownerID int64) []domain.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := c.ownerFiles[ownerID]
	out := make([]domain.FileRecord, 0, len(keys))
	for _, key := range keys {
		if rec, ok := c.files[key]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// PurgeOwner drops the per-owner file index for a removed user. The
// files themselves stay independently addressable by key.
func (c *Catalog) PurgeOwner(ownerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ownerFiles, ownerID)
}

// PutBatch stores a batch record under a freshly generated key. The
// catalog does not reject an empty file-key list; callers validate
// non-emptiness before committing.
func (c *Catalog) PutBatch(rec domain.BatchRecord) string {
	key := BatchKeyPrefix + uuid.NewString()
	rec.Key = key
	rec.AccessCount = 0
	rec.TotalFiles = len(rec.FileKeys)

	c.mu.Lock()
	defer c.mu.Unlock()
	rec.CreatedAt = c.now()
	c.batches[key] = &rec
	c.totalBatches++
	return key
}

// GetBatch mirrors GetFile for batch records.
func (c *Catalog) GetBatch(key string) (domain.BatchRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.batches[key]
	if !ok {
		return domain.BatchRecord{}, fmt.Errorf("batch %s: %w", key, domain.ErrNotFound)
	}
	rec.AccessCount++
	out := *rec
	out.FileKeys = append([]string(nil), rec.FileKeys...)
	out.MessageIDs = append([]int(nil), rec.MessageIDs...)
	return out, nil
}

// DeleteBatch removes a batch record. Member files are left untouched.
func (c *Catalog) DeleteBatch(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.batches, key)
	return nil
}

// Counters returns current and all-time totals.
func (c *Catalog) Counters() Counters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Counters{
		TotalFiles:     c.totalFiles,
		TotalBatches:   c.totalBatches,
		CurrentFiles:   int64(len(c.files)),
		CurrentBatches: int64(len(c.batches)),
	}
}

// FilesCreatedBefore returns the keys of all files created strictly
// before the cutoff.
func (c *Catalog) FilesCreatedBefore(cutoff time.Time) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var keys []string
	for key, rec := range c.files {
		if rec.CreatedAt.Before(cutoff) {
			keys = append(keys, key)
		}
	}
	return keys
}

// BatchesCreatedBefore returns the keys of all batches created strictly
// before the cutoff.
func (c *Catalog) BatchesCreatedBefore(cutoff time.Time) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var keys []string
	for key, rec := range c.batches {
		if rec.CreatedAt.Before(cutoff) {
			keys = append(keys, key)
		}
	}
	return keys
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
