package domain

import "time"

// Provenance records how a file entered the catalog.
type Provenance struct {
	AutoGenerated    bool
	FromGroup        bool
	HashtagTriggered bool
}

// FileRecord represents one piece of media accessible via a deep link.
// The catalog stores only a reference (channel id + message id), never
// file bytes.
type FileRecord struct {
	Key         string
	OwnerID     int64 // 0 for system-generated entries
	ChannelID   int64
	MessageID   int
	Name        string
	Size        int64
	SizeHuman   string
	Kind        MediaKind
	Hash        string // provider-assigned unique id of the media
	UploadedAt  time.Time
	CreatedAt   time.Time
	AccessCount int64
	Provenance  Provenance
}

// BatchRecord represents an ordered group of file keys produced from a
// message-id range or an explicit id list.
type BatchRecord struct {
	Key            string
	OwnerID        int64
	ChannelID      int64
	FileKeys       []string
	FirstMessageID int
	LastMessageID  int
	MessageIDs     []int // set for custom batches instead of the range
	TotalFiles     int
	CreatedAt      time.Time
	AccessCount    int64
}
