package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/codeflix/filestore-bot/internal/domain"
	"github.com/codeflix/filestore-bot/internal/service"
)

// mediaMeta extracts the media description from a message. The second
// return is false when the message carries no supported media.
func mediaMeta(msg *tgbotapi.Message) (service.MediaMeta, bool) {
	meta := service.MediaMeta{UploadedAt: time.Unix(int64(msg.Date), 0)}

	switch {
	case msg.Document != nil:
		meta.Kind = domain.MediaDocument
		meta.Name = msg.Document.FileName
		meta.Size = int64(msg.Document.FileSize)
		meta.Hash = msg.Document.FileUniqueID
	case msg.Video != nil:
		meta.Kind = domain.MediaVideo
		meta.Name = msg.Video.FileName
		meta.Size = int64(msg.Video.FileSize)
		meta.Hash = msg.Video.FileUniqueID
	case msg.Audio != nil:
		meta.Kind = domain.MediaAudio
		meta.Name = msg.Audio.FileName
		meta.Size = int64(msg.Audio.FileSize)
		meta.Hash = msg.Audio.FileUniqueID
	case len(msg.Photo) > 0:
		// The last entry is the largest rendition.
		largest := msg.Photo[len(msg.Photo)-1]
		meta.Kind = domain.MediaPhoto
		meta.Size = int64(largest.FileSize)
		meta.Hash = largest.FileUniqueID
	case msg.Animation != nil:
		meta.Kind = domain.MediaAnimation
		meta.Name = msg.Animation.FileName
		meta.Size = int64(msg.Animation.FileSize)
		meta.Hash = msg.Animation.FileUniqueID
	case msg.Voice != nil:
		meta.Kind = domain.MediaVoice
		meta.Size = int64(msg.Voice.FileSize)
		meta.Hash = msg.Voice.FileUniqueID
	case msg.VideoNote != nil:
		meta.Kind = domain.MediaVideoNote
		meta.Size = int64(msg.VideoNote.FileSize)
		meta.Hash = msg.VideoNote.FileUniqueID
	case msg.Sticker != nil:
		meta.Kind = domain.MediaSticker
		meta.Size = int64(msg.Sticker.FileSize)
		meta.Hash = msg.Sticker.FileUniqueID
	default:
		return service.MediaMeta{}, false
	}

	if meta.Name == "" {
		meta.Name = meta.Kind.DefaultFileName()
	}
	return meta, true
}
