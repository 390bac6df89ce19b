package domain

// MediaKind identifies the type of a stored media reference.
type MediaKind string

const (
	MediaDocument  MediaKind = "document"
	MediaVideo     MediaKind = "video"
	MediaAudio     MediaKind = "audio"
	MediaPhoto     MediaKind = "photo"
	MediaAnimation MediaKind = "animation"
	MediaVoice     MediaKind = "voice"
	MediaVideoNote MediaKind = "video_note"
	MediaSticker   MediaKind = "sticker"
	MediaUnknown   MediaKind = "unknown"
)

// DefaultFileName returns the fallback display name for media that
// carries no file name of its own.
func (k MediaKind) DefaultFileName() string {
	switch k {
	case MediaVideo:
		return "video.mp4"
	case MediaAudio:
		return "audio.mp3"
	case MediaPhoto:
		return "photo.jpg"
	case MediaAnimation:
		return "animation.gif"
	case MediaVoice:
		return "voice.ogg"
	case MediaVideoNote:
		return "video_note.mp4"
	case MediaSticker:
		return "sticker.webp"
	default:
		return "file"
	}
}
