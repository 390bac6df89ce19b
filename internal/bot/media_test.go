package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeflix/filestore-bot/internal/domain"
)

func TestMediaMetaDocument(t *testing.T) {
	msg := &tgbotapi.Message{
		Date: 1717243200,
		Document: &tgbotapi.Document{
			FileName:     "report.pdf",
			FileSize:     2048,
			FileUniqueID: "AgADdQEAAr",
		},
	}

	meta, ok := mediaMeta(msg)
	require.True(t, ok)
	assert.Equal(t, domain.MediaDocument, meta.Kind)
	assert.Equal(t, "report.pdf", meta.Name)
	assert.Equal(t, int64(2048), meta.Size)
	assert.Equal(t, "AgADdQEAAr", meta.Hash)
	assert.Equal(t, int64(1717243200), meta.UploadedAt.Unix())
}

func TestMediaMetaPhotoPicksLargest(t *testing.T) {
	msg := &tgbotapi.Message{
		Photo: []tgbotapi.PhotoSize{
			{FileSize: 100, FileUniqueID: "small"},
			{FileSize: 9000, FileUniqueID: "large"},
		},
	}

	meta, ok := mediaMeta(msg)
	require.True(t, ok)
	assert.Equal(t, domain.MediaPhoto, meta.Kind)
	assert.Equal(t, int64(9000), meta.Size)
	assert.Equal(t, "large", meta.Hash)
}

func TestMediaMetaNamelessKindsGetDefaultName(t *testing.T) {
	msg := &tgbotapi.Message{Voice: &tgbotapi.Voice{FileSize: 10, FileUniqueID: "v"}}

	meta, ok := mediaMeta(msg)
	require.True(t, ok)
	assert.Equal(t, domain.MediaVoice, meta.Kind)
	assert.NotEmpty(t, meta.Name)
}

func TestMediaMetaTextOnly(t *testing.T) {
	_, ok := mediaMeta(&tgbotapi.Message{Text: "hello"})
	assert.False(t, ok)
}
