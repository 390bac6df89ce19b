package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"github.com/codeflix/filestore-bot/internal/domain"
)

func TestFloodWait(t *testing.T) {
	err := &tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests: retry after 5",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 5},
	}

	wait, ok := floodWait(fmt.Errorf("send: %w", err))
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, wait)

	_, ok = floodWait(errors.New("plain failure"))
	assert.False(t, ok)

	_, ok = floodWait(&tgbotapi.Error{Code: 400, Message: "Bad Request"})
	assert.False(t, ok)
}

func TestClassifyDelivery(t *testing.T) {
	assert.Equal(t, Delivered, classifyDelivery(nil))

	blocked := &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}
	assert.Equal(t, PermanentlyBlocked, classifyDelivery(blocked))

	deactivated := &tgbotapi.Error{Code: 403, Message: "Forbidden: user is deactivated"}
	assert.Equal(t, PermanentlyBlocked, classifyDelivery(deactivated))

	missing := &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}
	assert.Equal(t, PermanentlyBlocked, classifyDelivery(missing))

	assert.Equal(t, TemporarilyUnavailable, classifyDelivery(errors.New("timeout")))
}

func TestFmtDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{10 * time.Minute, "10m"},
		{90 * time.Minute, "1h 30m"},
		{26*time.Hour + 3*time.Minute + time.Second, "1d 2h 3m 1s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, fmtDuration(tc.in), "duration %s", tc.in)
	}
}

func TestFileCaption(t *testing.T) {
	rec := domain.FileRecord{
		Name:       "movie.mkv",
		SizeHuman:  "1.0 GiB",
		UploadedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	caption := fileCaption(rec)
	assert.Contains(t, caption, "movie.mkv")
	assert.Contains(t, caption, "1.0 GiB")
	assert.Contains(t, caption, "2024-06-01")

	assert.Empty(t, fileCaption(domain.FileRecord{}), "metadata-less references get no caption")
}
