package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"

	"github.com/codeflix/filestore-bot/internal/domain"
)

// DeliveryStatus classifies the outcome of sending one message to one
// recipient.
type DeliveryStatus int

const (
	Delivered DeliveryStatus = iota
	// PermanentlyBlocked means the recipient can never be reached again
	// (blocked the bot, deleted the account).
	PermanentlyBlocked
	TemporarilyUnavailable
)

const (
	maxSendAttempts = 4
	retryBaseDelay  = 500 * time.Millisecond

	// Pause between batch items so large batches do not trip the flood
	// limiter in the first place.
	batchSendDelay = 150 * time.Millisecond
)

// copyMessage copies a stored channel message to a target chat. It goes
// through the raw API because the typed copyMessage config predates the
// protect_content parameter.
func (b *Bot) copyMessage(targetChat, fromChat int64, messageID int, caption string) (int, error) {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", targetChat)
	params.AddNonZero64("from_chat_id", fromChat)
	params.AddNonZero("message_id", messageID)
	params.AddNonEmpty("caption", caption)
	if caption != "" {
		params.AddNonEmpty("parse_mode", tgbotapi.ModeMarkdown)
	}
	params.AddBool("protect_content", b.cfg.ProtectContent)

	resp, err := b.api.MakeRequest("copyMessage", params)
	if err != nil {
		return 0, err
	}
	var sent tgbotapi.MessageID
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return 0, fmt.Errorf("decode copyMessage response: %w", err)
	}
	return sent.MessageID, nil
}

// copyWithRetry wraps copyMessage with bounded flood-wait backoff.
// Non-flood errors are returned immediately.
func (b *Bot) copyWithRetry(ctx context.Context, targetChat, fromChat int64, messageID int, caption string) (int, error) {
	var sentID int
	backoff := retry.WithMaxRetries(maxSendAttempts, retry.NewExponential(retryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := b.copyMessage(targetChat, fromChat, messageID, caption)
		if err == nil {
			sentID = id
			return nil
		}
		if wait, ok := floodWait(err); ok {
			b.logger.Warn("flood wait", "chat", targetChat, "wait", wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		return err
	})
	return sentID, err
}

// deliverFile copies a stored file to the user and schedules its
// auto-deletion when the registry has the timer enabled.
func (b *Bot) deliverFile(ctx context.Context, chatID int64, rec domain.FileRecord) {
	sentID, err := b.copyWithRetry(ctx, chatID, rec.ChannelID, rec.MessageID, fileCaption(rec))
	if err != nil {
		b.logger.Error("failed to deliver file", "key", rec.Key, "chat", chatID, "error", err)
		b.reply(chatID, "❌ File not found or no longer available!")
		return
	}
	b.scheduleAutoDelete(chatID, []int{sentID})
}

// deliverBatch copies every member of a batch in order. Failures on
// individual members are skipped so one missing message does not sink
// the rest.
func (b *Bot) deliverBatch(ctx context.Context, chatID int64, batch domain.BatchRecord) {
	b.reply(chatID, fmt.Sprintf("📦 Sending %d files...", batch.TotalFiles))

	var sent []int
	for i, key := range batch.FileKeys {
		rec, err := b.store.Catalog().GetFile(key)
		if err != nil {
			b.logger.Warn("batch member missing", "batch", batch.Key, "file", key)
			continue
		}

		caption := fmt.Sprintf("📁 File %d/%d", i+1, batch.TotalFiles)
		if rec.Name != "" {
			caption = fmt.Sprintf("📁 File %d/%d: `%s`", i+1, batch.TotalFiles, rec.Name)
		}
		sentID, err := b.copyWithRetry(ctx, chatID, rec.ChannelID, rec.MessageID, caption)
		if err != nil {
			b.logger.Warn("failed to deliver batch member", "batch", batch.Key, "file", key, "error", err)
			continue
		}
		sent = append(sent, sentID)

		select {
		case <-time.After(batchSendDelay):
		case <-ctx.Done():
			return
		}
	}

	if len(sent) == 0 {
		b.reply(chatID, "❌ None of the batch files are available anymore!")
		return
	}
	b.scheduleAutoDelete(chatID, sent)
}

// scheduleAutoDelete queues delivered messages for deletion after the
// configured TTL and tells the user when that will happen.
func (b *Bot) scheduleAutoDelete(chatID int64, messageIDs []int) {
	reg := b.store.Registry()
	if !reg.AutoDeleteEnabled() || len(messageIDs) == 0 {
		return
	}
	ttl := time.Duration(reg.AutoDeleteSeconds()) * time.Second
	for _, id := range messageIDs {
		b.deletes.schedule(chatID, id, ttl)
	}
	b.reply(chatID, fmt.Sprintf("⏳ These files will be deleted in %s. Save them somewhere safe!", fmtDuration(ttl)))
}

func fileCaption(rec domain.FileRecord) string {
	if rec.Name == "" {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📁 *File Name:* `%s`", rec.Name)
	if rec.SizeHuman != "" {
		fmt.Fprintf(&sb, "\n📊 *Size:* %s", rec.SizeHuman)
	}
	if !rec.UploadedAt.IsZero() {
		fmt.Fprintf(&sb, "\n📅 *Uploaded:* %s", rec.UploadedAt.Format("2006-01-02 15:04"))
	}
	return sb.String()
}

// floodWait extracts the server-mandated wait from a rate-limit error.
func floodWait(err error) (time.Duration, bool) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	return 0, false
}

// classifyDelivery maps a send error to a delivery status.
func classifyDelivery(err error) DeliveryStatus {
	if err == nil {
		return Delivered
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		if strings.Contains(msg, "blocked") ||
			strings.Contains(msg, "deactivated") ||
			strings.Contains(msg, "chat not found") {
			return PermanentlyBlocked
		}
	}
	return TemporarilyUnavailable
}

// fmtDuration renders a duration as a compact "1d 2h 3m 4s" string.
func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	var parts []string
	if days := d / (24 * time.Hour); days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
		d -= days * 24 * time.Hour
	}
	if h := d / time.Hour; h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
		d -= m * time.Minute
	}
	if s := d / time.Second; s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}

// redeem resolves a start payload and delivers what it points to.
func (b *Bot) redeem(ctx context.Context, chatID int64, payload string) {
	res, err := b.store.Redeem(payload)
	switch {
	case errors.Is(err, domain.ErrMalformedToken):
		b.reply(chatID, "❌ Invalid link!")
		return
	case errors.Is(err, domain.ErrNotFound):
		b.reply(chatID, "❌ File not found or the link has expired!")
		return
	case err != nil:
		b.logger.Error("failed to redeem token", "error", err)
		b.reply(chatID, "❌ Something went wrong, try again later.")
		return
	}

	if res.File != nil {
		b.deliverFile(ctx, chatID, *res.File)
		return
	}
	b.deliverBatch(ctx, chatID, *res.Batch)
}
