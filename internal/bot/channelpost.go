package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/codeflix/filestore-bot/internal/domain"
)

// handleChannelPost watches the storage channel. Media posted there is
// registered automatically as a system entry, and a "#genlink" reply to
// an earlier post mints a link for that post on demand.
func (b *Bot) handleChannelPost(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != b.cfg.ChannelID {
		return
	}

	if strings.Contains(msg.Text, "#genlink") && msg.ReplyToMessage != nil {
		b.handleHashtagGenLink(ctx, msg)
		return
	}

	meta, ok := mediaMeta(msg)
	if !ok {
		return
	}
	meta.Provenance = domain.Provenance{AutoGenerated: true}

	key := b.store.RegisterMedia(0, msg.Chat.ID, msg.MessageID, meta)
	link := b.store.ShareLink(ctx, key)
	b.logger.Info("registered channel post", "key", key, "link", link)

	// Put the link right under the post for whoever manages the channel.
	out := tgbotapi.NewMessage(msg.Chat.ID, "🔗 "+link)
	out.ReplyToMessageID = msg.MessageID
	out.DisableWebPagePreview = true
	if _, err := b.api.Send(out); err != nil {
		b.logger.Warn("failed to post link reply", "error", err)
	}
}

func (b *Bot) handleHashtagGenLink(ctx context.Context, msg *tgbotapi.Message) {
	meta, ok := mediaMeta(msg.ReplyToMessage)
	if !ok {
		return
	}
	meta.Provenance = domain.Provenance{HashtagTriggered: true}

	key := b.store.RegisterMedia(0, msg.Chat.ID, msg.ReplyToMessage.MessageID, meta)
	link := b.store.ShareLink(ctx, key)

	out := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("🔗 Link for the replied post:\n%s", link))
	out.ReplyToMessageID = msg.ReplyToMessage.MessageID
	out.DisableWebPagePreview = true
	if _, err := b.api.Send(out); err != nil {
		b.logger.Warn("failed to send hashtag link", "error", err)
	}
}
