package bot

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/codeflix/filestore-bot/internal/domain"
	"github.com/codeflix/filestore-bot/internal/service"
)

// Range caps keep one command from registering an unbounded number of
// references.
const (
	maxBatchRange  = 200
	maxCustomBatch = 100
)

// handleUpload forwards privately sent media to the storage channel and
// replies with a share link.
func (b *Bot) handleUpload(ctx context.Context, msg *tgbotapi.Message) {
	meta, ok := mediaMeta(msg)
	if !ok {
		return
	}
	if meta.Size > b.cfg.MaxFileSize {
		b.reply(msg.Chat.ID, "❌ File is too large to store!")
		return
	}

	forwarded, err := b.api.Send(tgbotapi.NewForward(b.cfg.ChannelID, msg.Chat.ID, msg.MessageID))
	if err != nil {
		b.logger.Error("failed to forward to storage channel", "error", err)
		b.reply(msg.Chat.ID, "❌ Could not store the file, try again later.")
		return
	}

	key := b.store.RegisterMedia(msg.From.ID, b.cfg.ChannelID, forwarded.MessageID, meta)
	b.sendShareLink(ctx, msg.Chat.ID, key, meta.Name)
}

// handleGenLink registers a reference to an existing channel post. The
// Bot API cannot read arbitrary channel messages, so the reference
// carries no media metadata; delivery only needs the channel and
// message ids.
func (b *Bot) handleGenLink(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.reply(msg.Chat.ID, "Usage: `/genlink <channel_post_link>`")
		return
	}

	ref, messageID, err := parsePostLink(args[0])
	if err != nil {
		b.reply(msg.Chat.ID, "❌ That doesn't look like a valid post link!")
		return
	}
	channelID, err := b.resolveChat(ref)
	if err != nil {
		b.logger.Error("failed to resolve channel", "error", err)
		b.reply(msg.Chat.ID, "❌ I can't access that channel. Am I an admin there?")
		return
	}

	key := b.store.RegisterMedia(msg.From.ID, channelID, messageID,
		service.MediaMeta{Kind: domain.MediaUnknown})
	b.sendShareLink(ctx, msg.Chat.ID, key, "")
}

// handleLinkReply generates a link for a forwarded channel post the
// admin replied to. Unlike /genlink the forwarded copy is in hand, so
// full metadata is captured.
func (b *Bot) handleLinkReply(ctx context.Context, msg *tgbotapi.Message) {
	replied := msg.ReplyToMessage
	if replied == nil || replied.ForwardFromChat == nil || replied.ForwardFromMessageID == 0 {
		b.reply(msg.Chat.ID, "Reply to a message forwarded from a channel with `/link`.")
		return
	}

	meta, ok := mediaMeta(replied)
	if !ok {
		b.reply(msg.Chat.ID, "❌ The replied message carries no media!")
		return
	}

	key := b.store.RegisterMedia(msg.From.ID, replied.ForwardFromChat.ID, replied.ForwardFromMessageID, meta)
	b.sendShareLink(ctx, msg.Chat.ID, key, meta.Name)
}

// handleBatch registers a contiguous range of channel posts as one
// batch link.
func (b *Bot) handleBatch(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 3 {
		b.reply(msg.Chat.ID, "Usage: `/batch <channel_link> <first_id> <last_id>`")
		return
	}

	ref, err := parseChannelLink(args[0])
	if err != nil {
		b.reply(msg.Chat.ID, "❌ That doesn't look like a valid channel link!")
		return
	}
	first, err1 := strconv.Atoi(args[1])
	last, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || first <= 0 || last < first {
		b.reply(msg.Chat.ID, "❌ Invalid message id range!")
		return
	}
	if last-first+1 > maxBatchRange {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ A batch can span at most %d messages!", maxBatchRange))
		return
	}

	channelID, err := b.resolveChat(ref)
	if err != nil {
		b.logger.Error("failed to resolve channel", "error", err)
		b.reply(msg.Chat.ID, "❌ I can't access that channel. Am I an admin there?")
		return
	}

	var ids []int
	for id := first; id <= last; id++ {
		ids = append(ids, id)
	}
	b.commitBatch(ctx, msg, channelID, ids, 0)
}

// handleCustomBatch registers an explicit, possibly non-contiguous list
// of channel posts as one batch link. Ids are deduplicated and sorted.
func (b *Bot) handleCustomBatch(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.reply(msg.Chat.ID, "Usage: `/custom_batch <channel_link> <msg_id> [msg_id ...]`")
		return
	}

	ref, err := parseChannelLink(args[0])
	if err != nil {
		b.reply(msg.Chat.ID, "❌ That doesn't look like a valid channel link!")
		return
	}

	seen := make(map[int]struct{})
	var ids []int
	for _, raw := range args[1:] {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	if len(ids) == 0 {
		b.reply(msg.Chat.ID, "❌ No valid message ids given!")
		return
	}
	if len(ids) > maxCustomBatch {
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ A custom batch can hold at most %d messages!", maxCustomBatch))
		return
	}

	channelID, err := b.resolveChat(ref)
	if err != nil {
		b.logger.Error("failed to resolve channel", "error", err)
		b.reply(msg.Chat.ID, "❌ I can't access that channel. Am I an admin there?")
		return
	}
	b.commitBatch(ctx, msg, channelID, ids, len(args[1:])-len(ids))
}

func (b *Bot) commitBatch(ctx context.Context, msg *tgbotapi.Message, channelID int64, messageIDs []int, skipped int) {
	keys := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		keys = append(keys, b.store.RegisterMedia(msg.From.ID, channelID, id,
			service.MediaMeta{Kind: domain.MediaUnknown}))
	}

	batchKey, err := b.store.CreateBatch(msg.From.ID, channelID,
		keys, messageIDs[0], messageIDs[len(messageIDs)-1], messageIDs)
	if err != nil {
		b.logger.Error("failed to create batch", "error", err)
		b.reply(msg.Chat.ID, "❌ Could not create the batch!")
		return
	}

	link := b.store.ShareLink(ctx, batchKey)
	text := fmt.Sprintf("✅ *Batch link generated!*\n\n📦 Files: %d", len(keys))
	if skipped > 0 {
		text += fmt.Sprintf(" (skipped %d invalid ids)", skipped)
	}
	text += "\n🔗 " + link
	b.replyWithMarkup(msg.Chat.ID, text, shareMarkup(link))
}

// handleGroupGenLink serves "gen link" requests in groups: an admin
// replies to a media message and the bot stores it.
func (b *Bot) handleGroupGenLink(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !b.store.Registry().IsAdmin(msg.From.ID) {
		return
	}
	replied := msg.ReplyToMessage
	if replied == nil {
		return
	}
	meta, ok := mediaMeta(replied)
	if !ok {
		return
	}
	meta.Provenance = domain.Provenance{FromGroup: true}

	forwarded, err := b.api.Send(tgbotapi.NewForward(b.cfg.ChannelID, msg.Chat.ID, replied.MessageID))
	if err != nil {
		b.logger.Error("failed to forward group media", "error", err)
		return
	}

	key := b.store.RegisterMedia(msg.From.ID, b.cfg.ChannelID, forwarded.MessageID, meta)
	link := b.store.ShareLink(ctx, key)
	out := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("🔗 Here is your link:\n%s", link))
	out.ReplyToMessageID = replied.MessageID
	out.DisableWebPagePreview = true
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send group link", "error", err)
	}
}

func (b *Bot) sendShareLink(ctx context.Context, chatID int64, key, name string) {
	link := b.store.ShareLink(ctx, key)

	text := "✅ *Link generated!*\n\n"
	if name != "" {
		text += fmt.Sprintf("📁 `%s`\n", name)
	}
	text += "🔗 " + link
	b.replyWithMarkup(chatID, text, shareMarkup(link))
}

func shareMarkup(link string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔁 Share URL",
				"https://telegram.me/share/url?url="+url.QueryEscape(link))))
	return &kb
}
