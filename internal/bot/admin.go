package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/codeflix/filestore-bot/internal/domain"
	"github.com/codeflix/filestore-bot/internal/policy"
	"github.com/codeflix/filestore-bot/internal/registry"
)

const banListDisplayCap = 20

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	stats := b.store.Registry().Stats()
	counters := b.store.Catalog().Counters()

	text := fmt.Sprintf("📊 *Bot Statistics*\n\n"+
		"👥 Users: %d\n"+
		"🚫 Banned: %d\n"+
		"👮 Admins: %d\n"+
		"📢 Force-sub channels: %d\n\n"+
		"📁 Files stored: %d (all-time %d)\n"+
		"📦 Batches stored: %d (all-time %d)\n\n"+
		"🔐 Force-sub: %s\n"+
		"🗑 Auto-delete: %s (%s)\n"+
		"⏱ Uptime: %s",
		stats.KnownUsers, stats.BannedUsers, stats.Admins, stats.Channels,
		counters.CurrentFiles, counters.TotalFiles,
		counters.CurrentBatches, counters.TotalBatches,
		onOff(stats.ForceSubEnabled),
		onOff(stats.AutoDeleteEnabled), fmtDuration(secondsToDuration(stats.AutoDeleteSeconds)),
		fmtDuration(stats.Uptime))
	b.reply(msg.Chat.ID, text)
}

func (b *Bot) handleUsers(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID, fmt.Sprintf("👥 *%d* users have used this bot.", b.store.Registry().CountKnown()))
}

func (b *Bot) handleBanUnban(msg *tgbotapi.Message) {
	id, err := argID(msg)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Usage: `/%s <user_id>`", msg.Command()))
		return
	}

	reg := b.store.Registry()
	if msg.Command() == "unban" {
		reg.Unban(id)
		b.reply(msg.Chat.ID, fmt.Sprintf("✅ User `%d` unbanned.", id))
		return
	}

	// Admins are demoted before banning, not banned implicitly.
	if reg.IsAdmin(id) && id != reg.OwnerID() {
		b.reply(msg.Chat.ID, "❌ Remove admin rights first with /deladmin.")
		return
	}
	if err := reg.Ban(id); err != nil {
		if errors.Is(err, domain.ErrProtectedEntity) {
			b.reply(msg.Chat.ID, "❌ The owner cannot be banned!")
			return
		}
		b.logger.Error("failed to ban user", "user", id, "error", err)
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("🚫 User `%d` banned.", id))
}

func (b *Bot) handleBanList(msg *tgbotapi.Message) {
	banned := b.store.Registry().ListBanned()
	if len(banned) == 0 {
		b.reply(msg.Chat.ID, "✅ Nobody is banned.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🚫 *Banned users (%d):*\n", len(banned))
	for i, id := range banned {
		if i == banListDisplayCap {
			fmt.Fprintf(&sb, "… and %d more", len(banned)-banListDisplayCap)
			break
		}
		fmt.Fprintf(&sb, "• `%d`\n", id)
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleManageAdmins(msg *tgbotapi.Message) {
	id, err := argID(msg)
	if err != nil {
		b.reply(msg.Chat.ID, fmt.Sprintf("Usage: `/%s <user_id>`", msg.Command()))
		return
	}

	reg := b.store.Registry()
	if msg.Command() == "add_admin" {
		reg.AddAdmin(id)
		b.reply(msg.Chat.ID, fmt.Sprintf("✅ User `%d` is now an admin.", id))
		return
	}
	if err := reg.RemoveAdmin(id); err != nil {
		if errors.Is(err, domain.ErrProtectedEntity) {
			b.reply(msg.Chat.ID, "❌ The owner's admin rights cannot be removed!")
			return
		}
		b.logger.Error("failed to remove admin", "user", id, "error", err)
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ User `%d` is no longer an admin.", id))
}

func (b *Bot) handleAdmins(msg *tgbotapi.Message) {
	reg := b.store.Registry()
	var sb strings.Builder
	sb.WriteString("👮 *Admins:*\n")
	for _, id := range reg.ListAdmins() {
		if id == reg.OwnerID() {
			fmt.Fprintf(&sb, "• `%d` 👑\n", id)
			continue
		}
		fmt.Fprintf(&sb, "• `%d`\n", id)
	}
	b.reply(msg.Chat.ID, sb.String())
}

// handleAddChannel accepts a numeric channel id or a t.me link and adds
// the channel to the force-subscription list after verifying the bot
// can actually see it.
func (b *Bot) handleAddChannel(msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		b.reply(msg.Chat.ID, "Usage: `/addchnl <channel_id or t.me link>`")
		return
	}

	var channelID int64
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		channelID = id
	} else {
		ref, err := parseChannelLink(arg)
		if err != nil {
			b.reply(msg.Chat.ID, "❌ Invalid channel id or link!")
			return
		}
		channelID, err = b.resolveChat(ref)
		if err != nil {
			b.reply(msg.Chat.ID, "❌ I can't access that channel. Am I an admin there?")
			return
		}
	}

	if _, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	}); err != nil {
		b.reply(msg.Chat.ID, "❌ I can't access that channel. Am I an admin there?")
		return
	}

	b.store.Registry().AddChannel(channelID)
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Channel `%d` added to force-sub list.", channelID))
}

func (b *Bot) handleDelChannel(msg *tgbotapi.Message) {
	id, err := argID(msg)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: `/delchnl <channel_id>`")
		return
	}
	b.store.Registry().RemoveChannel(id)
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Channel `%d` removed from force-sub list.", id))
}

func (b *Bot) handleListChannels(msg *tgbotapi.Message) {
	channels := b.store.Registry().ListChannels()
	if len(channels) == 0 {
		b.reply(msg.Chat.ID, "📢 No force-sub channels configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📢 *Force-sub channels:*\n")
	for _, id := range channels {
		title := ""
		if chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: id},
		}); err == nil {
			title = chat.Title
		}
		if title != "" {
			fmt.Fprintf(&sb, "• `%d` (%s)\n", id, title)
		} else {
			fmt.Fprintf(&sb, "• `%d`\n", id)
		}
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleForceSubMode(msg *tgbotapi.Message) {
	reg := b.store.Registry()
	enabled := !reg.ForceSubEnabled()
	reg.SetForceSubEnabled(enabled)
	b.reply(msg.Chat.ID, fmt.Sprintf("🔐 Force-sub is now *%s*.", onOff(enabled)))
}

func (b *Bot) handleSetDeleteTime(msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	reg := b.store.Registry()

	if arg == "" {
		enabled := !reg.AutoDeleteEnabled()
		reg.SetAutoDeleteEnabled(enabled)
		b.reply(msg.Chat.ID, fmt.Sprintf("🗑 Auto-delete is now *%s*.", onOff(enabled)))
		return
	}

	seconds, err := strconv.Atoi(arg)
	if err != nil {
		b.reply(msg.Chat.ID, "Usage: `/dlt_time [seconds]`")
		return
	}
	if err := reg.SetAutoDeleteSeconds(seconds); err != nil {
		if errors.Is(err, domain.ErrInvalidValue) {
			b.reply(msg.Chat.ID, fmt.Sprintf("❌ Minimum auto-delete time is %d seconds!", registry.MinAutoDeleteSeconds))
			return
		}
		b.logger.Error("failed to set auto-delete time", "error", err)
		return
	}
	reg.SetAutoDeleteEnabled(true)
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Auto-delete time set to %s.", fmtDuration(secondsToDuration(seconds))))
}

func (b *Bot) handleCheckDeleteTime(msg *tgbotapi.Message) {
	reg := b.store.Registry()
	b.reply(msg.Chat.ID, fmt.Sprintf("🗑 Auto-delete: *%s*, TTL %s.",
		onOff(reg.AutoDeleteEnabled()),
		fmtDuration(secondsToDuration(reg.AutoDeleteSeconds()))))
}

// handleDropUnsubscribed walks the known users and forgets everyone who
// left all force-sub channels. Lookup errors skip the user rather than
// dropping them.
func (b *Bot) handleDropUnsubscribed(ctx context.Context, msg *tgbotapi.Message) {
	reg := b.store.Registry()
	channels := reg.ListChannels()
	if len(channels) == 0 {
		b.reply(msg.Chat.ID, "📢 No force-sub channels configured.")
		return
	}

	removed := 0
	for _, userID := range reg.ListKnown() {
		subscribed := false
		for _, channelID := range channels {
			status, err := b.MemberStatus(ctx, channelID, userID)
			if err != nil || status == policy.StatusMember {
				subscribed = true
				break
			}
		}
		if !subscribed {
			b.store.RemoveUser(userID)
			removed++
		}
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Removed %d users who left the channels.", removed))
}

func argID(msg *tgbotapi.Message) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
