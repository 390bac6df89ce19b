// Package bot is the Telegram transport: it turns updates into calls
// against the service layer and delivers stored media back to users.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/codeflix/filestore-bot/internal/config"
	"github.com/codeflix/filestore-bot/internal/policy"
	"github.com/codeflix/filestore-bot/internal/service"
)

// Outbound API calls share one bounded HTTP client so no handler can
// stall indefinitely on the transport.
const apiClientTimeout = 90 * time.Second

var genlinkRequestRe = regexp.MustCompile(`(?i)(?:generate|create|make|gen)\s+(?:link|url)`)

// Bot wires the Telegram API to the service layer.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	store   *service.FileStore
	policy  *policy.Evaluator
	logger  *log.Logger
	deletes *deleteQueue
}

// New authenticates against Telegram and builds the Bot.
func New(cfg *config.Config, store *service.FileStore, logger *log.Logger) (*Bot, error) {
	client := &http.Client{Timeout: apiClientTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("authorized", "username", api.Self.UserName)
	store.SetBotUsername(api.Self.UserName)

	b := &Bot{
		api:    api,
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
	b.policy = policy.NewEvaluator(store.Registry(), b)
	b.deletes = newDeleteQueue(api, logger)
	return b, nil
}

// Start consumes updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go b.deletes.run(ctx)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.ChannelPost != nil:
		b.handleChannelPost(ctx, update.ChannelPost)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		if genlinkRequestRe.MatchString(msg.Text) {
			b.handleGroupGenLink(ctx, msg)
		}
		return
	}
	if !msg.Chat.IsPrivate() {
		return
	}

	b.store.RegisterUser(msg.From.ID)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if _, ok := mediaMeta(msg); ok {
		b.handleUpload(ctx, msg)
		return
	}
	if genlinkRequestRe.MatchString(msg.Text) {
		b.sendGenLinkHelp(msg.Chat.ID, msg.From.ID)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "genlink":
		b.adminOnly(msg, func() { b.handleGenLink(ctx, msg) })
	case "link":
		b.adminOnly(msg, func() { b.handleLinkReply(ctx, msg) })
	case "batch":
		b.adminOnly(msg, func() { b.handleBatch(ctx, msg) })
	case "custom_batch":
		b.adminOnly(msg, func() { b.handleCustomBatch(ctx, msg) })
	case "stats":
		b.adminOnly(msg, func() { b.handleStats(msg) })
	case "users":
		b.adminOnly(msg, func() { b.handleUsers(msg) })
	case "ban", "unban":
		b.adminOnly(msg, func() { b.handleBanUnban(msg) })
	case "banlist":
		b.adminOnly(msg, func() { b.handleBanList(msg) })
	case "add_admin", "deladmin":
		b.ownerOnly(msg, func() { b.handleManageAdmins(msg) })
	case "admins":
		b.adminOnly(msg, func() { b.handleAdmins(msg) })
	case "addchnl":
		b.adminOnly(msg, func() { b.handleAddChannel(msg) })
	case "delchnl":
		b.adminOnly(msg, func() { b.handleDelChannel(msg) })
	case "listchnl":
		b.adminOnly(msg, func() { b.handleListChannels(msg) })
	case "fsub_mode":
		b.adminOnly(msg, func() { b.handleForceSubMode(msg) })
	case "dlt_time":
		b.adminOnly(msg, func() { b.handleSetDeleteTime(msg) })
	case "check_dlt_time":
		b.adminOnly(msg, func() { b.handleCheckDeleteTime(msg) })
	case "delreq":
		b.adminOnly(msg, func() { b.handleDropUnsubscribed(ctx, msg) })
	case "broadcast":
		b.adminOnly(msg, func() { b.handleBroadcast(ctx, msg, false) })
	case "dbroadcast":
		b.adminOnly(msg, func() { b.handleBroadcast(ctx, msg, true) })
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	decision := b.policy.Evaluate(ctx, msg.From.ID)
	switch decision.Code {
	case policy.DeniedBanned:
		b.reply(msg.Chat.ID, "⚠️ You are banned from using this bot!")
		return
	case policy.DeniedNotSubscribed:
		b.sendForceSubGate(msg.Chat.ID, decision.Channel)
		return
	}

	if payload := msg.CommandArguments(); payload != "" {
		b.redeem(ctx, msg.Chat.ID, payload)
		return
	}

	b.reply(msg.Chat.ID, renderStartMessage(b.cfg.StartMessage, msg.From.FirstName, msg.From.ID))
}

// sendForceSubGate tells a gated user which channel to join, with a
// best-effort join link and a refresh button.
func (b *Bot) sendForceSubGate(chatID, channelID int64) {
	text := "⚠️ You must join our channel to use this bot!\n\n" +
		"👆 Join and then press Refresh."

	rows := [][]tgbotapi.InlineKeyboardButton{}
	if link := b.channelJoinLink(channelID); link != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 Join Channel", link)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "refresh_fsub")))

	out := tgbotapi.NewMessage(chatID, text)
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send force-sub gate", "error", err)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Data != "refresh_fsub" || cq.From == nil {
		return
	}

	decision := b.policy.Evaluate(ctx, cq.From.ID)
	if decision.Code != policy.Allowed {
		b.answerCallback(cq.ID, "❌ You still haven't joined the channel!")
		return
	}

	b.answerCallback(cq.ID, "✅ Subscription verified!")
	if cq.Message != nil {
		del := tgbotapi.NewDeleteMessage(cq.Message.Chat.ID, cq.Message.MessageID)
		if _, err := b.api.Request(del); err != nil {
			b.logger.Error("failed to delete gate message", "error", err)
		}
		b.reply(cq.Message.Chat.ID, renderStartMessage(b.cfg.StartMessage, cq.From.FirstName, cq.From.ID))
	}
}

// MemberStatus implements policy.MembershipChecker over getChatMember.
func (b *Bot) MemberStatus(_ context.Context, channelID, userID int64) (policy.MemberStatus, error) {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: channelID, UserID: userID},
	})
	if err != nil {
		return policy.StatusUnknown, fmt.Errorf("get chat member: %w", err)
	}
	switch member.Status {
	case "kicked":
		return policy.StatusKicked, nil
	case "left":
		return policy.StatusLeft, nil
	case "creator", "administrator", "member", "restricted":
		return policy.StatusMember, nil
	default:
		return policy.StatusUnknown, nil
	}
}

// channelJoinLink returns a t.me link for the channel, or "" when none
// can be derived.
func (b *Bot) channelJoinLink(channelID int64) string {
	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		b.logger.Error("failed to fetch channel info", "channel", channelID, "error", err)
		return ""
	}
	if chat.UserName != "" {
		return "https://t.me/" + chat.UserName
	}
	return chat.InviteLink
}

func (b *Bot) adminOnly(msg *tgbotapi.Message, fn func()) {
	if !b.store.Registry().IsAdmin(msg.From.ID) {
		b.reply(msg.Chat.ID, "❌ Only admins can use this command!")
		return
	}
	fn()
}

func (b *Bot) ownerOnly(msg *tgbotapi.Message, fn func()) {
	if msg.From.ID != b.store.Registry().OwnerID() {
		b.reply(msg.Chat.ID, "❌ Only the owner can use this command!")
		return
	}
	fn()
}

func (b *Bot) reply(chatID int64, text string) {
	b.replyWithMarkup(chatID, text, nil)
}

func (b *Bot) replyWithMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.DisableWebPagePreview = true
	if markup != nil {
		out.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send message", "chat", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Error("failed to answer callback", "error", err)
	}
}

func (b *Bot) sendGenLinkHelp(chatID int64, userID int64) {
	if !b.store.Registry().IsAdmin(userID) {
		b.reply(chatID, "❌ Only admins can generate links!")
		return
	}
	b.reply(chatID, "📝 *Link Generation Commands:*\n\n"+
		"🔗 `/genlink <channel_post_link>`\n"+
		"📦 `/batch <channel_link> <first_id> <last_id>`\n"+
		"🎯 `/custom_batch <channel_link> <msg_ids>`\n"+
		"📤 Or send any media file directly.")
}

func renderStartMessage(tpl, firstName string, userID int64) string {
	return strings.NewReplacer(
		"{first_name}", firstName,
		"{user_id}", strconv.FormatInt(userID, 10),
		"{mention}", fmt.Sprintf("[%s](tg://user?id=%d)", firstName, userID),
	).Replace(tpl)
}
