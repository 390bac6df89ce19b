package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const broadcastWorkers = 8

// handleBroadcast copies the replied-to message to every known,
// non-banned user. Recipients who permanently blocked the bot are
// forgotten. With withAutoDelete the delivered copies are queued for
// deletion after the configured TTL.
func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message, withAutoDelete bool) {
	if msg.ReplyToMessage == nil {
		b.reply(msg.Chat.ID, "Reply to the message you want to broadcast.")
		return
	}

	reg := b.store.Registry()
	var targets []int64
	for _, id := range reg.ListKnown() {
		if !reg.IsBanned(id) {
			targets = append(targets, id)
		}
	}
	if len(targets) == 0 {
		b.reply(msg.Chat.ID, "👥 Nobody to broadcast to yet.")
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("📣 Broadcasting to %d users...", len(targets)))
	started := time.Now()

	ttl := time.Duration(reg.AutoDeleteSeconds()) * time.Second
	var delivered, blocked, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastWorkers)
	for _, userID := range targets {
		userID := userID
		g.Go(func() error {
			sentID, err := b.copyWithRetry(gctx, userID, msg.Chat.ID, msg.ReplyToMessage.MessageID, "")
			switch classifyDelivery(err) {
			case Delivered:
				delivered.Add(1)
				if withAutoDelete {
					b.deletes.schedule(userID, sentID, ttl)
				}
			case PermanentlyBlocked:
				blocked.Add(1)
				b.store.RemoveUser(userID)
			default:
				failed.Add(1)
				b.logger.Warn("broadcast delivery failed", "user", userID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := fmt.Sprintf("✅ *Broadcast finished* in %s\n\n"+
		"📬 Delivered: %d\n"+
		"🚫 Blocked/deleted: %d\n"+
		"⚠️ Failed: %d",
		fmtDuration(time.Since(started)), delivered.Load(), blocked.Load(), failed.Load())
	if withAutoDelete {
		report += fmt.Sprintf("\n🗑 Copies self-destruct in %s.", fmtDuration(ttl))
	}
	b.reply(msg.Chat.ID, report)
}
