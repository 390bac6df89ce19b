package bot

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const deleteQueuePollInterval = time.Second

type pendingDelete struct {
	chatID    int64
	messageID int
	dueAt     time.Time
}

// deleteQueue deletes delivered messages after their TTL. A single
// worker drains due entries once per poll tick; deletion failures are
// logged and dropped, never retried.
type deleteQueue struct {
	api    *tgbotapi.BotAPI
	logger *log.Logger

	mu      sync.Mutex
	pending []pendingDelete

	now func() time.Time
}

func newDeleteQueue(api *tgbotapi.BotAPI, logger *log.Logger) *deleteQueue {
	return &deleteQueue{api: api, logger: logger, now: time.Now}
}

func (q *deleteQueue) schedule(chatID int64, messageID int, after time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, pendingDelete{
		chatID:    chatID,
		messageID: messageID,
		dueAt:     q.now().Add(after),
	})
}

func (q *deleteQueue) run(ctx context.Context) {
	ticker := time.NewTicker(deleteQueuePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, item := range q.takeDue() {
				del := tgbotapi.NewDeleteMessage(item.chatID, item.messageID)
				if _, err := q.api.Request(del); err != nil {
					q.logger.Warn("failed to delete delivered message",
						"chat", item.chatID, "message", item.messageID, "error", err)
				}
			}
		}
	}
}

// takeDue removes and returns every entry whose deadline has passed.
func (q *deleteQueue) takeDue() []pendingDelete {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var due []pendingDelete
	remaining := q.pending[:0]
	for _, item := range q.pending {
		if item.dueAt.After(now) {
			remaining = append(remaining, item)
			continue
		}
		due = append(due, item)
	}
	q.pending = remaining
	return due
}
