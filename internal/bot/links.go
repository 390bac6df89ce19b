package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatRef identifies a channel either by numeric id or by public
// username; exactly one field is set.
type chatRef struct {
	id       int64
	username string
}

// parsePostLink parses a t.me message link into a chat reference and a
// message id. Private channel links (t.me/c/<internal>/<msg>) map to the
// -100-prefixed channel id; public links carry the username.
func parsePostLink(link string) (chatRef, int, error) {
	ref, rest, err := splitChannelLink(link)
	if err != nil {
		return chatRef{}, 0, err
	}
	if rest == "" {
		return chatRef{}, 0, fmt.Errorf("link %q has no message id", link)
	}
	messageID, err := strconv.Atoi(rest)
	if err != nil || messageID <= 0 {
		return chatRef{}, 0, fmt.Errorf("link %q has an invalid message id", link)
	}
	return ref, messageID, nil
}

// parseChannelLink parses a t.me channel link without a message part.
func parseChannelLink(link string) (chatRef, error) {
	ref, rest, err := splitChannelLink(link)
	if err != nil {
		return chatRef{}, err
	}
	if rest != "" {
		return chatRef{}, fmt.Errorf("link %q is a post link, not a channel link", link)
	}
	return ref, nil
}

func splitChannelLink(link string) (chatRef, string, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	trimmed = strings.TrimPrefix(trimmed, "t.me/")
	if trimmed == link {
		return chatRef{}, "", fmt.Errorf("link %q is not a t.me link", link)
	}
	trimmed = strings.TrimSuffix(trimmed, "/")

	if internal, ok := strings.CutPrefix(trimmed, "c/"); ok {
		chanPart, rest, _ := strings.Cut(internal, "/")
		id, err := strconv.ParseInt("-100"+chanPart, 10, 64)
		if err != nil {
			return chatRef{}, "", fmt.Errorf("link %q has an invalid channel id", link)
		}
		return chatRef{id: id}, rest, nil
	}

	username, rest, _ := strings.Cut(trimmed, "/")
	if username == "" || !validUsername(username) {
		return chatRef{}, "", fmt.Errorf("link %q has an invalid channel username", link)
	}
	return chatRef{username: username}, rest, nil
}

func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// resolveChat turns a chat reference into a numeric channel id, going
// through getChat for username references.
func (b *Bot) resolveChat(ref chatRef) (int64, error) {
	if ref.id != 0 {
		return ref.id, nil
	}
	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + ref.username},
	})
	if err != nil {
		return 0, fmt.Errorf("resolve @%s: %w", ref.username, err)
	}
	return chat.ID, nil
}
