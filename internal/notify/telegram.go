// Package notify delivers run summaries through the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobscout/scout-service/internal/model"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	// Telegram rejects messages over 4096 characters; longer bodies are
	// split at paragraph boundaries.
	maxMessageLen = 4096

	sendTimeout = 30 * time.Second
)

// Telegram sends messages to a single configured chat. Best-effort by
// contract: callers treat a returned error as a logged degradation, never a
// run failure.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegram constructs a sender bound to one recipient chat.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramBaseURL,
		client:   &http.Client{Timeout: sendTimeout},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send delivers text to the configured chat, chunking when necessary.
func (t *Telegram) Send(ctx context.Context, text string) error {
	for _, chunk := range SplitMessage(text, maxMessageLen) {
		if err := t.sendOne(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) sendOne(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SplitMessage splits text into chunks of at most maxLen characters,
// preferring paragraph boundaries. A single paragraph longer than maxLen is
// hard-cut.
func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current string
	for _, para := range strings.Split(text, "\n\n") {
		for len(para) > maxLen {
			// Rune-safe cut; already-invalid text falls back to a byte cut.
			head := model.Truncate(para, maxLen)
			if head == "" {
				head = para[:maxLen]
			}
			chunks = append(chunks, flushChunk(&current), head)
			para = para[len(head):]
		}
		switch {
		case current == "":
			current = para
		case len(current)+len(para)+2 > maxLen:
			chunks = append(chunks, strings.TrimSpace(current))
			current = para
		default:
			current += "\n\n" + para
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	// Drop empties introduced by flushing.
	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func flushChunk(current *string) string {
	c := strings.TrimSpace(*current)
	*current = ""
	return c
}
