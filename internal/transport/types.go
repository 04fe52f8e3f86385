package transport

import (
	"context"
	"fmt"
)

// Parse modes understood by the Telegram Bot API.
const (
	ParseModeHTML = "HTML"
	ParseModeNone = ""
)

// ChatTarget addresses a chat (numeric id or "@channel") and an optional
// forum topic thread.
type ChatTarget struct {
	ChatID   string
	ThreadID int // telegram forum topic thread id (0 if none)
}

func (t ChatTarget) IsZero() bool { return t.ChatID == "" }

type MessageRef struct {
	ChatID    string
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender sends text using the transport's default credentials.
// The log alert sink only needs this much.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}

// Deliverer sends text with explicit credentials. Report delivery re-reads
// the bot token from settings on every attempt, so it cannot rely on a
// token fixed at construction time.
type Deliverer interface {
	Deliver(ctx context.Context, token string, to ChatTarget, text string) error
}

// PartialDeliveryError means a message was split into Total parts and only
// the first Sent were accepted. The recipient has already seen part of it.
type PartialDeliveryError struct {
	Sent, Total int
	Err         error
}

func (e *PartialDeliveryError) Error() string {
	return fmt.Sprintf("delivered %d of %d parts: %v", e.Sent, e.Total, e.Err)
}

func (e *PartialDeliveryError) Unwrap() error { return e.Err }
