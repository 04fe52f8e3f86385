package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	kit "github.com/XaMcTeRzzz/taskmeneger/internal/transport"
	logx "github.com/XaMcTeRzzz/taskmeneger/pkg/logx"
)

const DefaultAPIURL = "https://api.telegram.org"

var (
	ErrNoToken = errors.New("telegram: bot token is not configured")
	ErrNoChat  = errors.New("telegram: chat id is not configured")
)

type Config struct {
	// Token is used by SendText. Deliver takes its token per call.
	Token string
	// APIURL overrides the Bot API endpoint (tests, local Bot API servers).
	APIURL string
	// Timeout bounds every HTTP call. Default 10s.
	Timeout time.Duration
	// RatePerSec caps outgoing messages. Default 1.
	RatePerSec int
	// HTTPClient replaces the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// BotInfo is what getMe reports about a token.
type BotInfo struct {
	ID        int64
	Username  string
	FirstName string
}

// Client delivers text messages through the Bot API. It keeps one offline
// telebot instance per token, so a token rotated in the config takes effect
// on the next call without a restart.
type Client struct {
	log logx.Logger

	mu      sync.Mutex
	cfg     Config
	http    *http.Client
	bots    map[string]*tele.Bot
	limiter *rate.Limiter
}

var (
	_ kit.Sender    = (*Client)(nil)
	_ kit.Deliverer = (*Client)(nil)
)

func New(cfg Config, log logx.Logger) *Client {
	c := &Client{log: log}
	c.Apply(cfg)
	return c
}

// Apply swaps settings at runtime. Cached bots are dropped when the endpoint
// or HTTP settings change.
func (c *Client) Apply(cfg Config) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.RatePerSec = max(1, cfg.RatePerSec)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bots == nil || cfg.APIURL != c.cfg.APIURL || cfg.Timeout != c.cfg.Timeout || cfg.HTTPClient != c.cfg.HTTPClient {
		c.bots = map[string]*tele.Bot{}
		c.http = cfg.HTTPClient
		if c.http == nil {
			c.http = &http.Client{Timeout: cfg.Timeout}
		}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	} else if cfg.RatePerSec != c.cfg.RatePerSec {
		c.limiter.SetLimit(rate.Limit(cfg.RatePerSec))
		c.limiter.SetBurst(cfg.RatePerSec)
	}
	c.cfg = cfg
}

func (c *Client) bot(token string) (*tele.Bot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bots[token]; ok {
		return b, nil
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     c.cfg.APIURL,
		Token:   token,
		Client:  c.http,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	c.bots[token] = b
	return b, nil
}

// Deliver sends an HTML message with the given token. A nil error means every
// chunk was accepted by Telegram.
func (c *Client) Deliver(ctx context.Context, token string, to kit.ChatTarget, text string) error {
	_, err := c.send(ctx, token, to, text, &kit.SendOptions{ParseMode: kit.ParseModeHTML, DisablePreview: true})
	return err
}

// SendText sends with the configured default token.
func (c *Client) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	c.mu.Lock()
	token := c.cfg.Token
	c.mu.Unlock()
	return c.send(ctx, token, to, text, opt)
}

func (c *Client) send(ctx context.Context, token string, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return kit.MessageRef{}, ErrNoToken
	}
	if to.IsZero() {
		return kit.MessageRef{}, ErrNoChat
	}
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	b, err := c.bot(token)
	if err != nil {
		return kit.MessageRef{}, fmt.Errorf("telegram: init bot: %w", err)
	}

	var first kit.MessageRef
	chunks := splitText(text, textLimit, opt.ParseMode)
	// Once a chunk is out the message cannot be unsent; later failures are
	// reported as partial so callers do not resend the whole text.
	fail := func(i int, err error) (kit.MessageRef, error) {
		if i == 0 {
			return first, err
		}
		return first, &kit.PartialDeliveryError{Sent: i, Total: len(chunks), Err: err}
	}
	for i, chunk := range chunks {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(i, err)
		}
		msg, err := b.Send(recipient(to.ChatID), chunk, &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return fail(i, fmt.Errorf("telegram: send chunk %d: %w", i+1, err))
		}
		if i == 0 && msg != nil {
			first = kit.MessageRef{ChatID: to.ChatID, ThreadID: to.ThreadID, MessageID: msg.ID}
		}
	}
	c.log.Debug("message sent", logx.String("chat_id", to.ChatID), logx.Int("message_id", first.MessageID))
	return first, nil
}

// Validate calls getMe with token. It returns ctx.Err() as soon as ctx is
// done; the request itself runs until the HTTP client timeout.
func (c *Client) Validate(ctx context.Context, token string) (BotInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return BotInfo{}, ErrNoToken
	}
	if err := ctx.Err(); err != nil {
		return BotInfo{}, err
	}
	c.mu.Lock()
	settings := tele.Settings{URL: c.cfg.APIURL, Token: token, Client: c.http}
	c.mu.Unlock()

	type result struct {
		b   *tele.Bot
		err error
	}
	done := make(chan result, 1)
	go func() {
		b, err := tele.NewBot(settings)
		done <- result{b, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return BotInfo{}, ctx.Err()
	case r = <-done:
	}
	if r.err != nil {
		return BotInfo{}, fmt.Errorf("telegram: getMe: %w", r.err)
	}
	if r.b.Me == nil {
		return BotInfo{}, errors.New("telegram: getMe returned no user")
	}
	return BotInfo{ID: r.b.Me.ID, Username: r.b.Me.Username, FirstName: r.b.Me.FirstName}, nil
}

// recipient addresses a chat by numeric id or "@username".
type recipient string

func (r recipient) Recipient() string { return string(r) }
