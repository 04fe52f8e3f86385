package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kit "github.com/XaMcTeRzzz/taskmeneger/internal/transport"
)

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "test"))
	log.Info("hello", Int("n", 3))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "hello", m["message"])
	assert.Equal(t, "test", m["comp"])
	assert.EqualValues(t, 3, m["n"])
	assert.Contains(t, m["caller"], "logx_test.go")
}

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()
	var l Logger
	assert.True(t, l.IsZero())
	l.Error("nothing happens")
	assert.False(t, Nop().IsZero())
}

func TestFormatAlertSortsFields(t *testing.T) {
	t.Parallel()
	line := []byte(`{"level":"warn","message":"send failed","time":"x","kind":"daily","err":"boom"}`)
	got := formatAlert(line)
	assert.Equal(t, "[WARN] send failed\n- err=boom\n- kind=daily", got)
	assert.Equal(t, "not json", formatAlert([]byte("  not json \n")))
}

type captureSender struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSender) SendText(_ context.Context, _ kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	c.mu.Lock()
	c.msgs = append(c.msgs, text)
	c.mu.Unlock()
	return kit.MessageRef{}, nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestAlertSinkForwardsWarnings(t *testing.T) {
	sender := &captureSender{}
	svc, log := New(Config{Level: "debug", Telegram: TelegramConfig{MinLevel: "warn", RatePerSec: 10}}, sender)
	defer svc.Close()
	svc.SetAlertTarget(kit.ChatTarget{ChatID: "-100"})
	svc.Apply(Config{Level: "debug", Telegram: TelegramConfig{Enabled: true, MinLevel: "warn", RatePerSec: 10}})

	log.Info("quiet")
	log.Warn("loud")

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	sender.mu.Lock()
	assert.Contains(t, sender.msgs[0], "[WARN] loud")
	sender.mu.Unlock()
}
