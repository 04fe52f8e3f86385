package systemd

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyWithoutSocketIsNoop(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	ok, err := Ready()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, WatchdogInterval())
}

func TestNotifySendsState(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sock, Net: "unixgram"})
	require.NoError(t, err)
	defer conn.Close()
	t.Setenv("NOTIFY_SOCKET", sock)

	read := func() string {
		buf := make([]byte, 256)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, err := conn.Read(buf)
		require.NoError(t, err)
		return string(buf[:n])
	}

	ok, err := Ready()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "READY=1", read())

	_, err = Status("next tick in 30s")
	require.NoError(t, err)
	assert.Equal(t, "STATUS=next tick in 30s", read())

	_, err = Stopping()
	require.NoError(t, err)
	assert.Equal(t, "STOPPING=1", read())
}

func TestWatchdogInterval(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "4000000")
	t.Setenv("WATCHDOG_PID", "")
	assert.Equal(t, 4*time.Second, WatchdogInterval())
}
