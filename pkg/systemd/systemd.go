// Package systemd reports service state to the systemd manager through
// sd_notify. Every call is a no-op when the process was not started by
// systemd (NOTIFY_SOCKET unset).
package systemd

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notify sends a raw sd_notify state line. It reports whether the message was
// delivered.
func Notify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

func Ready() (bool, error)    { return Notify(daemon.SdNotifyReady) }
func Stopping() (bool, error) { return Notify(daemon.SdNotifyStopping) }
func Watchdog() (bool, error) { return Notify(daemon.SdNotifyWatchdog) }

// Status sets the free-form status line shown by systemctl status.
func Status(msg string) (bool, error) { return Notify("STATUS=" + msg) }

// WatchdogInterval returns WatchdogSec for this process, or 0 when the
// watchdog is not enabled.
func WatchdogInterval() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return 0
	}
	return d
}
