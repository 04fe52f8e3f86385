package history

import "time"

// KindStatus is the diagnostic state of one report kind.
type KindStatus struct {
	LastAttempt         time.Time `json:"last_attempt,omitzero"`
	LastSuccess         time.Time `json:"last_success,omitzero"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures,omitempty"`
	// MarkerLost is set when a report went out but its history marker could
	// not be saved; the next tick may send it again.
	MarkerLost bool `json:"marker_lost,omitempty"`
	// Partial holds the error of a report that was cut off after some of its
	// parts were delivered. Such a report counts as sent and is not retried.
	Partial string `json:"partial,omitempty"`
}

// Status is the persisted diagnostic record shown by the status command.
type Status struct {
	LastTick time.Time  `json:"last_tick,omitzero"`
	Daily    KindStatus `json:"daily"`
	Weekly   KindStatus `json:"weekly"`
}

func (s *Status) Kind(kind string) *KindStatus {
	if kind == "weekly" {
		return &s.Weekly
	}
	return &s.Daily
}

// Attempt records the outcome of a delivery attempt at now.
func (k *KindStatus) Attempt(now time.Time, err error) {
	k.LastAttempt = now
	if err != nil {
		k.LastError = err.Error()
		k.ConsecutiveFailures++
		return
	}
	k.LastSuccess = now
	k.LastError = ""
	k.ConsecutiveFailures = 0
	k.MarkerLost = false
	k.Partial = ""
}
