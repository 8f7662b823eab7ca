package usecase

import "time"

// Test hooks for time-dependent behavior.

func (n *Notifier) SetSleep(sleep func(time.Duration)) {
	n.sleep = sleep
}

func (j *Janitor) SetNow(now func() time.Time) {
	j.now = now
}
