package snooze

import (
	"sync"
	"time"
)

// Alarms schedules the wake callback. The service only asks for "fire no
// later than t"; coalescing multiple requests into one pending alarm is the
// implementation's job. Surviving process restarts is not: callers re-prime
// the schedule from the durable store at startup.
type Alarms interface {
	Schedule(at time.Time)
	Clear()
}

// TimerAlarms is an in-process Alarms backed by a single time.Timer that
// always tracks the earliest requested wake time.
type TimerAlarms struct {
	mu    sync.Mutex
	timer *time.Timer
	next  time.Time
	fire  func()
}

func NewTimerAlarms(fire func()) *TimerAlarms {
	return &TimerAlarms{fire: fire}
}

func (a *TimerAlarms) Schedule(at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil && !a.next.IsZero() && !at.Before(a.next) {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.next = at
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	a.timer = time.AfterFunc(d, func() {
		a.mu.Lock()
		a.next = time.Time{}
		a.mu.Unlock()
		a.fire()
	})
}

func (a *TimerAlarms) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.next = time.Time{}
}
