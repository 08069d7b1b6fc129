package services

import "time"

// Scheduler schedules a single deferred continuation. The returned func
// cancels the callback if it has not fired yet. The progression engine uses
// it for the pacing delay between a level's video and its first question,
// and tests substitute a manual implementation.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
