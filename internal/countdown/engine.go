package countdown

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine drives one focus session countdown. Time is tracked as a
// fraction of an hour, matching the device firmware: every tick
// subtracts a fixed tickPeriod worth of time regardless of wall clock.
//
// The engine is passive. It owns no goroutine and no timer; the
// application event loop calls Tick once per tick period, so all
// methods are safe to call without locking as long as they run on
// that loop.
type Engine struct {
	tickPeriod time.Duration

	total     float64 // hours
	remaining float64 // hours
	running   bool
	paused    bool

	onComplete func()
}

// NewEngine creates an engine with the given tick period. Periods of
// zero or below fall back to one second.
func NewEngine(tickPeriod time.Duration) *Engine {
	if tickPeriod <= 0 {
		tickPeriod = time.Second
	}
	return &Engine{tickPeriod: tickPeriod}
}

// SetOnComplete registers the completion callback. It fires exactly
// once per session, from within a Tick call.
func (e *Engine) SetOnComplete(fn func()) {
	e.onComplete = fn
}

// Start resets the session to the given duration and begins ticking.
// A non-positive duration is treated as a zero-length session that
// completes on the first tick.
func (e *Engine) Start(hours float64) {
	if hours < 0 {
		hours = 0
	}
	e.total = hours
	e.remaining = hours
	e.running = true
	e.paused = false

	log.Info().Float64("hours", hours).Msg("倒计时开始 countdown started")
}

// Pause freezes the countdown. No-op when already paused or not started.
func (e *Engine) Pause() {
	if !e.running {
		return
	}
	e.running = false
	e.paused = true
	log.Info().Float64("remaining", e.remaining).Msg("countdown paused")
}

// Resume continues a paused countdown from its frozen remaining time.
// No-op when not paused.
func (e *Engine) Resume() {
	if !e.paused {
		return
	}
	e.paused = false
	e.running = true
	log.Info().Float64("remaining", e.remaining).Msg("countdown resumed")
}

// Stop cancels the countdown without firing completion. The remaining
// value keeps its last reading; the caller decides whether to reset.
func (e *Engine) Stop() {
	e.running = false
	e.paused = false
}

// Tick advances the countdown by one tick period. It is a no-op while
// the engine is paused or stopped, so the event loop can call it
// unconditionally. Returns true when this tick completed the session.
func (e *Engine) Tick() bool {
	if !e.running || e.paused {
		return false
	}

	e.remaining -= e.tickPeriod.Hours()

	// The epsilon absorbs accumulated float error so a session of N
	// whole ticks completes on tick N, not one tick late.
	if e.remaining <= 1e-12 {
		e.remaining = 0
		e.running = false

		log.Info().Msg("倒计时结束 countdown completed")
		if e.onComplete != nil {
			e.onComplete()
		}
		return true
	}
	return false
}

// Running reports whether the countdown is actively ticking.
func (e *Engine) Running() bool { return e.running }

// Paused reports whether the countdown is frozen.
func (e *Engine) Paused() bool { return e.paused }

// Total returns the session duration in hours.
func (e *Engine) Total() float64 { return e.total }

// Remaining returns the remaining time in hours.
func (e *Engine) Remaining() float64 { return e.remaining }

// Progress returns remaining/total clamped to [0, 1]. An unstarted
// engine reports 0.
func (e *Engine) Progress() float64 {
	if e.total <= 0 {
		return 0
	}
	p := e.remaining / e.total
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// FormatHMS renders an hour value as HH:MM:SS. The conversion
// truncates, it never rounds up.
func FormatHMS(hours float64) string {
	totalSeconds := int(hours*3600 + 1e-6)
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
