package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/echome-smart/focus-device/internal/config"
	"github.com/echome-smart/focus-device/internal/countdown"
	"github.com/echome-smart/focus-device/internal/display"
	"github.com/echome-smart/focus-device/internal/models"
	"github.com/echome-smart/focus-device/internal/pages"
	"github.com/echome-smart/focus-device/internal/params"
	"github.com/echome-smart/focus-device/internal/storage"
)

// Core ties the page state machine, countdown engine, and parameter
// store to one event loop goroutine. User inputs and countdown ticks
// are serialized through that goroutine, so none of the owned state
// needs locking. Everything cross-goroutine goes through Inject (in)
// or Snapshot (out).
type Core struct {
	cfg      *config.Config
	manager  *pages.Manager
	engine   *countdown.Engine
	selected *params.Store
	store    storage.Store

	inputs chan pages.Input

	mu   sync.RWMutex
	snap Snapshot
}

// Snapshot is a read-only copy of the core state for concurrent
// readers such as the HTTP API. Refreshed by the loop after every
// handled event.
type Snapshot struct {
	Page           string  `json:"page"`
	Running        bool    `json:"running"`
	Paused         bool    `json:"paused"`
	TotalHours     float64 `json:"totalHours"`
	RemainingHours float64 `json:"remainingHours"`
	Progress       float64 `json:"progress"`
	SelectedHours  float64 `json:"selectedHours"`
	TimeText       string  `json:"timeText"`
}

// New assembles the core. store may be nil when history is disabled;
// sender must never be nil (use a dispatcher with nil transports).
func New(cfg *config.Config, d display.Display, sender pages.Sender, store storage.Store) *Core {
	engine := countdown.NewEngine(cfg.Session.TickPeriod)
	selected := params.NewStore(
		cfg.Session.MinDurationHours,
		cfg.Session.MaxDurationHours,
		cfg.Session.DefaultDurationHours,
	)

	core := &Core{
		cfg:      cfg,
		engine:   engine,
		selected: selected,
		store:    store,
		inputs:   make(chan pages.Input, 32),
	}

	var recorder pages.Recorder
	if store != nil {
		recorder = core
	}
	core.manager = pages.NewManager(d, engine, sender, selected, recorder, cfg.Broker.StartTopic)

	core.refreshSnapshot()
	return core
}

// Inject queues one user input for the event loop. Non-blocking: if
// the queue is full the input is dropped with a warning, matching the
// device's degrade-silently error policy.
func (c *Core) Inject(in pages.Input) {
	select {
	case c.inputs <- in:
	default:
		log.Warn().Int("control", int(in.Control)).Msg("input queue full, event dropped")
	}
}

// Run drives the event loop until ctx is cancelled. Both sources of
// concurrency - user input and the periodic tick - land here and are
// handled one at a time.
func (c *Core) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Session.TickPeriod)
	defer ticker.Stop()

	log.Info().Dur("tick", c.cfg.Session.TickPeriod).Msg("事件循环启动 event loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in := <-c.inputs:
			c.manager.Handle(in)
			c.refreshSnapshot()

		case <-ticker.C:
			c.manager.HandleTick()
			c.refreshSnapshot()
		}
	}
}

// Snapshot returns the latest state copy.
func (c *Core) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Sessions lists persisted session history. Returns empty results
// when history is disabled.
func (c *Core) Sessions(ctx context.Context, limit, offset int) ([]*models.SessionRecord, int64, error) {
	if c.store == nil {
		return nil, 0, nil
	}
	return c.store.ListSessions(ctx, limit, offset)
}

// RecordSession implements pages.Recorder. The write happens off the
// event loop; a storage failure is logged and forgotten.
func (c *Core) RecordSession(record *models.SessionRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.store.CreateSession(ctx, record); err != nil {
			log.Error().Err(err).Msg("failed to record session")
			return
		}
		log.Debug().
			Str("id", record.ID.String()).
			Str("outcome", string(record.Outcome)).
			Msg("session recorded")
	}()
}

func (c *Core) refreshSnapshot() {
	snap := Snapshot{
		Page:           c.manager.CurrentPage().String(),
		Running:        c.engine.Running(),
		Paused:         c.engine.Paused(),
		TotalHours:     c.engine.Total(),
		RemainingHours: c.engine.Remaining(),
		Progress:       c.engine.Progress(),
		SelectedHours:  c.selected.Get(),
		TimeText:       countdown.FormatHMS(c.engine.Remaining()),
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}
