package app

import (
	"context"
	"testing"
	"time"

	"github.com/echome-smart/focus-device/internal/config"
	"github.com/echome-smart/focus-device/internal/dispatch"
	"github.com/echome-smart/focus-device/internal/display"
	"github.com/echome-smart/focus-device/internal/pages"
	"github.com/echome-smart/focus-device/internal/storage"
)

func newTestCore(t *testing.T, store storage.Store) *Core {
	t.Helper()

	cfg := config.Default()
	// A long tick period keeps the ticker quiet during tests; every
	// state change below comes from injected inputs.
	cfg.Session.TickPeriod = time.Hour

	dispatcher := dispatch.NewDispatcher(nil, nil)
	t.Cleanup(dispatcher.Close)

	return New(cfg, display.Log{}, dispatcher, store)
}

func waitForPage(t *testing.T, core *Core, page string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if core.Snapshot().Page == page {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("page = %q, want %q", core.Snapshot().Page, page)
}

func TestCoreInitialSnapshot(t *testing.T) {
	core := newTestCore(t, nil)

	snap := core.Snapshot()
	if snap.Page != "wakeup" {
		t.Fatalf("Page = %q, want wakeup", snap.Page)
	}
	if snap.Running {
		t.Fatal("Running = true before any session")
	}
	if snap.SelectedHours != 1.0 {
		t.Fatalf("SelectedHours = %v, want 1.0", snap.SelectedHours)
	}
}

func TestCoreInjectDrivesStateMachine(t *testing.T) {
	core := newTestCore(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go core.Run(ctx)

	core.Inject(pages.Input{Control: pages.ControlWakeupButton, Action: pages.ActionReleased})
	waitForPage(t, core, "navigation")

	core.Inject(pages.Input{Control: pages.ControlStartButton, Action: pages.ActionReleased})
	waitForPage(t, core, "focus")

	snap := core.Snapshot()
	if !snap.Running {
		t.Fatal("Running = false after start")
	}
	if snap.TimeText != "01:00:00" {
		t.Fatalf("TimeText = %q, want 01:00:00", snap.TimeText)
	}

	core.Inject(pages.Input{Control: pages.ControlFinishButton, Action: pages.ActionReleased})
	waitForPage(t, core, "navigation")
}

func TestCoreRunStopsOnCancel(t *testing.T) {
	core := newTestCore(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- core.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCoreRecordsFinishedSession(t *testing.T) {
	store, err := storage.NewSQLiteStore(t.TempDir() + "/sessions.db")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	core := newTestCore(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go core.Run(ctx)

	core.Inject(pages.Input{Control: pages.ControlWakeupButton, Action: pages.ActionReleased})
	core.Inject(pages.Input{Control: pages.ControlStartButton, Action: pages.ActionReleased})
	waitForPage(t, core, "focus")
	core.Inject(pages.Input{Control: pages.ControlFinishButton, Action: pages.ActionReleased})
	waitForPage(t, core, "navigation")

	// The write runs off the event loop, poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		records, total, err := core.Sessions(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("Sessions: %v", err)
		}
		if total == 1 {
			if records[0].PlannedMinutes != 60 {
				t.Fatalf("PlannedMinutes = %d, want 60", records[0].PlannedMinutes)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session was never recorded")
}

func TestCoreSessionsWithoutStore(t *testing.T) {
	core := newTestCore(t, nil)

	records, total, err := core.Sessions(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if total != 0 || len(records) != 0 {
		t.Fatalf("got %d records total %d, want none", len(records), total)
	}
}
