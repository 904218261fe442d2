package pages

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/echome-smart/focus-device/internal/countdown"
	"github.com/echome-smart/focus-device/internal/dispatch"
	"github.com/echome-smart/focus-device/internal/display"
	"github.com/echome-smart/focus-device/internal/models"
	"github.com/echome-smart/focus-device/internal/params"
)

// Serial command vocabulary. The focus-entry message carries the
// session length in whole minutes; the companion treats any leading
// integer as a start command.
const (
	serialReset = "reset\n"
	serialMove  = "move\n"
)

// Sender dispatches outbound signals; satisfied by dispatch.Dispatcher.
type Sender interface {
	Send(sig dispatch.Signal)
}

// Recorder persists finished sessions, best-effort.
type Recorder interface {
	RecordSession(record *models.SessionRecord)
}

// Manager owns the page state machine: which of the three pages is
// current, the transition rules between them, and the side effects
// each transition triggers on the countdown engine, the signal
// dispatcher, and the display.
//
// All methods must be called from the application event loop; the
// manager holds no locks.
type Manager struct {
	display  display.Display
	engine   *countdown.Engine
	sender   Sender
	selected *params.Store
	recorder Recorder

	brokerTopic string

	current      display.Page
	sessionStart time.Time
}

// NewManager wires the state machine and shows the wakeup page.
// recorder may be nil when session history is disabled.
func NewManager(d display.Display, engine *countdown.Engine, sender Sender,
	selected *params.Store, recorder Recorder, brokerTopic string) *Manager {

	m := &Manager{
		display:     d,
		engine:      engine,
		sender:      sender,
		selected:    selected,
		recorder:    recorder,
		brokerTopic: brokerTopic,
		current:     display.PageWakeup,
	}
	engine.SetOnComplete(m.handleSessionCompleted)

	d.Show(display.PageWakeup)
	log.Info().Msg("页面管理器已初始化 page manager initialized")
	return m
}

// CurrentPage returns the page currently shown.
func (m *Manager) CurrentPage() display.Page {
	return m.current
}

// Handle processes one user input event. Pairs of (page, control,
// action) outside the transition table are ignored: state is left
// unchanged and nothing crashes.
func (m *Manager) Handle(in Input) {
	// Press-cancel semantics collapse into the release handler.
	if in.Action == ActionPressLost {
		in.Action = ActionReleased
	}

	switch m.current {
	case display.PageWakeup:
		m.handleWakeup(in)
	case display.PageNavigation:
		m.handleNavigation(in)
	case display.PageFocus:
		m.handleFocus(in)
	}
}

// HandleTick advances the countdown by one period and refreshes the
// focus readouts. Called once per tick period by the event loop; a
// no-op outside the focus page.
func (m *Manager) HandleTick() {
	if m.current != display.PageFocus {
		return
	}

	m.engine.Tick() // completion may switch the page away

	if m.current != display.PageFocus {
		return
	}
	m.display.SetTimeText(countdown.FormatHMS(m.engine.Remaining()))
	m.display.SetProgressRatio(m.engine.Progress())
}

func (m *Manager) handleWakeup(in Input) {
	if in.Control == ControlWakeupButton && in.Action == ActionReleased {
		m.switchPage(display.PageNavigation)
	}
}

func (m *Manager) handleNavigation(in Input) {
	switch {
	case in.Control == ControlTimeSlider && in.Action == ActionValueChanged:
		m.selected.SetFromSlider(in.Value)
		m.display.SetDurationText(FormatDuration(m.selected.Get()))
		m.display.SetBackgroundColor(backgroundGradient(m.selected.Ratio()))

	case in.Control == ControlStartButton && in.Action == ActionReleased:
		m.startSession()
	}
}

func (m *Manager) handleFocus(in Input) {
	if in.Action != ActionReleased {
		return
	}

	switch in.Control {
	case ControlStopButton:
		m.toggleStop()
	case ControlFinishButton:
		m.finishSession()
	case ControlMoveButton:
		// Companion nudge; the page does not change.
		m.sender.Send(dispatch.Signal{Channel: dispatch.ChannelSerial, Payload: serialMove})
	}
}

// startSession is the Navigation -> Focus transition.
func (m *Manager) startSession() {
	hours := m.selected.Get()
	minutes := int(hours*60 + 1e-6)

	m.engine.Start(hours)
	m.sessionStart = time.Now()

	// Tell the companion how long the session runs, and flip the
	// broker start flag for remote listeners.
	m.sender.Send(dispatch.Signal{
		Channel: dispatch.ChannelSerial,
		Payload: fmt.Sprintf("%d\n", minutes),
	})
	m.sender.Send(dispatch.Signal{
		Channel: dispatch.ChannelBroker,
		Topic:   m.brokerTopic,
		Payload: "true",
	})

	m.display.SetStatusText("")
	m.display.SetStopButtonLabel("Stop")
	m.display.SetTimeText(countdown.FormatHMS(m.engine.Remaining()))
	m.display.SetProgressRatio(m.engine.Progress())

	m.switchPage(display.PageFocus)

	log.Info().Int("minutes", minutes).Msg("专注会话开始 focus session started")
}

// toggleStop handles the focus page stop/continue button.
func (m *Manager) toggleStop() {
	switch {
	case m.engine.Paused():
		m.engine.Resume()
		m.display.SetStopButtonLabel("Stop")
		m.display.SetStatusText("")

	case m.engine.Running():
		m.engine.Pause()
		m.display.SetStopButtonLabel("Continue")
		m.display.SetStatusText("")

	default:
		// Countdown already over; the button doubles as a way home.
		m.switchPage(display.PageNavigation)
	}
}

// finishSession is the user-initiated Focus -> Navigation transition.
func (m *Manager) finishSession() {
	elapsed := m.engine.Total() - m.engine.Remaining()
	m.engine.Stop()

	m.sender.Send(dispatch.Signal{Channel: dispatch.ChannelSerial, Payload: serialReset})
	m.sender.Send(dispatch.Signal{
		Channel: dispatch.ChannelBroker,
		Topic:   m.brokerTopic,
		Payload: "false",
	})

	m.record(models.OutcomeFinished, elapsed)

	m.display.SetStatusText("Finished")
	m.switchPage(display.PageNavigation)

	log.Info().Msg("focus session finished by user")
}

// handleSessionCompleted fires once when the countdown reaches zero.
// The device returns to navigation on its own; no signal is
// dispatched for natural completion.
func (m *Manager) handleSessionCompleted() {
	m.display.SetTimeText(countdown.FormatHMS(0))
	m.display.SetProgressRatio(0)
	m.display.SetStatusText("Time's Up!")

	m.record(models.OutcomeCompleted, m.engine.Total())

	m.switchPage(display.PageNavigation)

	log.Info().Msg("focus session completed")
}

func (m *Manager) record(outcome models.SessionOutcome, elapsedHours float64) {
	if m.recorder == nil {
		return
	}
	m.recorder.RecordSession(&models.SessionRecord{
		StartedAt:      m.sessionStart,
		EndedAt:        time.Now(),
		PlannedMinutes: int(m.engine.Total()*60 + 1e-6),
		ElapsedMinutes: int(elapsedHours*60 + 1e-6),
		Outcome:        outcome,
	})
}

// switchPage hides the current page and shows the target. Requests
// for a page outside the known set are logged and ignored.
func (m *Manager) switchPage(target display.Page) {
	if target < display.PageWakeup || target > display.PageFocus {
		log.Error().Int("page", int(target)).Msg("invalid page")
		return
	}

	m.display.Hide(m.current)
	m.display.Show(target)
	m.current = target

	log.Info().Str("page", target.String()).Msg("switched page")
}

// FormatDuration renders an hour value the way the navigation page
// shows it: "1h 30min", "2h", "45min".
func FormatDuration(hours float64) string {
	h := int(hours)
	min := int((hours-float64(h))*60 + 1e-6)

	switch {
	case h > 0 && min > 0:
		return fmt.Sprintf("%dh %dmin", h, min)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dmin", min)
	}
}

// backgroundGradient derives the navigation background color from the
// duration ratio, interpolating the device's pastel palette.
func backgroundGradient(ratio float64) (r, g, b uint8) {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	r = uint8(216 + (252-216)*ratio)
	g = uint8(226 + (224-226)*ratio)
	b = uint8(236 + (231-236)*ratio)
	return r, g, b
}
