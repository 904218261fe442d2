package pages

// Control identifies a touch surface on one of the pages.
type Control int

const (
	// ControlWakeupButton is the wakeup page's single control surface.
	ControlWakeupButton Control = iota
	// ControlTimeSlider is the navigation page duration slider.
	ControlTimeSlider
	// ControlStartButton starts a focus session from navigation.
	ControlStartButton
	// ControlStopButton pauses/resumes the running countdown.
	ControlStopButton
	// ControlFinishButton ends the session early.
	ControlFinishButton
	// ControlMoveButton signals the companion robot; no page change.
	ControlMoveButton
)

// Action is the gesture phase reported by the view layer.
type Action int

const (
	ActionPressed Action = iota
	ActionReleased
	// ActionPressLost is a press-and-hold released outside the
	// control's bounds. Treated identically to a normal release.
	ActionPressLost
	// ActionValueChanged carries a new slider position in Value.
	ActionValueChanged
)

// Input is one user event delivered to the state machine by the view
// layer or the control API. Value is the 0-100 normalized slider
// position and only meaningful for ControlTimeSlider.
type Input struct {
	Control Control
	Action  Action
	Value   int
}
