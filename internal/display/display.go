package display

import "github.com/rs/zerolog/log"

// Page identifies one of the three screens the device renders.
type Page int

const (
	PageWakeup Page = iota
	PageNavigation
	PageFocus
)

// String returns the page name for logs and the status API.
func (p Page) String() string {
	switch p {
	case PageWakeup:
		return "wakeup"
	case PageNavigation:
		return "navigation"
	case PageFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// Display is the rendering boundary. The control core calls these
// setters and never touches pixel-level behavior; the graphics
// toolkit owns everything behind them. Implementations must be cheap:
// they are invoked from the event loop, once per tick at worst.
type Display interface {
	Show(page Page)
	Hide(page Page)

	// Focus page readouts.
	SetTimeText(text string)
	SetProgressRatio(ratio float64)
	SetStatusText(text string)
	SetStopButtonLabel(label string)

	// Navigation page readouts.
	SetDurationText(text string)
	SetBackgroundColor(r, g, b uint8)
}

// Log is a headless Display that writes every call to the log. Used
// when the device runs without an attached panel and in development.
type Log struct{}

func (Log) Show(page Page) {
	log.Info().Str("page", page.String()).Msg("page shown")
}

func (Log) Hide(page Page) {
	log.Debug().Str("page", page.String()).Msg("page hidden")
}

func (Log) SetTimeText(text string) {
	log.Debug().Str("time", text).Msg("time readout")
}

func (Log) SetProgressRatio(ratio float64) {
	log.Debug().Float64("ratio", ratio).Msg("progress readout")
}

func (Log) SetStatusText(text string) {
	if text == "" {
		return
	}
	log.Info().Str("status", text).Msg("status readout")
}

func (Log) SetStopButtonLabel(label string) {
	log.Debug().Str("label", label).Msg("stop button label")
}

func (Log) SetDurationText(text string) {
	log.Debug().Str("duration", text).Msg("duration readout")
}

func (Log) SetBackgroundColor(r, g, b uint8) {
	log.Debug().Uint8("r", r).Uint8("g", g).Uint8("b", b).Msg("background color")
}
