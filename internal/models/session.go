package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionOutcome describes how a focus session ended.
type SessionOutcome string

const (
	// OutcomeCompleted means the countdown reached zero on its own.
	OutcomeCompleted SessionOutcome = "COMPLETED"
	// OutcomeFinished means the user pressed Finish before the end.
	OutcomeFinished SessionOutcome = "FINISHED"
)

// SessionRecord is the persisted trace of one focus session, written
// when the device leaves the focus page. Best-effort: a failed write
// is logged and the session proceeds regardless.
type SessionRecord struct {
	ID             uuid.UUID      `json:"id"`
	StartedAt      time.Time      `json:"startedAt"`
	EndedAt        time.Time      `json:"endedAt"`
	PlannedMinutes int            `json:"plannedMinutes"`
	ElapsedMinutes int            `json:"elapsedMinutes"`
	Outcome        SessionOutcome `json:"outcome"`
}
