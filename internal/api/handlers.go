package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/echome-smart/focus-device/internal/pages"
)

// ========== Status handlers ==========

// HandleStatus returns the current device state snapshot.
func (s *RESTServer) HandleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.core.Snapshot())
}

// HandleListSessions lists recorded focus sessions
func (s *RESTServer) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, total, err := s.core.Sessions(ctx, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
	})
}

// ========== Control handlers ==========

// controlInputs maps API action names onto the same input events the
// physical panel produces, so remote control and touch control take
// one code path through the state machine.
var controlInputs = map[string]pages.Input{
	"wakeup": {Control: pages.ControlWakeupButton, Action: pages.ActionReleased},
	"start":  {Control: pages.ControlStartButton, Action: pages.ActionReleased},
	"stop":   {Control: pages.ControlStopButton, Action: pages.ActionReleased},
	"finish": {Control: pages.ControlFinishButton, Action: pages.ActionReleased},
	"move":   {Control: pages.ControlMoveButton, Action: pages.ActionReleased},
}

// HandleControl injects one control event into the device
func (s *RESTServer) HandleControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Value  int    `json:"value"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var in pages.Input
	switch req.Action {
	case "duration":
		if req.Value < 0 || req.Value > 100 {
			s.respondError(w, http.StatusBadRequest, "duration value must be 0-100")
			return
		}
		in = pages.Input{
			Control: pages.ControlTimeSlider,
			Action:  pages.ActionValueChanged,
			Value:   req.Value,
		}
	default:
		var ok bool
		in, ok = controlInputs[req.Action]
		if !ok {
			s.respondError(w, http.StatusBadRequest, "unknown action")
			return
		}
	}

	s.core.Inject(in)

	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"action": req.Action,
	})
}

// ========== Helper methods ==========

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot root handler
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Focus Device Controller",
		"version": "1.0.0",
		"health":  "/api/v1/health",
		"status":  "/api/v1/status",
	})
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
