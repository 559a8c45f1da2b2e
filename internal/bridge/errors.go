package bridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-tutorial/internal/catalog"
	"github.com/p-n-ai/pai-tutorial/internal/lesson"
	"github.com/p-n-ai/pai-tutorial/internal/quiz"
	"github.com/p-n-ai/pai-tutorial/internal/tutorial"
)

// errBadRequest marks a path parameter that is not a number.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var errorKinds = []struct {
	err    error
	kind   string
	status int
}{
	{catalog.ErrNotFound, "module_not_found", http.StatusNotFound},
	{lesson.ErrModuleLocked, "module_locked", http.StatusConflict},
	{tutorial.ErrQuizLocked, "quiz_locked", http.StatusConflict},
	{tutorial.ErrWrongPhase, "wrong_phase", http.StatusConflict},
	{lesson.ErrNoActiveModule, "no_active_module", http.StatusConflict},
	{quiz.ErrNotActive, "no_active_quiz", http.StatusConflict},
	{quiz.ErrAlreadySubmitted, "already_submitted", http.StatusConflict},
	{quiz.ErrNotSubmitted, "not_submitted", http.StatusConflict},
	{quiz.ErrNoAnswerSelected, "no_answer_selected", http.StatusUnprocessableEntity},
	{lesson.ErrInvalidStepIndex, "invalid_step_index", http.StatusUnprocessableEntity},
	{quiz.ErrInvalidOptionIndex, "invalid_option_index", http.StatusUnprocessableEntity},
	{errBadRequest, "bad_request", http.StatusUnprocessableEntity},
}

// classify maps an engine rejection to its wire kind and HTTP status.
func classify(err error) (kind string, status int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind, k.status
		}
	}
	return "internal", http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	if status == http.StatusInternalServerError {
		slog.Error("bridge request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
