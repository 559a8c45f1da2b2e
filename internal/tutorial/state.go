package tutorial

import (
	"time"

	"github.com/p-n-ai/pai-tutorial/internal/quiz"
)

// Phase is the screen-level position of the session.
type Phase string

const (
	PhaseModules  Phase = "modules"
	PhaseLesson   Phase = "lesson"
	PhaseQuiz     Phase = "quiz"
	PhaseComplete Phase = "complete"
)

// SessionState is the mutable state of the running session. It is owned by Engine
// and handed out only as a copy.
type SessionState struct {
	SessionID           string    `json:"sessionId"`
	Phase               Phase     `json:"phase"`
	CurrentModule       int       `json:"currentModule"`
	CurrentStep         int       `json:"currentStep"`
	CurrentQuizQuestion int       `json:"currentQuizQuestion"`
	QuizScore           int       `json:"quizScore"`
	SelectedAnswer      int       `json:"selectedAnswer"` // quiz.NoAnswer when nothing is selected
	QuizPhase           string    `json:"quizPhase"`
	StartedAt           time.Time `json:"startedAt"`
}

// Achievement summarises a just-completed module.
type Achievement struct {
	ModuleID            int     `json:"moduleId"`
	Title               string  `json:"title"`
	Icon                string  `json:"icon"`
	Score               int     `json:"score"`
	Questions           int     `json:"questions"`
	Percentage          int     `json:"percentage"`
	CompletionMinutes   float64 `json:"completionMinutes"`
	AllModulesCompleted bool    `json:"allModulesCompleted"`
}

// Snapshot is the read-only view of the engine handed to the presentation layer.
type Snapshot struct {
	State         SessionState `json:"state"`
	StepCount     int          `json:"stepCount"`
	QuestionCount int          `json:"questionCount"`
	Completed     []int        `json:"completed"`
	TotalModules  int          `json:"totalModules"`
	TotalProgress float64      `json:"totalProgress"`
	LastResult    *quiz.Result `json:"lastResult,omitempty"`
	Achievement   *Achievement `json:"achievement,omitempty"`
	Warning       string       `json:"warning,omitempty"`
}
