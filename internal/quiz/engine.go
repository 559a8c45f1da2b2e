// Package quiz runs a module's quiz: answer selection, scoring and progression.
package quiz

import (
	"errors"
	"fmt"
	"math"

	"github.com/p-n-ai/pai-tutorial/internal/catalog"
)

var (
	ErrInvalidOptionIndex = errors.New("invalid option index")
	ErrNoAnswerSelected   = errors.New("no answer selected")
	ErrAlreadySubmitted   = errors.New("answer already submitted")
	ErrNotSubmitted       = errors.New("answer not submitted yet")
	ErrNotActive          = errors.New("no quiz in progress")
)

// Phase is the quiz sub-state.
type Phase int

const (
	// Idle means no quiz has been started.
	Idle Phase = iota
	// Answering accepts selections and a submit.
	Answering
	// Answered shows the result of the current question and waits for Advance.
	Answered
	// Finished means every question has been answered.
	Finished
)

func (p Phase) String() string {
	switch p {
	case Answering:
		return "answering"
	case Answered:
		return "answered"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// NoAnswer marks the absence of a selection.
const NoAnswer = -1

// Result is the outcome of submitting an answer.
type Result struct {
	IsCorrect    bool   `json:"isCorrect"`
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation"`
}

// Action is what Activate did.
type Action int

const (
	Submitted Action = iota
	Advanced
	Completed
)

// Engine is the quiz state machine for one module pass.
type Engine struct {
	questions []catalog.QuizQuestion
	current   int
	score     int
	selected  int
	phase     Phase
	last      *Result
}

// Start begins a fresh pass over questions.
func (e *Engine) Start(questions []catalog.QuizQuestion) {
	*e = Engine{
		questions: questions,
		selected:  NoAnswer,
		phase:     Answering,
	}
}

// SelectAnswer records option as the pending answer, replacing any earlier choice.
func (e *Engine) SelectAnswer(option int) error {
	switch e.phase {
	case Answering:
	case Answered:
		return ErrAlreadySubmitted
	default:
		return ErrNotActive
	}

	q := e.questions[e.current]
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d (question has %d options)", ErrInvalidOptionIndex, option, len(q.Options))
	}
	e.selected = option
	return nil
}

// Submit scores the pending answer. A second Submit before Advance fails with
// ErrAlreadySubmitted and leaves the score alone.
func (e *Engine) Submit() (Result, error) {
	switch e.phase {
	case Answering:
	case Answered:
		return Result{}, ErrAlreadySubmitted
	default:
		return Result{}, ErrNotActive
	}
	if e.selected == NoAnswer {
		return Result{}, ErrNoAnswerSelected
	}

	q := e.questions[e.current]
	res := Result{
		IsCorrect:    e.selected == q.Correct,
		Selected:     e.selected,
		CorrectIndex: q.Correct,
		Explanation:  q.Explanation,
	}
	if res.IsCorrect {
		e.score++
	}
	e.phase = Answered
	e.last = &res
	return res, nil
}

// Advance moves to the next question. After the last question it reports finished.
func (e *Engine) Advance() (finished bool, err error) {
	switch e.phase {
	case Answered:
	case Answering:
		return false, ErrNotSubmitted
	default:
		return false, ErrNotActive
	}

	if e.current < len(e.questions)-1 {
		e.current++
		e.selected = NoAnswer
		e.phase = Answering
		e.last = nil
		return false, nil
	}
	e.phase = Finished
	return true, nil
}

// Activate is the single primary-button event: it submits while answering and
// advances once answered.
func (e *Engine) Activate() (Action, *Result, error) {
	switch e.phase {
	case Answering:
		res, err := e.Submit()
		if err != nil {
			return Submitted, nil, err
		}
		return Submitted, &res, nil
	case Answered:
		finished, err := e.Advance()
		if err != nil {
			return Advanced, nil, err
		}
		if finished {
			return Completed, nil, nil
		}
		return Advanced, nil, nil
	default:
		return Submitted, nil, ErrNotActive
	}
}

// ScorePercentage returns the score as a whole percentage of all questions.
func (e *Engine) ScorePercentage() int {
	return Percentage(e.score, len(e.questions))
}

// Percentage rounds score/total*100 to the nearest integer. A zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Reset returns the engine to Idle.
func (e *Engine) Reset() { *e = Engine{selected: NoAnswer} }

func (e *Engine) Phase() Phase        { return e.phase }
func (e *Engine) Current() int        { return e.current }
func (e *Engine) Score() int          { return e.score }
func (e *Engine) Total() int          { return len(e.questions) }
func (e *Engine) LastResult() *Result { return e.last }

// Selected returns the pending selection, or NoAnswer.
func (e *Engine) Selected() int {
	if e.phase == Idle {
		return NoAnswer
	}
	return e.selected
}
