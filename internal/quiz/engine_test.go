package quiz_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-tutorial/internal/catalog"
	"github.com/p-n-ai/pai-tutorial/internal/quiz"
)

func questions(correct ...int) []catalog.QuizQuestion {
	qs := make([]catalog.QuizQuestion, len(correct))
	for i, c := range correct {
		qs[i] = catalog.QuizQuestion{
			Question:    "Q",
			Options:     []string{"a", "b", "c", "d"},
			Correct:     c,
			Explanation: "because",
		}
	}
	return qs
}

func answer(t *testing.T, e *quiz.Engine, option int) quiz.Result {
	t.Helper()
	if err := e.SelectAnswer(option); err != nil {
		t.Fatalf("SelectAnswer(%d) error = %v", option, err)
	}
	res, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return res
}

func TestEngine_Start(t *testing.T) {
	var e quiz.Engine
	if e.Phase() != quiz.Idle {
		t.Errorf("zero Phase() = %v, want idle", e.Phase())
	}

	e.Start(questions(1, 2))
	if e.Phase() != quiz.Answering || e.Current() != 0 || e.Score() != 0 || e.Selected() != quiz.NoAnswer {
		t.Errorf("after Start: phase %v current %d score %d selected %d",
			e.Phase(), e.Current(), e.Score(), e.Selected())
	}
}

func TestEngine_SelectAnswer(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(1))

	tests := []struct {
		option  int
		wantErr bool
	}{
		{0, false},
		{3, false},
		{-1, true},
		{4, true},
	}
	for _, tt := range tests {
		err := e.SelectAnswer(tt.option)
		if tt.wantErr && !errors.Is(err, quiz.ErrInvalidOptionIndex) {
			t.Errorf("SelectAnswer(%d) error = %v, want ErrInvalidOptionIndex", tt.option, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("SelectAnswer(%d) error = %v", tt.option, err)
		}
	}
	if e.Selected() != 3 {
		t.Errorf("Selected() = %d, want 3 (invalid selections are ignored)", e.Selected())
	}
}

func TestEngine_ReselectOverwrites(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(1))

	e.SelectAnswer(0)
	e.SelectAnswer(1)
	e.SelectAnswer(1)

	res, err := e.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.IsCorrect || e.Score() != 1 {
		t.Errorf("IsCorrect = %v, Score = %d; want true, 1", res.IsCorrect, e.Score())
	}
}

func TestEngine_SubmitWithoutSelection(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(1))

	if _, err := e.Submit(); !errors.Is(err, quiz.ErrNoAnswerSelected) {
		t.Errorf("Submit() error = %v, want ErrNoAnswerSelected", err)
	}
	if e.Phase() != quiz.Answering {
		t.Errorf("Phase() = %v, want answering", e.Phase())
	}
}

func TestEngine_DoubleSubmit(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(1, 1))

	answer(t, &e, 1)
	if e.Score() != 1 {
		t.Fatalf("Score() = %d, want 1", e.Score())
	}

	if _, err := e.Submit(); !errors.Is(err, quiz.ErrAlreadySubmitted) {
		t.Errorf("second Submit() error = %v, want ErrAlreadySubmitted", err)
	}
	if e.Score() != 1 {
		t.Errorf("Score() = %d after second Submit, want 1", e.Score())
	}
	if err := e.SelectAnswer(0); !errors.Is(err, quiz.ErrAlreadySubmitted) {
		t.Errorf("SelectAnswer() after submit error = %v, want ErrAlreadySubmitted", err)
	}
}

func TestEngine_AdvanceRequiresSubmit(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(1, 1))

	if _, err := e.Advance(); !errors.Is(err, quiz.ErrNotSubmitted) {
		t.Errorf("Advance() error = %v, want ErrNotSubmitted", err)
	}

	answer(t, &e, 0)
	finished, err := e.Advance()
	if err != nil || finished {
		t.Fatalf("Advance() = %v, %v; want false, nil", finished, err)
	}
	if e.Current() != 1 || e.Selected() != quiz.NoAnswer || e.Phase() != quiz.Answering {
		t.Errorf("after Advance: current %d selected %d phase %v", e.Current(), e.Selected(), e.Phase())
	}
	if e.LastResult() != nil {
		t.Error("LastResult() should clear on Advance")
	}
}

func TestEngine_NotStarted(t *testing.T) {
	var e quiz.Engine

	if err := e.SelectAnswer(0); !errors.Is(err, quiz.ErrNotActive) {
		t.Errorf("SelectAnswer() error = %v, want ErrNotActive", err)
	}
	if _, err := e.Submit(); !errors.Is(err, quiz.ErrNotActive) {
		t.Errorf("Submit() error = %v, want ErrNotActive", err)
	}
	if _, err := e.Advance(); !errors.Is(err, quiz.ErrNotActive) {
		t.Errorf("Advance() error = %v, want ErrNotActive", err)
	}
	if _, _, err := e.Activate(); !errors.Is(err, quiz.ErrNotActive) {
		t.Errorf("Activate() error = %v, want ErrNotActive", err)
	}
}

func TestEngine_ScorePercentage(t *testing.T) {
	tests := []struct {
		name    string
		correct []int
		answers []int
		want    int
	}{
		{"all correct", []int{1, 2, 1}, []int{1, 2, 1}, 100},
		{"all wrong", []int{1, 2, 1}, []int{0, 0, 0}, 0},
		{"two of three", []int{1, 2, 1}, []int{1, 0, 1}, 67},
		{"one of three", []int{1, 2, 1}, []int{1, 0, 0}, 33},
		{"one of two", []int{0, 0}, []int{0, 1}, 50},
		{"five of eight", []int{0, 0, 0, 0, 0, 0, 0, 0}, []int{0, 0, 0, 0, 0, 1, 1, 1}, 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e quiz.Engine
			e.Start(questions(tt.correct...))
			for i, a := range tt.answers {
				answer(t, &e, a)
				if e.Score() > e.Current()+1 {
					t.Fatalf("Score() = %d exceeds answered count %d", e.Score(), e.Current()+1)
				}
				finished, err := e.Advance()
				if err != nil {
					t.Fatalf("Advance() error = %v", err)
				}
				if finished != (i == len(tt.answers)-1) {
					t.Fatalf("Advance() finished = %v at question %d", finished, i)
				}
			}
			if e.Phase() != quiz.Finished {
				t.Errorf("Phase() = %v, want finished", e.Phase())
			}
			if got := e.ScorePercentage(); got != tt.want {
				t.Errorf("ScorePercentage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPercentage_ZeroTotal(t *testing.T) {
	if got := quiz.Percentage(0, 0); got != 0 {
		t.Errorf("Percentage(0, 0) = %d, want 0", got)
	}
}

func TestEngine_Activate(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(1, 2))

	if _, _, err := e.Activate(); !errors.Is(err, quiz.ErrNoAnswerSelected) {
		t.Fatalf("Activate() without selection error = %v, want ErrNoAnswerSelected", err)
	}

	e.SelectAnswer(1)
	action, res, err := e.Activate()
	if err != nil || action != quiz.Submitted || res == nil || !res.IsCorrect {
		t.Fatalf("Activate() = %v, %+v, %v; want Submitted with correct result", action, res, err)
	}

	action, _, err = e.Activate()
	if err != nil || action != quiz.Advanced {
		t.Fatalf("Activate() = %v, %v; want Advanced", action, err)
	}

	e.SelectAnswer(0)
	e.Activate()
	action, _, err = e.Activate()
	if err != nil || action != quiz.Completed {
		t.Fatalf("Activate() = %v, %v; want Completed", action, err)
	}
	if e.ScorePercentage() != 50 {
		t.Errorf("ScorePercentage() = %d, want 50", e.ScorePercentage())
	}
}

func TestEngine_ResultCarriesExplanation(t *testing.T) {
	var e quiz.Engine
	e.Start(questions(2))

	res := answer(t, &e, 0)
	if res.IsCorrect || res.CorrectIndex != 2 || res.Selected != 0 || res.Explanation != "because" {
		t.Errorf("Result = %+v", res)
	}
}
