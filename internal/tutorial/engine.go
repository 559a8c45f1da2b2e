// Package tutorial is the session controller: it owns the session state, drives the
// lesson navigator and quiz engine, applies the unlock policy and writes progress through.
package tutorial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-tutorial/internal/catalog"
	"github.com/p-n-ai/pai-tutorial/internal/lesson"
	"github.com/p-n-ai/pai-tutorial/internal/progress"
	"github.com/p-n-ai/pai-tutorial/internal/quiz"
	"github.com/p-n-ai/pai-tutorial/internal/unlock"
)

var (
	// ErrWrongPhase is returned when an operation does not apply to the current screen.
	ErrWrongPhase = errors.New("operation not available in the current phase")
	// ErrQuizLocked is returned when resuming the quiz of a module whose lesson was never finished.
	ErrQuizLocked = errors.New("quiz locked: finish the lesson first")
)

const saveWarning = "Progress could not be saved. It is kept for this session and saving will be retried."

// EngineConfig holds dependencies for the tutorial engine.
type EngineConfig struct {
	Catalog *catalog.Catalog
	Store   *progress.Store  // defaults to an in-memory store
	Events  EventLogger      // defaults to NopEventLogger
	Clock   func() time.Time // defaults to time.Now
	NewID   func() string    // session id generator, defaults to uuid
}

// Engine is the single owner of the session. It is not safe for concurrent use;
// callers serialize access.
type Engine struct {
	catalog *catalog.Catalog
	store   *progress.Store
	events  EventLogger
	now     func() time.Time
	newID   func() string

	sessionID     string
	phase         Phase
	currentModule int
	module        catalog.Module
	nav           lesson.Navigator
	quiz          quiz.Engine
	startedAt     time.Time
	progress      progress.Progress
	achievement   *Achievement
	warning       string

	observers    map[int]func(Snapshot)
	nextObserver int
}

// NewEngine creates the engine and loads persisted progress.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil || cfg.Catalog.Len() == 0 {
		return nil, fmt.Errorf("catalog has no modules")
	}
	store := cfg.Store
	if store == nil {
		store = progress.NewStore(progress.NewMemoryBackend())
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	e := &Engine{
		catalog:   cfg.Catalog,
		store:     store,
		events:    events,
		now:       now,
		newID:     newID,
		observers: make(map[int]func(Snapshot)),
	}
	e.progress = store.Load(context.Background())
	e.initSession()

	slog.Info("tutorial session started",
		"session_id", e.sessionID,
		"completed_modules", len(e.progress.CompletedModules),
	)
	return e, nil
}

// StartModule opens a module at its first step.
func (e *Engine) StartModule(id int) error {
	m, err := e.catalog.Get(id)
	if err != nil {
		return err
	}
	if err := e.nav.Start(m, e.progress.CompletedModules); err != nil {
		return err
	}

	e.module = m
	e.currentModule = id
	e.quiz.Reset()
	e.achievement = nil
	e.phase = PhaseLesson
	e.startedAt = e.now()

	e.logEvent(EventModuleStarted, id, nil)
	e.notify()
	return nil
}

// NextStep advances the lesson; from the last step it enters the quiz.
func (e *Engine) NextStep() error {
	if e.phase != PhaseLesson {
		return ErrWrongPhase
	}
	out, err := e.nav.Next()
	if err != nil {
		return err
	}
	if out == lesson.EnterQuiz {
		e.startQuiz()
	}
	e.notify()
	return nil
}

// PreviousStep goes back one step; a no-op on the first step.
func (e *Engine) PreviousStep() error {
	if e.phase != PhaseLesson {
		return ErrWrongPhase
	}
	if err := e.nav.Previous(); err != nil {
		return err
	}
	e.notify()
	return nil
}

// JumpToStep moves to any step of the active lesson.
func (e *Engine) JumpToStep(index int) error {
	if e.phase != PhaseLesson {
		return ErrWrongPhase
	}
	if err := e.nav.JumpTo(index); err != nil {
		return err
	}
	e.notify()
	return nil
}

// RetakeQuiz resumes directly into the quiz of a module whose lesson was already completed.
func (e *Engine) RetakeQuiz(id int) error {
	m, err := e.catalog.Get(id)
	if err != nil {
		return err
	}
	if !unlock.IsCompleted(id, e.progress.CompletedModules) {
		return fmt.Errorf("%w: module %d", ErrQuizLocked, id)
	}
	if err := e.nav.Start(m, e.progress.CompletedModules); err != nil {
		return err
	}
	if err := e.nav.JumpTo(m.LastStep()); err != nil {
		return err
	}

	e.module = m
	e.currentModule = id
	e.achievement = nil
	e.startedAt = e.now()
	e.startQuiz()
	e.notify()
	return nil
}

// SelectAnswer records the pending answer for the current question.
func (e *Engine) SelectAnswer(option int) error {
	if e.phase != PhaseQuiz {
		return ErrWrongPhase
	}
	if err := e.quiz.SelectAnswer(option); err != nil {
		return err
	}
	e.notify()
	return nil
}

// SubmitAnswer scores the pending answer.
func (e *Engine) SubmitAnswer() (quiz.Result, error) {
	if e.phase != PhaseQuiz {
		return quiz.Result{}, ErrWrongPhase
	}
	question := e.quiz.Current()
	res, err := e.quiz.Submit()
	if err != nil {
		return quiz.Result{}, err
	}
	e.logSubmission(question, res)
	e.notify()
	return res, nil
}

// AdvanceQuiz moves past an answered question. After the last one the module completes.
func (e *Engine) AdvanceQuiz() error {
	if e.phase != PhaseQuiz {
		return ErrWrongPhase
	}
	finished, err := e.quiz.Advance()
	if err != nil {
		return err
	}
	if finished {
		e.completeModule()
	}
	e.notify()
	return nil
}

// Activate is the quiz's single primary action: submit while answering, advance once answered.
func (e *Engine) Activate() (quiz.Action, *quiz.Result, error) {
	if e.phase != PhaseQuiz {
		return quiz.Submitted, nil, ErrWrongPhase
	}
	question := e.quiz.Current()
	action, res, err := e.quiz.Activate()
	if err != nil {
		return action, nil, err
	}
	switch action {
	case quiz.Submitted:
		e.logSubmission(question, *res)
	case quiz.Completed:
		e.completeModule()
	}
	e.notify()
	return action, res, nil
}

// BackToModules leaves the current lesson or quiz for the module list.
func (e *Engine) BackToModules() {
	e.nav.Reset()
	e.quiz.Reset()
	e.phase = PhaseModules
	e.notify()
}

// ContinueToNextModule leaves the completion screen. It returns the module that
// follows the one just completed, or allDone when every module is completed.
func (e *Engine) ContinueToNextModule() (next int, allDone bool, err error) {
	if e.phase != PhaseComplete {
		return 0, false, ErrWrongPhase
	}

	allDone = e.allCompleted()
	if e.currentModule < e.catalog.Len() {
		next = e.currentModule + 1
	}

	e.nav.Reset()
	e.quiz.Reset()
	e.achievement = nil
	e.phase = PhaseModules
	e.startedAt = e.now()
	e.notify()
	return next, allDone, nil
}

// ResetAll discards persisted and in-memory progress and returns to first-run state.
// Observers are notified once, after every step has completed.
func (e *Engine) ResetAll() {
	ctx := context.Background()
	if err := e.store.Clear(ctx); err != nil {
		e.warning = saveWarning
	} else {
		e.warning = ""
	}

	oldSession := e.sessionID
	e.progress = progress.Empty()
	e.initSession()

	e.logEvent(EventProgressReset, 0, map[string]any{"previous_session_id": oldSession})
	slog.Info("progress reset", "session_id", e.sessionID)
	e.notify()
}

// State returns a copy of the session state.
func (e *Engine) State() SessionState {
	return SessionState{
		SessionID:           e.sessionID,
		Phase:               e.phase,
		CurrentModule:       e.currentModule,
		CurrentStep:         e.nav.Step(),
		CurrentQuizQuestion: e.quiz.Current(),
		QuizScore:           e.quiz.Score(),
		SelectedAnswer:      e.quiz.Selected(),
		QuizPhase:           e.quiz.Phase().String(),
		StartedAt:           e.startedAt,
	}
}

// Progress returns a copy of the completion history.
func (e *Engine) Progress() progress.Progress {
	return e.progress.Clone()
}

// Catalog returns the content catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// ScorePercentage returns the current quiz pass score as a percentage.
func (e *Engine) ScorePercentage() int {
	return e.quiz.ScorePercentage()
}

// Snapshot returns the read-only projection consumed by the presentation layer.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:         e.State(),
		StepCount:     e.nav.Total(),
		QuestionCount: e.quiz.Total(),
		Completed:     slices.Clone(e.progress.CompletedModules),
		TotalModules:  e.catalog.Len(),
		TotalProgress: e.progress.UserProgress.TotalProgress,
		Warning:       e.warning,
	}
	if r := e.quiz.LastResult(); r != nil {
		res := *r
		s.LastResult = &res
	}
	if e.achievement != nil {
		a := *e.achievement
		s.Achievement = &a
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = fn
	return func() { delete(e.observers, id) }
}

func (e *Engine) initSession() {
	e.sessionID = e.newID()
	e.phase = PhaseModules
	e.currentModule = 1
	e.module = catalog.Module{}
	e.nav.Reset()
	e.quiz.Reset()
	e.achievement = nil
	e.startedAt = e.now()
}

func (e *Engine) startQuiz() {
	e.quiz.Start(e.module.Quiz)
	e.phase = PhaseQuiz
	e.logEvent(EventQuizStarted, e.currentModule, map[string]any{"questions": len(e.module.Quiz)})
}

func (e *Engine) completeModule() {
	id := e.currentModule
	score, total, pct := e.quiz.Score(), e.quiz.Total(), e.quiz.ScorePercentage()
	minutes := completionMinutes(e.now().Sub(e.startedAt))

	e.progress.CompletedModules = unlock.Complete(id, e.progress.CompletedModules)
	modules := maps.Clone(e.progress.UserProgress.Modules)
	modules[id] = progress.ModuleProgress{
		Score:             score,
		Questions:         total,
		Percentage:        pct,
		CompletionMinutes: minutes,
		CompletedAt:       e.now().UTC(),
	}
	e.progress.UserProgress.Modules = modules
	e.progress.UserProgress.TotalProgress = totalProgress(len(e.progress.CompletedModules), e.catalog.Len())
	e.save()

	e.phase = PhaseComplete
	e.achievement = &Achievement{
		ModuleID:            id,
		Title:               e.module.Title,
		Icon:                e.module.Icon,
		Score:               score,
		Questions:           total,
		Percentage:          pct,
		CompletionMinutes:   minutes,
		AllModulesCompleted: e.allCompleted(),
	}

	e.logEvent(EventModuleCompleted, id, map[string]any{
		"score":              score,
		"questions":          total,
		"percentage":         pct,
		"completion_minutes": minutes,
	})
	slog.Info("module completed", "session_id", e.sessionID, "module_id", id, "percentage", pct)
}

func (e *Engine) save() {
	if err := e.store.Save(context.Background(), e.progress.Clone()); err != nil {
		e.warning = saveWarning
		return
	}
	e.warning = ""
}

func (e *Engine) allCompleted() bool {
	for _, m := range e.catalog.All() {
		if !unlock.IsCompleted(m.ID, e.progress.CompletedModules) {
			return false
		}
	}
	return true
}

func (e *Engine) logSubmission(question int, res quiz.Result) {
	e.logEvent(EventAnswerSubmitted, e.currentModule, map[string]any{
		"question": question,
		"selected": res.Selected,
		"correct":  res.IsCorrect,
	})
}

func (e *Engine) logEvent(eventType string, moduleID int, data map[string]any) {
	if err := e.events.LogEvent(Event{
		SessionID: e.sessionID,
		EventType: eventType,
		ModuleID:  moduleID,
		Data:      data,
		CreatedAt: e.now(),
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "error", err)
	}
}

func (e *Engine) notify() {
	if len(e.observers) == 0 {
		return
	}
	snap := e.Snapshot()
	ids := slices.Sorted(maps.Keys(e.observers))
	for _, id := range ids {
		if fn, ok := e.observers[id]; ok {
			fn(snap)
		}
	}
}

// completionMinutes converts elapsed time to minutes rounded to two decimals.
func completionMinutes(d time.Duration) float64 {
	return math.Round(d.Minutes()*100) / 100
}

// totalProgress is the share of completed modules as a percentage.
func totalProgress(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Min(100, float64(completed)/float64(total)*100)
}
