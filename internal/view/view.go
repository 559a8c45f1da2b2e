// Package view projects an engine snapshot into the labels, flags and text the
// renderer draws. Everything here is derived; nothing is stored.
package view

import (
	"math"

	"golang.org/x/text/message"

	"github.com/p-n-ai/pai-tutorial/internal/catalog"
	"github.com/p-n-ai/pai-tutorial/internal/quiz"
	"github.com/p-n-ai/pai-tutorial/internal/tutorial"
	"github.com/p-n-ai/pai-tutorial/internal/unlock"
)

// CardStatus is the state of a module card on the module list.
type CardStatus string

const (
	CardLocked    CardStatus = "locked"
	CardAvailable CardStatus = "available"
	CardCompleted CardStatus = "completed"
)

// ViewModel is everything the renderer needs for the current screen.
type ViewModel struct {
	SessionID   string           `json:"sessionId"`
	Phase       tutorial.Phase   `json:"phase"`
	Progress    ProgressBar      `json:"progress"`
	Modules     []ModuleCard     `json:"modules"`
	Lesson      *LessonView      `json:"lesson,omitempty"`
	Quiz        *QuizView        `json:"quiz,omitempty"`
	Achievement *AchievementView `json:"achievement,omitempty"`
	Warning     string           `json:"warning,omitempty"`
}

type ProgressBar struct {
	Percent int    `json:"percent"`
	Text    string `json:"text"`
}

type ModuleCard struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Status      CardStatus `json:"status"`
	Badge       string     `json:"badge"`
}

type LessonView struct {
	ModuleID    int               `json:"moduleId"`
	Title       string            `json:"title"`
	StepTitle   string            `json:"stepTitle"`
	Content     string            `json:"content"`
	Hotspots    []catalog.Hotspot `json:"hotspots,omitempty"`
	Position    string            `json:"position"`
	Steps       []StepItem        `json:"steps"`
	CanGoBack   bool              `json:"canGoBack"`
	NextLabel   string            `json:"nextLabel"`
	CurrentStep int               `json:"currentStep"`
}

type StepItem struct {
	Index     int    `json:"index"`
	Label     string `json:"label"`
	Title     string `json:"title"`
	Current   bool   `json:"current"`
	Completed bool   `json:"completed"`
}

type QuizView struct {
	ModuleID       int          `json:"moduleId"`
	QuestionNumber int          `json:"questionNumber"`
	TotalQuestions int          `json:"totalQuestions"`
	Question       string       `json:"question"`
	Options        []OptionItem `json:"options"`
	Submitted      bool         `json:"submitted"`
	Result         *ResultView  `json:"result,omitempty"`
	ActionLabel    string       `json:"actionLabel"`
	CanSubmit      bool         `json:"canSubmit"`
}

type OptionItem struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Selected  bool   `json:"selected"`
	Correct   bool   `json:"correct"`
	Incorrect bool   `json:"incorrect"`
}

type ResultView struct {
	Correct     bool   `json:"correct"`
	Heading     string `json:"heading"`
	Explanation string `json:"explanation"`
}

type AchievementView struct {
	Text                string `json:"text"`
	Icon                string `json:"icon"`
	Time                string `json:"time"`
	Score               string `json:"score"`
	AllModulesCompleted bool   `json:"allModulesCompleted"`
	AllDoneText         string `json:"allDoneText,omitempty"`
}

// Render builds the view model for snap. A nil printer renders English.
func Render(snap tutorial.Snapshot, cat *catalog.Catalog, p *message.Printer) ViewModel {
	if p == nil {
		p = NewPrinter("en")
	}

	percent := progressPercent(len(snap.Completed), snap.TotalModules)
	vm := ViewModel{
		SessionID: snap.State.SessionID,
		Phase:     snap.State.Phase,
		Progress:  ProgressBar{Percent: percent, Text: p.Sprintf(msgProgress, percent)},
		Modules:   moduleCards(cat, snap.Completed, p),
		Warning:   snap.Warning,
	}

	m, err := cat.Get(snap.State.CurrentModule)
	if err != nil {
		return vm
	}

	switch snap.State.Phase {
	case tutorial.PhaseLesson:
		vm.Lesson = lessonView(m, snap.State.CurrentStep, p)
	case tutorial.PhaseQuiz:
		vm.Quiz = quizView(m, snap, p)
	case tutorial.PhaseComplete:
		if snap.Achievement != nil {
			vm.Achievement = achievementView(*snap.Achievement, p)
		}
	}
	return vm
}

func progressPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(math.Min(100, float64(completed)/float64(total)*100)))
}

func moduleCards(cat *catalog.Catalog, completed []int, p *message.Printer) []ModuleCard {
	modules := cat.All()
	cards := make([]ModuleCard, 0, len(modules))
	for _, m := range modules {
		card := ModuleCard{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Icon:        m.Icon,
		}
		switch {
		case unlock.IsCompleted(m.ID, completed):
			card.Status, card.Badge = CardCompleted, p.Sprintf(msgBadgeCompleted)
		case unlock.IsUnlocked(m.ID, completed):
			card.Status, card.Badge = CardAvailable, p.Sprintf(msgBadgeAvailable)
		default:
			card.Status, card.Badge = CardLocked, p.Sprintf(msgBadgeLocked)
		}
		cards = append(cards, card)
	}
	return cards
}

func lessonView(m catalog.Module, current int, p *message.Printer) *LessonView {
	if current < 0 || current >= len(m.Steps) {
		return nil
	}
	step := m.Steps[current]

	items := make([]StepItem, len(m.Steps))
	for i, s := range m.Steps {
		items[i] = StepItem{
			Index:     i,
			Label:     p.Sprintf(msgStepLabel, i+1),
			Title:     s.Title,
			Current:   i == current,
			Completed: i < current,
		}
	}

	next := msgNext
	if current == m.LastStep() {
		next = msgTakeQuiz
	}

	return &LessonView{
		ModuleID:    m.ID,
		Title:       p.Sprintf(msgModuleTitle, m.ID, m.Title),
		StepTitle:   step.Title,
		Content:     step.Content,
		Hotspots:    step.Hotspots,
		Position:    p.Sprintf(msgStepPosition, current+1, len(m.Steps)),
		Steps:       items,
		CanGoBack:   current > 0,
		NextLabel:   p.Sprintf(next),
		CurrentStep: current,
	}
}

func quizView(m catalog.Module, snap tutorial.Snapshot, p *message.Printer) *QuizView {
	qi := snap.State.CurrentQuizQuestion
	if qi < 0 || qi >= len(m.Quiz) {
		return nil
	}
	q := m.Quiz[qi]
	submitted := snap.State.QuizPhase == quiz.Answered.String() && snap.LastResult != nil

	options := make([]OptionItem, len(q.Options))
	for i, text := range q.Options {
		opt := OptionItem{Index: i, Text: text, Selected: i == snap.State.SelectedAnswer}
		if submitted {
			opt.Correct = i == snap.LastResult.CorrectIndex
			opt.Incorrect = i == snap.LastResult.Selected && !snap.LastResult.IsCorrect
		}
		options[i] = opt
	}

	v := &QuizView{
		ModuleID:       m.ID,
		QuestionNumber: qi + 1,
		TotalQuestions: len(m.Quiz),
		Question:       q.Question,
		Options:        options,
		Submitted:      submitted,
		ActionLabel:    p.Sprintf(msgSubmitAnswer),
		CanSubmit:      snap.State.SelectedAnswer != quiz.NoAnswer,
	}
	if submitted {
		heading := msgIncorrect
		if snap.LastResult.IsCorrect {
			heading = msgCorrect
		}
		v.Result = &ResultView{
			Correct:     snap.LastResult.IsCorrect,
			Heading:     p.Sprintf(heading),
			Explanation: snap.LastResult.Explanation,
		}
		v.CanSubmit = false
		if qi < m.LastQuestion() {
			v.ActionLabel = p.Sprintf(msgNextQuestion)
		} else {
			v.ActionLabel = p.Sprintf(msgCompleteModule)
		}
	}
	return v
}

func achievementView(a tutorial.Achievement, p *message.Printer) *AchievementView {
	v := &AchievementView{
		Text:                p.Sprintf(msgAchievement, a.ModuleID, a.Title),
		Icon:                a.Icon,
		Time:                p.Sprintf(msgMinutes, a.CompletionMinutes),
		Score:               p.Sprintf(msgScore, a.Percentage),
		AllModulesCompleted: a.AllModulesCompleted,
	}
	if a.AllModulesCompleted {
		v.AllDoneText = p.Sprintf(msgAllDone)
	}
	return v
}
