package catalog

// Module is one tutorial module: an ordered lesson followed by a quiz.
type Module struct {
	ID          int            `yaml:"id" validate:"gte=1"`
	Title       string         `yaml:"title" validate:"required"`
	Description string         `yaml:"description"`
	Icon        string         `yaml:"icon"`
	Steps       []Step         `yaml:"steps" validate:"min=1,dive"`
	Quiz        []QuizQuestion `yaml:"quiz" validate:"min=1,dive"`
}

// Step is a single instructional step of a module.
type Step struct {
	Title    string    `yaml:"title" validate:"required"`
	Content  string    `yaml:"content"` // opaque markup, rendered by the presentation layer
	Hotspots []Hotspot `yaml:"hotspots" validate:"dive"`
}

// Hotspot marks a point of interest on a step's screenshot.
type Hotspot struct {
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Tooltip string `yaml:"tooltip"`
}

// QuizQuestion is a multiple-choice question with exactly one correct option.
type QuizQuestion struct {
	Question    string   `yaml:"question" validate:"required"`
	Options     []string `yaml:"options" validate:"min=2"`
	Correct     int      `yaml:"correct" validate:"gte=0"`
	Explanation string   `yaml:"explanation"`
}

// LastStep returns the index of the module's final step.
func (m Module) LastStep() int {
	return len(m.Steps) - 1
}

// LastQuestion returns the index of the module's final quiz question.
func (m Module) LastQuestion() int {
	return len(m.Quiz) - 1
}
