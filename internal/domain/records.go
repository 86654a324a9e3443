package domain

// Flashcard is a question/answer card with an optional study tip.
type Flashcard struct {
	Question string `json:"question" yaml:"question" validate:"required"`
	Answer   string `json:"answer" yaml:"answer" validate:"required"`
	Tip      string `json:"tip,omitempty" yaml:"tip,omitempty"`
}

// Difficulty is the optional level attached to a quiz question.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// QuizQuestion is a multiple choice question. CorrectAnswerIndex points into
// Options.
type QuizQuestion struct {
	Question           string     `json:"question" yaml:"question" validate:"required"`
	Options            []string   `json:"options" yaml:"options" validate:"min=2,max=4,dive,required"`
	CorrectAnswerIndex int        `json:"correctAnswerIndex" yaml:"correct_answer_index" validate:"gte=0"`
	Explanation        string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Difficulty         Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}

// CorrectAnswer returns the text of the correct option.
func (q QuizQuestion) CorrectAnswer() string {
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectAnswerIndex]
}

// CornellNote is a cue column, a notes column and a closing summary.
type CornellNote struct {
	Cues    []string `json:"cues" yaml:"cues" validate:"dive,required"`
	Notes   []string `json:"notes" yaml:"notes" validate:"dive,required"`
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// FeynmanIcon groups a Feynman step by what the learner does in it.
type FeynmanIcon string

const (
	IconTeach    FeynmanIcon = "teach"
	IconThink    FeynmanIcon = "think"
	IconSimplify FeynmanIcon = "simplify"
	IconReview   FeynmanIcon = "review"
)

// FeynmanStep is one numbered step of a Feynman technique walkthrough.
type FeynmanStep struct {
	StepNumber int         `json:"stepNumber" yaml:"step_number" validate:"gte=1"`
	Title      string      `json:"title" yaml:"title"`
	Content    string      `json:"content" yaml:"content" validate:"required"`
	Icon       FeynmanIcon `json:"icon" yaml:"icon" validate:"oneof=teach think simplify review"`
}

// MindMapNode is a node of a mind map tree. The root is the central topic at
// level 0.
type MindMapNode struct {
	ID       string        `json:"id" yaml:"id" validate:"required"`
	Label    string        `json:"label" yaml:"label" validate:"required"`
	Children []MindMapNode `json:"children,omitempty" yaml:"children,omitempty" validate:"dive"`
	Level    int           `json:"level" yaml:"level" validate:"gte=0"`
}

// Count returns the number of nodes in the subtree rooted at n.
func (n MindMapNode) Count() int {
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}

// ReviewSession is one day of a spaced repetition plan.
type ReviewSession struct {
	Day       int      `json:"day" yaml:"day" validate:"gte=1"`
	DateLabel string   `json:"date,omitempty" yaml:"date,omitempty"`
	Topics    []string `json:"topics" yaml:"topics" validate:"min=1,dive,required"`
	Objective string   `json:"objective,omitempty" yaml:"objective,omitempty"`
	Completed bool     `json:"completed" yaml:"completed"`
}

// RecallQuestion is an active recall prompt.
type RecallQuestion struct {
	Question string `json:"question" yaml:"question" validate:"required"`
	Answer   string `json:"answer" yaml:"answer" validate:"required"`
	Hint     string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// PomodoroSession is one focus block of a Pomodoro plan.
type PomodoroSession struct {
	SessionNumber    int      `json:"sessionNumber" yaml:"session_number" validate:"gte=1"`
	Focus            string   `json:"focus" yaml:"focus"`
	Activities       []string `json:"activities" yaml:"activities" validate:"min=1,dive,required"`
	BreakDescription string   `json:"breakDescription,omitempty" yaml:"break_description,omitempty"`
}

// Summary is an "easy summary": a main idea, key points and an example.
type Summary struct {
	MainIdea  string   `json:"mainIdea,omitempty" yaml:"main_idea,omitempty"`
	KeyPoints []string `json:"keyPoints,omitempty" yaml:"key_points,omitempty" validate:"dive,required"`
	Example   string   `json:"example,omitempty" yaml:"example,omitempty"`
}
