package api

import "time"

// Translation pairs a source text with its translated text.
type Translation struct {
	Source      string `json:"source"`
	Translation string `json:"translation"`
}

// TranslateRequest is the body of a synchronous translation call and of a
// background task.
type TranslateRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
	GlossaryID string   `json:"glossary_id,omitempty"`
	// Context is a free-form hint sent along with every text, e.g. the
	// file name or the spreadsheet column header.
	Context string `json:"context,omitempty"`
}

type translateResponse struct {
	Translations []Translation `json:"translations"`
}

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Done reports whether the task reached a terminal state.
func (s TaskStatus) Done() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

type Task struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Progress returns the completed fraction in [0, 1].
func (t *Task) Progress() float64 {
	if t.Total <= 0 {
		if t.Status == TaskCompleted {
			return 1
		}
		return 0
	}
	p := float64(t.Completed) / float64(t.Total)
	if p > 1 {
		return 1
	}
	return p
}

type taskResultResponse struct {
	Translations []Translation `json:"translations"`
}

type GlossaryTerm struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Note   string `json:"note,omitempty"`
}

type Glossary struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	SourceLang string         `json:"source_lang"`
	TargetLang string         `json:"target_lang"`
	Terms      []GlossaryTerm `json:"terms,omitempty"`
	TermCount  int            `json:"term_count"`
	CreatedAt  time.Time      `json:"created_at"`
}

type glossaryList struct {
	Glossaries []Glossary `json:"glossaries"`
}

type addTermsRequest struct {
	Terms []GlossaryTerm `json:"terms"`
}
