package models

// ScoreType classifies a single score entry.
type ScoreType string

const (
	ScoreTypeExam     ScoreType = "exam"
	ScoreTypeQuiz     ScoreType = "quiz"
	ScoreTypeHomework ScoreType = "homework"
)

// Bounds enforced on stored records.
const (
	MinClassID = 0
	MaxClassID = 300
	MinScore   = 0
	MaxScore   = 100
)

// ScoreEntry is one scored piece of work inside a record.
type ScoreEntry struct {
	Type  ScoreType `db:"type" json:"type" validate:"required,oneof=exam quiz homework"`
	Score float64   `db:"score" json:"score" validate:"min=0,max=100"`
}

// ScoreRecord holds a learner's scores for one class.
type ScoreRecord struct {
	ClassID   int          `db:"class_id" json:"class_id" validate:"min=0,max=300"`
	LearnerID int          `db:"learner_id" json:"learner_id" validate:"min=0"`
	Scores    []ScoreEntry `json:"scores" validate:"dive"`
}

// ClassAverage is a learner's weighted average within one class.
type ClassAverage struct {
	ClassID int     `json:"class_id"`
	Avg     float64 `json:"avg"`
}

// LearnerAverage is a learner's weighted average across the current scope.
type LearnerAverage struct {
	LearnerID int     `json:"learner_id"`
	Avg       float64 `json:"avg"`
}

// StatsSummary reports how many learners in a scope reach the pass threshold.
type StatsSummary struct {
	TotalLearners int     `json:"totalLearners"`
	Learners      int     `json:"learners"`
	Percentage    float64 `json:"percentage"`
}

// GradeFilter scopes record lookups. Nil fields are unconstrained.
type GradeFilter struct {
	LearnerID *int
	ClassID   *int
}

// IntPtr is a small helper for building filters.
func IntPtr(v int) *int {
	return &v
}
