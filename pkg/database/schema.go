package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements provisions the grade tables. The CHECK constraints mirror the
// write-boundary rules: class 0..300, learner >= 0, score 0..100, known score types.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS grades (
        id BIGSERIAL PRIMARY KEY,
        class_id INTEGER NOT NULL CHECK (class_id BETWEEN 0 AND 300),
        learner_id INTEGER NOT NULL CHECK (learner_id >= 0)
    )`,
	`CREATE TABLE IF NOT EXISTS grade_scores (
        grade_id BIGINT NOT NULL REFERENCES grades(id) ON DELETE CASCADE,
        position INTEGER NOT NULL,
        type TEXT NOT NULL CHECK (type IN ('exam', 'quiz', 'homework')),
        score DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 100),
        PRIMARY KEY (grade_id, position)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_grades_class_id ON grades (class_id)`,
	`CREATE INDEX IF NOT EXISTS idx_grades_learner_id ON grades (learner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_grades_class_learner ON grades (class_id, learner_id)`,
}

// EnsureSchema creates the grade tables and indexes when they are missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
