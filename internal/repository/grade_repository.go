package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/grade-stats-api/internal/models"
)

// GradeRepository reads and seeds learner score records.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

type gradeScoreRow struct {
	GradeID   int64           `db:"grade_id"`
	ClassID   int             `db:"class_id"`
	LearnerID int             `db:"learner_id"`
	Type      sql.NullString  `db:"type"`
	Score     sql.NullFloat64 `db:"score"`
}

// Find returns the records matching filter with their scores in stored order.
func (r *GradeRepository) Find(ctx context.Context, filter models.GradeFilter) ([]models.ScoreRecord, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT g.id AS grade_id, g.class_id, g.learner_id, s.type, s.score
        FROM grades g
        LEFT JOIN grade_scores s ON s.grade_id = g.id
        WHERE 1=1`)
	args := applyGradeFilter(&builder, "g.", filter)
	builder.WriteString(" ORDER BY g.id, s.position")

	var rows []gradeScoreRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("find grade records: %w", err)
	}

	records := make([]models.ScoreRecord, 0)
	index := make(map[int64]int)
	for _, row := range rows {
		pos, ok := index[row.GradeID]
		if !ok {
			records = append(records, models.ScoreRecord{ClassID: row.ClassID, LearnerID: row.LearnerID})
			pos = len(records) - 1
			index[row.GradeID] = pos
		}
		if row.Type.Valid && row.Score.Valid {
			records[pos].Scores = append(records[pos].Scores, models.ScoreEntry{Type: models.ScoreType(row.Type.String), Score: row.Score.Float64})
		}
	}
	return records, nil
}

// DistinctLearnerCount counts distinct learner ids in the filtered scope.
func (r *GradeRepository) DistinctLearnerCount(ctx context.Context, filter models.GradeFilter) (int, error) {
	var builder strings.Builder
	builder.WriteString("SELECT COUNT(DISTINCT learner_id) FROM grades WHERE 1=1")
	args := applyGradeFilter(&builder, "", filter)

	var count int
	if err := r.db.GetContext(ctx, &count, builder.String(), args...); err != nil {
		return 0, fmt.Errorf("count distinct learners: %w", err)
	}
	return count, nil
}

// InsertRecords stores records and their scores in one transaction.
func (r *GradeRepository) InsertRecords(ctx context.Context, records []models.ScoreRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert grades: %w", err)
	}
	for _, record := range records {
		var gradeID int64
		if err := tx.QueryRowxContext(ctx, "INSERT INTO grades (class_id, learner_id) VALUES ($1, $2) RETURNING id", record.ClassID, record.LearnerID).Scan(&gradeID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert grade: %w", err)
		}
		for position, entry := range record.Scores {
			if _, err := tx.ExecContext(ctx, "INSERT INTO grade_scores (grade_id, position, type, score) VALUES ($1, $2, $3, $4)", gradeID, position, string(entry.Type), entry.Score); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert grade score: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert grades: %w", err)
	}
	return nil
}

func applyGradeFilter(builder *strings.Builder, prefix string, filter models.GradeFilter) []interface{} {
	var args []interface{}
	if filter.LearnerID != nil {
		args = append(args, *filter.LearnerID)
		builder.WriteString(fmt.Sprintf(" AND %slearner_id = $%d", prefix, len(args)))
	}
	if filter.ClassID != nil {
		args = append(args, *filter.ClassID)
		builder.WriteString(fmt.Sprintf(" AND %sclass_id = $%d", prefix, len(args)))
	}
	return args
}
