package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-stats-api/internal/models"
	appErrors "github.com/noah-isme/grade-stats-api/pkg/errors"
)

type gradeRecordWriter interface {
	InsertRecords(ctx context.Context, records []models.ScoreRecord) error
}

// SampleRecords is the record set used when no seed file is given.
func SampleRecords() []models.ScoreRecord {
	return []models.ScoreRecord{{
		ClassID:   2,
		LearnerID: 2,
		Scores: []models.ScoreEntry{
			{Type: models.ScoreTypeExam, Score: 80},
			{Type: models.ScoreTypeQuiz, Score: 70},
			{Type: models.ScoreTypeHomework, Score: 90},
			{Type: models.ScoreTypeHomework, Score: 100},
		},
	}}
}

// SeedService validates and loads initial grade records.
type SeedService struct {
	writer    gradeRecordWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSeedService constructs SeedService.
func NewSeedService(writer gradeRecordWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SeedService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{writer: writer, cache: cache, validator: validate, logger: logger}
}

// seedRecord is the wire shape of a seed file entry. Pointer ids let an
// absent field be told apart from an explicit 0.
type seedRecord struct {
	ClassID   *int                `json:"class_id" validate:"required,min=0,max=300"`
	LearnerID *int                `json:"learner_id" validate:"required,min=0"`
	Scores    []models.ScoreEntry `json:"scores" validate:"dive"`
}

// Decode reads a JSON array of records. Unknown fields and records missing
// class_id or learner_id reject the whole payload.
func (s *SeedService) Decode(r io.Reader) ([]models.ScoreRecord, error) {
	var raw []seedRecord
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seed payload")
	}

	records := make([]models.ScoreRecord, 0, len(raw))
	for i := range raw {
		if err := s.validator.Struct(raw[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid grade record at index %d", i))
		}
		records = append(records, models.ScoreRecord{
			ClassID:   *raw[i].ClassID,
			LearnerID: *raw[i].LearnerID,
			Scores:    raw[i].Scores,
		})
	}
	return records, nil
}

// Validate checks every record against the stored-record bounds.
func (s *SeedService) Validate(records []models.ScoreRecord) error {
	for i := range records {
		if err := s.validator.Struct(records[i]); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid grade record at index %d", i))
		}
	}
	return nil
}

// Seed inserts records all-or-nothing: one invalid record rejects the batch.
// Cached statistics are dropped afterwards.
func (s *SeedService) Seed(ctx context.Context, records []models.ScoreRecord) error {
	if len(records) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no grade records to seed")
	}
	if err := s.Validate(records); err != nil {
		return err
	}
	if err := s.writer.InsertRecords(ctx, records); err != nil {
		return appErrors.Unavailable(err, "failed to insert grade records")
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("stats cache not invalidated after seed", zap.Error(err))
	}
	s.logger.Info("grade records seeded", zap.Int("records", len(records)))
	return nil
}
