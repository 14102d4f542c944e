package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grade-stats-api/internal/models"
	appErrors "github.com/noah-isme/grade-stats-api/pkg/errors"
	"github.com/noah-isme/grade-stats-api/pkg/response"
)

type gradeStatsService interface {
	ClassAveragesForLearner(ctx context.Context, learnerID int) ([]models.ClassAverage, error)
	PassRateStats(ctx context.Context, classID *int) (models.StatsSummary, error)
}

// GradeHandler exposes the grade average and pass-rate endpoints.
type GradeHandler struct {
	stats gradeStatsService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(stats gradeStatsService) *GradeHandler {
	return &GradeHandler{stats: stats}
}

// ClassAverages godoc
// @Summary Weighted average per class for a learner
// @Tags Grades
// @Produce json
// @Param id path int true "Learner ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /learner/{id}/avg-class [get]
func (h *GradeHandler) ClassAverages(c *gin.Context) {
	learnerID, err := parseID(c.Param("id"), "learner id")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	averages, err := h.stats.ClassAveragesForLearner(c.Request.Context(), learnerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(averages) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no grade records for learner %d", learnerID)))
		return
	}
	response.JSON(c, http.StatusOK, averages, processingMeta(start))
}

// Stats godoc
// @Summary Pass rate across all learners
// @Tags Grades
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /stats [get]
func (h *GradeHandler) Stats(c *gin.Context) {
	h.respondStats(c, nil)
}

// ClassStats godoc
// @Summary Pass rate for the learners of one class
// @Tags Grades
// @Produce json
// @Param classId path int true "Class ID (0-300)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /stats/{classId} [get]
func (h *GradeHandler) ClassStats(c *gin.Context) {
	classID, err := parseID(c.Param("classId"), "class id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if classID > models.MaxClassID {
		response.Error(c, appErrors.Invalid("class id must be between %d and %d", models.MinClassID, models.MaxClassID))
		return
	}
	h.respondStats(c, &classID)
}

func (h *GradeHandler) respondStats(c *gin.Context, classID *int) {
	start := time.Now()
	summary, err := h.stats.PassRateStats(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, processingMeta(start))
}

// parseID accepts only plain decimal digits; signs, blanks and overflow are rejected.
func parseID(raw, name string) (int, error) {
	invalid := appErrors.Invalid("%s must be a non-negative integer", name)
	if raw == "" {
		return 0, invalid
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, invalid
		}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid
	}
	return id, nil
}

func processingMeta(start time.Time) map[string]interface{} {
	return map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
}
