package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grade-stats-api/internal/models"
	appErrors "github.com/noah-isme/grade-stats-api/pkg/errors"
)

type fakeGradeStatsSrv struct {
	averages     []models.ClassAverage
	summary      models.StatsSummary
	err          error
	learnerCalls []int
	classCalls   []*int
}

func (f *fakeGradeStatsSrv) ClassAveragesForLearner(_ context.Context, learnerID int) ([]models.ClassAverage, error) {
	f.learnerCalls = append(f.learnerCalls, learnerID)
	return f.averages, f.err
}

func (f *fakeGradeStatsSrv) PassRateStats(_ context.Context, classID *int) (models.StatsSummary, error) {
	f.classCalls = append(f.classCalls, classID)
	return f.summary, f.err
}

type failingPinger struct{ err error }

func (p failingPinger) PingContext(context.Context) error { return p.err }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func newGradeRouter(srv *fakeGradeStatsSrv, store Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewGradeHandler(srv), NewMetricsHandler(nil, store))
	return r
}

func perform(r *gin.Engine, path string) (*httptest.ResponseRecorder, envelope) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestClassAveragesSuccess(t *testing.T) {
	srv := &fakeGradeStatsSrv{averages: []models.ClassAverage{{ClassID: 2, Avg: 80}}}
	r := newGradeRouter(srv, nil)

	rec, env := perform(r, "/learner/2/avg-class")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"class_id":2,"avg":80}]`, string(env.Data))
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Equal(t, []int{2}, srv.learnerCalls)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestClassAveragesNoRecords(t *testing.T) {
	r := newGradeRouter(&fakeGradeStatsSrv{averages: []models.ClassAverage{}}, nil)

	rec, env := perform(r, "/learner/41/avg-class")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestClassAveragesRejectsNonNumericID(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "+2", "1.5", "99999999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			srv := &fakeGradeStatsSrv{}
			r := newGradeRouter(srv, nil)

			rec, env := perform(r, "/learner/"+raw+"/avg-class")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			assert.Empty(t, srv.learnerCalls)
		})
	}
}

func TestStatsSuccess(t *testing.T) {
	srv := &fakeGradeStatsSrv{summary: models.StatsSummary{TotalLearners: 4, Learners: 2, Percentage: 50}}
	r := newGradeRouter(srv, nil)

	rec, env := perform(r, "/stats")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalLearners":4,"learners":2,"percentage":50}`, string(env.Data))
	require.Len(t, srv.classCalls, 1)
	assert.Nil(t, srv.classCalls[0])
}

func TestClassStatsPassesClassID(t *testing.T) {
	srv := &fakeGradeStatsSrv{summary: models.StatsSummary{}}
	r := newGradeRouter(srv, nil)

	rec, env := perform(r, "/stats/300")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalLearners":0,"learners":0,"percentage":0}`, string(env.Data))
	require.Len(t, srv.classCalls, 1)
	require.NotNil(t, srv.classCalls[0])
	assert.Equal(t, 300, *srv.classCalls[0])
}

func TestClassStatsRejectsInvalidID(t *testing.T) {
	for _, raw := range []string{"301", "x1", "%20"} {
		t.Run(raw, func(t *testing.T) {
			srv := &fakeGradeStatsSrv{}
			r := newGradeRouter(srv, nil)

			rec, _ := perform(r, "/stats/"+raw)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, srv.classCalls)
		})
	}
}

func TestStatsStorageUnavailable(t *testing.T) {
	storeErr := appErrors.Wrap(errors.New("dial tcp: refused"), appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load grade records")
	r := newGradeRouter(&fakeGradeStatsSrv{err: storeErr}, nil)

	rec, env := perform(r, "/stats")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "STORAGE_UNAVAILABLE", env.Error.Code)
}

func TestReadyReportsStoreFailure(t *testing.T) {
	r := newGradeRouter(&fakeGradeStatsSrv{}, failingPinger{err: errors.New("down")})

	rec, _ := perform(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = perform(r, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointWithoutService(t *testing.T) {
	r := newGradeRouter(&fakeGradeStatsSrv{}, nil)

	rec, _ := perform(r, "/metrics")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
