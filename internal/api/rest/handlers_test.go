package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maccabipedia/basketbot/internal/pipeline"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/store"
	"github.com/maccabipedia/basketbot/internal/store/repository"
)

type staticCycles []pipeline.CycleReport

func (s staticCycles) LastReports() []pipeline.CycleReport { return s }

type fakeScheduler struct {
	queued bool
}

func (f *fakeScheduler) Trigger() bool {
	if f.queued {
		return false
	}
	f.queued = true
	return true
}

func (f *fakeScheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{"cycles": 3}
}

type fakeRecords struct {
	rows  []*store.PublishedRecord
	limit int
}

func (f *fakeRecords) Recent(_ context.Context, limit int) ([]*store.PublishedRecord, error) {
	f.limit = limit
	return f.rows, nil
}

func (f *fakeRecords) ByTitle(_ context.Context, title string) (*store.PublishedRecord, error) {
	for _, r := range f.rows {
		if r.Title == title {
			return r, nil
		}
	}
	return nil, errors.Mark(errors.New("missing"), repository.ErrNotFound)
}

const title = "כדורסל:08-10-2025 הפועל ירושלים נגד מכבי תל אביב - ליגת העל"

func newTestRouter(deps Deps) http.Handler {
	return NewRouter(NewHandler(deps), logging.NewNop())
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestLastCycle(t *testing.T) {
	h := newTestRouter(Deps{Cycles: staticCycles{{Source: "basket", Published: 2}}})

	rec := do(t, h, "GET", "/api/v1/cycles/last")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []pipeline.CycleReport
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, 2, body[0].Published)

	empty := newTestRouter(Deps{Cycles: staticCycles{}})
	assert.Equal(t, http.StatusNotFound, do(t, empty, "GET", "/api/v1/cycles/last").Code)
}

func TestTriggerCycle(t *testing.T) {
	h := newTestRouter(Deps{Cycles: staticCycles{}, Scheduler: &fakeScheduler{}})

	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/api/v1/cycles").Code)
	assert.Equal(t, http.StatusConflict, do(t, h, "POST", "/api/v1/cycles").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, "GET", "/api/v1/cycles").Code)

	status := do(t, h, "GET", "/api/v1/scheduler/status")
	assert.Equal(t, http.StatusOK, status.Code)
	assert.JSONEq(t, `{"cycles":3}`, status.Body.String())

	none := newTestRouter(Deps{Cycles: staticCycles{}})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, none, "POST", "/api/v1/cycles").Code)
}

func TestRecords(t *testing.T) {
	records := &fakeRecords{rows: []*store.PublishedRecord{{Title: title, OwnScore: 80, OpponentScore: 70}}}
	h := newTestRouter(Deps{Cycles: staticCycles{}, Records: records})

	rec := do(t, h, "GET", "/api/v1/records?limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, records.limit)

	do(t, h, "GET", "/api/v1/records?limit=abc")
	assert.Equal(t, 50, records.limit)

	one := do(t, h, "GET", "/api/v1/records/"+url.PathEscape(title))
	require.Equal(t, http.StatusOK, one.Code)
	var got store.PublishedRecord
	require.NoError(t, sonic.Unmarshal(one.Body.Bytes(), &got))
	assert.Equal(t, 80, got.OwnScore)

	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/api/v1/records/missing").Code)

	noLedger := newTestRouter(Deps{Cycles: staticCycles{}})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, noLedger, "GET", "/api/v1/records").Code)
}

func TestHealthReportsDependencies(t *testing.T) {
	healthy := newTestRouter(Deps{Cycles: staticCycles{}, Health: map[string]HealthFunc{
		"database": func(context.Context) error { return nil },
	}})
	rec := do(t, healthy, "GET", "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	degraded := newTestRouter(Deps{Cycles: staticCycles{}, Health: map[string]HealthFunc{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	}})
	rec = do(t, degraded, "GET", "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

type panicCycles struct{}

func (panicCycles) LastReports() []pipeline.CycleReport { panic("boom") }

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestRouter(Deps{Cycles: panicCycles{}})

	rec := do(t, h, "GET", "/api/v1/cycles/last")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
