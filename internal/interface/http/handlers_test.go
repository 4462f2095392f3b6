package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cptrack/cptrack-hub/internal/infrastructure/scheduler"
)

// blockingJob blocks in Run until released, so tests can observe that the
// handler responds before the job finishes.
type blockingJob struct {
	release chan struct{}
	done    chan struct{}
}

func newBlockingJob() *blockingJob {
	return &blockingJob{release: make(chan struct{}), done: make(chan struct{})}
}

func (j *blockingJob) Name() string        { return "slow-batch" }
func (j *blockingJob) Description() string { return "Blocks until released" }

func (j *blockingJob) Run(context.Context) error {
	<-j.release
	close(j.done)
	return nil
}

func runJobRequest(t *testing.T, h *handler, name string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues(name)
	require.NoError(t, h.RunJob(c))
	return rec
}

func TestRunJob_RespondsBeforeJobFinishes(t *testing.T) {
	sched := scheduler.New(nil)
	job := newBlockingJob()
	require.NoError(t, sched.Register(job, scheduler.Every(time.Hour)))

	h := &handler{deps: Dependencies{Scheduler: sched}}

	rec := runJobRequest(t, h, job.Name())
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// The job is still blocked; the response already went out.
	select {
	case <-job.done:
		t.Fatal("job finished before being released")
	default:
	}

	close(job.release)
	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran after dispatch")
	}
}

func TestRunJob_UnknownJobReturns404(t *testing.T) {
	h := &handler{deps: Dependencies{Scheduler: scheduler.New(nil)}}

	rec := runJobRequest(t, h, "no-such-job")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no-such-job")
}
