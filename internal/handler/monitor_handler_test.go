package handler

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stemsi/quizguard-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nextData returns the payload of the next "data:" line of the stream.
func nextData(t *testing.T, sc *bufio.Scanner) string {
	t.Helper()
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}
	}
	t.Fatalf("stream ended: %v", sc.Err())
	return ""
}

func TestMonitorSSE_SnapshotThenEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	resumes := &stubResumes{
		summary: func() (*model.RequestSummary, error) { return &model.RequestSummary{Pending: 1}, nil },
	}
	activity := &stubActivity{
		list: func(*int64, int) ([]model.ActivityEntry, error) { return nil, errors.New("activity table locked") },
	}
	monitor := service.NewMonitorService(resumes, activity, zerolog.Nop())
	h := NewMonitorHandler(rdb, monitor, zerolog.Nop())
	r := gin.New()
	r.GET("/api/teacher/monitor", h.MonitorSSE)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/teacher/monitor", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	sc := bufio.NewScanner(resp.Body)

	snapshot := nextData(t, sc)
	assert.Contains(t, snapshot, `"type":"snapshot"`)
	assert.Contains(t, snapshot, `"pending":1`)
	assert.Contains(t, snapshot, `"activity":[]`)

	event := `{"id":"e1","type":"tab_switch","quizId":1,"studentId":7}`
	require.NoError(t, rdb.Publish(ctx, config.CacheKey.MonitorChannel(), event).Err())

	assert.Equal(t, event, nextData(t, sc))
}

func TestMonitorSSE_CloseEndsOpenStreams(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	resumes := &stubResumes{
		summary: func() (*model.RequestSummary, error) { return &model.RequestSummary{}, nil },
	}
	activity := &stubActivity{
		list: func(*int64, int) ([]model.ActivityEntry, error) { return nil, nil },
	}
	h := NewMonitorHandler(rdb, service.NewMonitorService(resumes, activity, zerolog.Nop()), zerolog.Nop())
	r := gin.New()
	r.GET("/api/teacher/monitor", h.MonitorSSE)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/teacher/monitor", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	assert.Contains(t, nextData(t, sc), `"type":"snapshot"`)

	h.Close()
	h.Close()

	ended := make(chan struct{})
	go func() {
		for sc.Scan() {
		}
		close(ended)
	}()
	select {
	case <-ended:
	case <-time.After(3 * time.Second):
		t.Fatal("stream still open after Close")
	}
	assert.NoError(t, ctx.Err())
}
