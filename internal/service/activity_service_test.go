package service

import (
	"context"
	"testing"

	"github.com/stemsi/quizguard-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitRecorder struct {
	limits []int
}

func (r *limitRecorder) ListRecent(_ context.Context, _ *int64, limit int) ([]model.ActivityEntry, error) {
	r.limits = append(r.limits, limit)
	return nil, nil
}

func TestActivityService_ClampsLimit(t *testing.T) {
	rec := &limitRecorder{}
	svc := NewActivityService(rec)
	ctx := context.Background()

	for _, limit := range []int{0, -5, 20, 10000} {
		entries, err := svc.ListRecent(ctx, nil, limit)
		require.NoError(t, err)
		assert.NotNil(t, entries)
	}

	assert.Equal(t, []int{DefaultActivityLimit, DefaultActivityLimit, 20, MaxActivityLimit}, rec.limits)
}
