package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/activity"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/database"
)

const (
	DefaultBatchSize = 50
	BatchTimeout     = 2 * time.Second
	PollTimeout      = 1 * time.Second // Must be >= 1s to satisfy Redis
	FlushTimeout     = 5 * time.Second
)

var activityColumns = []string{
	"event_type", "quiz_id", "student_id", "attempt_id", "request_id", "payload", "recorded_at",
}

// ActivityWorker drains the activity queue into activity_log in batches.
type ActivityWorker struct {
	db        database.DB
	rdb       *redis.Client
	batchSize int
	log       zerolog.Logger

	// requeueBackoff is how long to pause after pushing failed rows back.
	requeueBackoff time.Duration
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(db database.DB, rdb *redis.Client, batchSize int, log zerolog.Logger) *ActivityWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ActivityWorker{
		db:             db,
		rdb:            rdb,
		batchSize:      batchSize,
		log:            log.With().Str("component", "activity_worker").Logger(),
		requeueBackoff: 2 * time.Second,
	}
}

// queued keeps the raw JSON next to the decoded event so a failed row is
// requeued byte-for-byte.
type queued struct {
	raw     string
	event   activity.Event
	payload json.RawMessage
}

// Start blocks until ctx is cancelled, then flushes what is buffered.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("ActivityWorker started")

	buffer := make([]queued, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(ctx, buffer)
			return
		default:
		}

		// 3. BLPop returns immediately if data exists, otherwise after PollTimeout.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistActivityQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(ctx, buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleepCtx(ctx, 3*time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		item, ok := w.decode(result[1])
		if !ok {
			continue
		}
		buffer = append(buffer, item)
	}
}

func (w *ActivityWorker) decode(raw string) (queued, bool) {
	var ev activity.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		// Malformed JSON can never succeed. Log and discard.
		w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed activity event")
		return queued{}, false
	}
	if ev.Type == "" || ev.QuizID <= 0 || ev.StudentID <= 0 {
		w.log.Error().Str("data", raw).Msg("Discarding incomplete activity event")
		return queued{}, false
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload := json.RawMessage(`{}`)
	if len(ev.Data) > 0 {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			w.log.Error().Err(err).Str("data", raw).Msg("Discarding activity event with unencodable data")
			return queued{}, false
		}
		payload = data
	}
	return queued{raw: raw, event: ev, payload: payload}, true
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
// A batch that has left the queue is written even when ctx is already
// cancelled; only the requeue backoff follows ctx.
func (w *ActivityWorker) flushSafe(ctx context.Context, batch []queued) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FlushTimeout)
	defer cancel()

	if err := w.bulkInsert(persistCtx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		if w.fallbackInsert(persistCtx, batch) {
			// Avoid thrashing while the database is down.
			sleepCtx(ctx, w.requeueBackoff)
		}
		return
	}
	w.log.Debug().Int("count", len(batch)).Msg("Activity batch persisted")
}

func row(q queued) []interface{} {
	e := q.event
	return []interface{}{
		string(e.Type), e.QuizID, e.StudentID, e.AttemptID, e.RequestID, q.payload, e.OccurredAt,
	}
}

func (w *ActivityWorker) bulkInsert(ctx context.Context, batch []queued) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, q := range batch {
		rows = append(rows, row(q))
	}

	_, err := w.db.CopyFrom(
		ctx,
		pgx.Identifier{"activity_log"},
		activityColumns,
		pgx.CopyFromRows(rows),
	)
	return err
}

// fallbackInsert reports whether any row was pushed back onto the queue.
func (w *ActivityWorker) fallbackInsert(ctx context.Context, batch []queued) bool {
	requeueList := make([]queued, 0)

	for _, q := range batch {
		_, err := w.db.Exec(ctx,
			`INSERT INTO activity_log (event_type, quiz_id, student_id, attempt_id, request_id, payload, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			row(q)...,
		)
		if err == nil {
			continue
		}
		// A row the database refuses on its own merits (e.g. a deleted quiz)
		// would fail forever, so only transient failures go back on the queue.
		if database.IsForeignKeyViolation(err) {
			w.log.Error().Err(err).Str("event_id", q.event.ID).Msg("Dropping activity event with dangling reference")
			continue
		}
		w.log.Error().Err(err).Str("event_id", q.event.ID).Msg("Insert failed, requeueing")
		requeueList = append(requeueList, q)
	}

	if len(requeueList) == 0 {
		return false
	}
	return w.requeue(ctx, requeueList)
}

func (w *ActivityWorker) requeue(ctx context.Context, items []queued) bool {
	// Fresh deadline: the inserts may have used up the caller's.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FlushTimeout)
	defer cancel()

	pipe := w.rdb.Pipeline()
	for _, q := range items {
		pipe.RPush(ctx, config.WorkerKey.PersistActivityQueue, q.raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue activity events. Data loss occurred.")
		return false
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed activity events")
	return true
}

func (w *ActivityWorker) shutdown(ctx context.Context, buffer []queued) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	if len(buffer) > 0 {
		w.flushSafe(ctx, buffer)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
