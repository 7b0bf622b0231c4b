package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"marketboard/internal/models"
)

const (
	uploadHistoryKey = "stats:upload-history"
	historyDays      = 30
	dayMillis        = 86_400_000
)

// UploadCountHistory maintains the singleton rolling 30-day upload
// counter. The record is read-modify-written under a process mutex; the
// only writer is the upload pipeline of this process.
type UploadCountHistory struct {
	rdb redis.UniversalClient
	log *zap.Logger
	mu  sync.Mutex
}

func NewUploadCountHistory(rdb redis.UniversalClient, log *zap.Logger) *UploadCountHistory {
	return &UploadCountHistory{rdb: rdb, log: log.Named("upload_history")}
}

// Increment rolls the window forward if a day has passed since the last
// push, then bumps today's counter.
func (h *UploadCountHistory) Increment(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec, err := h.read(ctx)
	if err != nil {
		return err
	}

	rec = rollover(rec, time.Now().UnixMilli())
	rec.Counts[0]++

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode upload history: %w", err)
	}
	if err := h.rdb.Set(ctx, uploadHistoryKey, data, 0).Err(); err != nil {
		return fmt.Errorf("write upload history: %w", err)
	}
	return nil
}

// History returns the record verbatim.
func (h *UploadCountHistory) History(ctx context.Context) (models.UploadCountHistory, error) {
	return h.read(ctx)
}

func (h *UploadCountHistory) read(ctx context.Context) (models.UploadCountHistory, error) {
	var rec models.UploadCountHistory
	data, err := h.rdb.Get(ctx, uploadHistoryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.UploadCountHistory{Counts: []int64{0}}, nil
		}
		return rec, fmt.Errorf("read upload history: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode upload history: %w", err)
	}
	if len(rec.Counts) == 0 {
		rec.Counts = []int64{0}
	}
	return rec, nil
}

// rollover prepends a fresh daily counter when more than a day has passed
// since the last push, truncating the window to 30 entries. counts[0]
// only ever grows between rollovers.
func rollover(rec models.UploadCountHistory, nowMillis int64) models.UploadCountHistory {
	if rec.LastPush == 0 {
		rec.LastPush = nowMillis
		return rec
	}
	if nowMillis-rec.LastPush <= dayMillis {
		return rec
	}
	rec.Counts = append([]int64{0}, rec.Counts...)
	if len(rec.Counts) > historyDays {
		rec.Counts = rec.Counts[:historyDays]
	}
	rec.LastPush = nowMillis
	return rec
}
