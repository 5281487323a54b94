package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aura-trivia/backend/internal/models"
	"github.com/aura-trivia/backend/pkg/queue"
	"github.com/aura-trivia/backend/pkg/storage"
)

// Uploader stores an archived object and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// JobSource supplies jobs and takes back failed ones.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ResultsArchiver processes game result jobs: it writes each finished game's leaderboard to S3.
type ResultsArchiver struct {
	jobs    JobSource
	store   Uploader
	bucket  string
	backoff time.Duration
	logger  *zap.Logger
}

// NewResultsArchiver creates a game results archiver.
func NewResultsArchiver(jobs JobSource, store Uploader, bucket string, logger *zap.Logger) *ResultsArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsArchiver{jobs: jobs, store: store, bucket: bucket, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one game result job.
func (p *ResultsArchiver) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeGameResult {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var result models.GameResult
	if err := json.Unmarshal(job.Payload, &result); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if result.RoomID == "" {
		return fmt.Errorf("game result without room")
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	key := storage.ResultKey(result.RoomID, result.FinishedAt)
	url, err := p.store.Upload(ctx, p.bucket, key, "application/json", bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	p.logger.Info("game result archived",
		zap.String("room", result.RoomID),
		zap.Int("players", len(result.Leaderboard)),
		zap.String("s3_key", key),
		zap.String("url", url))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ResultsArchiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("results worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ResultsArchiver) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
