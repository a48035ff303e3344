// Package indexing attaches embeddings to newly created questions in the background.
package indexing

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/agora/internal/domain"
	"github.com/kailas-cloud/agora/internal/metrics"
)

const (
	defaultWorkers = 4
	defaultQueue   = 64
	defaultTimeout = 30 * time.Second
)

// Writer stores a question's embedding.
type Writer interface {
	SetEmbedding(ctx context.Context, id string, vector []float32) error
}

// Config tunes the worker pool.
type Config struct {
	// Workers bounds concurrent embedding calls.
	Workers int
	// Queue is how many accepted jobs may wait for a worker.
	// Submissions beyond Workers+Queue are rejected.
	Queue int
	// Timeout bounds one embed-and-store job.
	Timeout time.Duration
}

// Indexer embeds question text on a bounded, non-blocking ants pool.
// Jobs run detached from the request that submitted them.
type Indexer struct {
	pool    *ants.Pool
	slots   chan struct{}
	embed   domain.Embedder
	writer  Writer
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an indexer. When embed is not configured every submission is skipped.
func New(cfg Config, embed domain.Embedder, writer Writer, logger *zap.Logger) (*Indexer, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Queue < 0 {
		cfg.Queue = 0
	} else if cfg.Queue == 0 {
		cfg.Queue = defaultQueue
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	pool, err := ants.NewPool(cfg.Workers+cfg.Queue, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create indexing pool: %w", err)
	}
	return &Indexer{
		pool:    pool,
		slots:   make(chan struct{}, cfg.Workers),
		embed:   embed,
		writer:  writer,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Submit queues the embedding of text for question id. It never blocks:
// when the queue is full the job is dropped and counted as rejected.
func (i *Indexer) Submit(id, text string) {
	if !domain.IsConfigured(i.embed) {
		metrics.IndexingJobsTotal.WithLabelValues("skipped").Inc()
		return
	}
	if err := i.pool.Submit(func() { i.index(id, text) }); err != nil {
		metrics.IndexingJobsTotal.WithLabelValues("rejected").Inc()
		i.logger.Warn("indexing job rejected", zap.String("question_id", id), zap.Error(err))
	}
}

func (i *Indexer) index(id, text string) {
	i.slots <- struct{}{}
	defer func() { <-i.slots }()

	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	if err := i.run(ctx, id, text); err != nil {
		metrics.IndexingJobsTotal.WithLabelValues("error").Inc()
		i.logger.Warn("question not indexed", zap.String("question_id", id), zap.Error(err))
		return
	}
	metrics.IndexingJobsTotal.WithLabelValues("ok").Inc()
	i.logger.Debug("question indexed", zap.String("question_id", id))
}

func (i *Indexer) run(ctx context.Context, id, text string) error {
	res, err := i.embed.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(res.Embedding) == 0 {
		return fmt.Errorf("embed: empty vector: %w", domain.ErrEmbeddingProviderError)
	}
	if err := i.writer.SetEmbedding(ctx, id, res.Embedding); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// Running returns the number of accepted jobs that have not finished.
func (i *Indexer) Running() int {
	return i.pool.Running()
}

// Close waits up to timeout for queued jobs and releases the pool.
func (i *Indexer) Close(timeout time.Duration) error {
	if err := i.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release indexing pool: %w", err)
	}
	return nil
}
