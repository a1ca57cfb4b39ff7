package search

import (
	"context"
	"sync"
	"time"

	"github.com/hackup/backend/internal/logger"
	"github.com/hackup/backend/internal/repository"
	"go.uber.org/zap"
)

const reindexBatchSize = 100

// ReconciliationService periodically re-indexes every post so the search
// index converges even when an index call after a write was lost
type ReconciliationService struct {
	indexer  Indexer
	posts    repository.PostRepository
	interval time.Duration

	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

func NewReconciliationService(indexer Indexer, posts repository.PostRepository, interval time.Duration) *ReconciliationService {
	return &ReconciliationService{
		indexer:  indexer,
		posts:    posts,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic reconciliation loop
func (rs *ReconciliationService) Start() {
	rs.mu.Lock()
	if rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = true
	rs.mu.Unlock()

	logger.Log.Info("Starting search reconciliation service", zap.Duration("interval", rs.interval))

	rs.wg.Add(1)
	go rs.loop()
}

// Stop stops the loop and waits for an in-flight pass to finish
func (rs *ReconciliationService) Stop() {
	rs.mu.Lock()
	if !rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = false
	rs.mu.Unlock()

	close(rs.stopChan)
	rs.wg.Wait()
	logger.Log.Info("Search reconciliation service stopped")
}

func (rs *ReconciliationService) loop() {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-rs.stopChan
		cancel()
	}()

	rs.runOnce(ctx)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.stopChan:
			return
		case <-ticker.C:
			rs.runOnce(ctx)
		}
	}
}

func (rs *ReconciliationService) runOnce(ctx context.Context) {
	start := time.Now()
	n, err := rs.ReindexAll(ctx)
	if err != nil {
		logger.Log.Warn("Search reconciliation failed", zap.Int("reindexed", n), zap.Error(err))
		return
	}
	logger.Log.Info("Search reconciliation completed",
		zap.Int("reindexed", n),
		zap.Duration("duration", time.Since(start)),
	)
}

// ReindexAll walks every post in pages and indexes it. Individual failures
// are logged and skipped; listing errors abort the pass.
func (rs *ReconciliationService) ReindexAll(ctx context.Context) (int, error) {
	indexed := 0
	for offset := 0; ; offset += reindexBatchSize {
		posts, _, err := rs.posts.List(ctx, repository.Page{Limit: reindexBatchSize, Offset: offset})
		if err != nil {
			return indexed, err
		}

		for i := range posts {
			if err := rs.indexer.IndexPost(ctx, &posts[i]); err != nil {
				logger.Log.Warn("Failed to reindex post", logger.WithPostID(posts[i].ID), zap.Error(err))
				continue
			}
			indexed++
		}

		if len(posts) < reindexBatchSize || ctx.Err() != nil {
			return indexed, ctx.Err()
		}
	}
}
