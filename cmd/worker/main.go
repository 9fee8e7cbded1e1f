// Package main is the entry point for the staffdesk background worker.
// It keeps the full-text index in step with the database and trims the audit log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"staffdesk/internal/config"
	"staffdesk/internal/core/tx"
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/infrastructure/search/elastic"
	"staffdesk/internal/infrastructure/search/reindex"
	"staffdesk/internal/infrastructure/storage/postgres"
	"staffdesk/internal/infrastructure/storage/postgres/record_repo"
	"staffdesk/pkg/logger"
)

const auditPurgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name + "-worker",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting staffdesk worker")

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.Database.DSN,
		MaxConns:        4,
		ApplicationName: cfg.App.Name + "-worker",
		ConnectWait:     cfg.Database.ConnectWait,
	})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}

	worker := &Worker{
		log:            log.WithComponent("worker"),
		txManager:      txManager,
		audit:          auditStore,
		reindexEvery:   cfg.Worker.ReindexInterval,
		auditRetention: cfg.Worker.AuditRetention,
	}

	if cfg.Elastic.Enabled() {
		esCfg := elastic.Config{
			Addresses:   cfg.Elastic.AddressList(),
			Username:    cfg.Elastic.Username,
			Password:    cfg.Elastic.Password,
			IndexPrefix: cfg.Elastic.IndexPrefix,
			Timeout:     cfg.Elastic.Timeout,
		}
		client, err := elastic.NewClient(esCfg)
		if err != nil {
			log.Fatalw("failed to create elasticsearch client", "error", err)
		}
		indexer := elastic.NewIndexer(client, esCfg)
		batch := cfg.Worker.ReindexBatchSize
		worker.jobs = []reindex.Job{
			reindex.NewJob(department.EntityName, record_repo.NewDepartmentRepo(), indexer, batch),
			reindex.NewJob(employee.EntityName, record_repo.NewEmployeeRepo(), indexer, batch),
			reindex.NewJob(visitor.EntityName, record_repo.NewVisitorRepo(), indexer, batch),
		}
	} else {
		log.Info("elasticsearch not configured, reindexing disabled")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the periodic maintenance jobs.
type Worker struct {
	log            *logger.Logger
	txManager      *postgres.TxManager
	audit          *postgres.AuditStore
	jobs           []reindex.Job
	reindexEvery   time.Duration
	auditRetention time.Duration
}

// Run blocks until ctx is cancelled. The index is rebuilt once at start.
func (w *Worker) Run(ctx context.Context) {
	ctx = tx.WithManager(logger.WithLogger(ctx, w.log), w.txManager)

	reindexTicker := time.NewTicker(w.reindexEvery)
	defer reindexTicker.Stop()

	purgeTicker := time.NewTicker(auditPurgeInterval)
	defer purgeTicker.Stop()

	w.reindex(ctx)
	w.purgeAudit(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-reindexTicker.C:
			w.reindex(ctx)
		case <-purgeTicker.C:
			w.purgeAudit(ctx)
		}
	}
}

func (w *Worker) reindex(ctx context.Context) {
	if len(w.jobs) == 0 {
		return
	}
	start := time.Now()
	if err := reindex.RunAll(ctx, w.jobs); err != nil {
		w.log.Warnw("reindex finished with errors", "duration", time.Since(start), "error", err)
		return
	}
	w.log.Infow("reindex complete", "duration", time.Since(start))
}

func (w *Worker) purgeAudit(ctx context.Context) {
	if w.auditRetention <= 0 {
		return
	}
	n, err := w.audit.Purge(ctx, time.Now().Add(-w.auditRetention))
	if err != nil {
		w.log.Errorw("audit purge failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("purged audit entries", "count", n)
	}
}
