package handlers

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/engine"
	"github.com/cryptofolio/portfolio-engine/internal/models"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

// SimRequest is a trade simulation submitted by a client.
type SimRequest struct {
	ClientID   string          `json:"client_id"`
	FromSymbol string          `json:"from_symbol" binding:"required"`
	ToSymbol   string          `json:"to_symbol" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// SimResult carries the simulation outcome back to the submitter.
type SimResult struct {
	Simulation models.TradeSimulation
	Err        error
}

type simJob struct {
	request  SimRequest
	prices   map[string]decimal.Decimal
	resultCh chan SimResult // Channel to send result back
}

// SimProcessor runs trade simulations on a worker pool so a burst of
// submissions cannot starve the request handlers.
type SimProcessor struct {
	workers  int
	jobQueue chan simJob
	stopCh   chan struct{}
	wg       sync.WaitGroup
	engine   *engine.Engine
	locker   *store.ClientLocker
	log      *zap.Logger
}

// NewSimProcessor creates a processor with the given worker count.
func NewSimProcessor(workers int, eng *engine.Engine, log *zap.Logger) *SimProcessor {
	return &SimProcessor{
		workers:  workers,
		jobQueue: make(chan simJob, 100), // Buffer of 100 simulations
		stopCh:   make(chan struct{}),
		engine:   eng,
		locker:   store.NewClientLocker(),
		log:      log,
	}
}

// Start starts the worker pool.
func (sp *SimProcessor) Start() {
	for i := 0; i < sp.workers; i++ {
		sp.wg.Add(1)
		go sp.worker(i)
	}
	sp.log.Info("simulation workers started", zap.Int("workers", sp.workers))
}

// Stop gracefully stops all workers.
func (sp *SimProcessor) Stop() {
	close(sp.stopCh)
	sp.wg.Wait()
	sp.log.Info("simulation processor stopped")
}

func (sp *SimProcessor) worker(id int) {
	defer sp.wg.Done()

	for {
		select {
		case <-sp.stopCh:
			sp.log.Debug("simulation worker stopping", zap.Int("worker", id))
			return

		case job := <-sp.jobQueue:
			job.resultCh <- sp.process(job)
		}
	}
}

// process runs one simulation with per-client locking so simulations for the
// same client are serialized.
func (sp *SimProcessor) process(job simJob) SimResult {
	if job.request.ClientID != "" {
		sp.locker.Lock(job.request.ClientID)
		defer sp.locker.Unlock(job.request.ClientID)
	}

	sim, err := sp.engine.SimulateTrade(
		job.request.FromSymbol,
		job.request.ToSymbol,
		job.request.Amount,
		job.prices,
	)
	if err != nil {
		return SimResult{Err: err}
	}
	return SimResult{Simulation: sim}
}

// Submit queues a simulation and waits for its result.
func (sp *SimProcessor) Submit(request SimRequest, prices map[string]decimal.Decimal) SimResult {
	resultCh := make(chan SimResult)

	sp.jobQueue <- simJob{
		request:  request,
		prices:   prices,
		resultCh: resultCh,
	}

	return <-resultCh
}
