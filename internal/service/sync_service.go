package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
	"github.com/vinceyvincey/google-calendar-sync/internal/notion"
	"github.com/vinceyvincey/google-calendar-sync/pkg/config"
	appErrors "github.com/vinceyvincey/google-calendar-sync/pkg/errors"
)

// eventLister reads the authoritative event set.
type eventLister interface {
	List(ctx context.Context) ([]models.Event, error)
}

// pageStore mirrors events into the external document database.
type pageStore interface {
	QueryPages(ctx context.Context, startCursor string, pageSize int) (notion.QueryResult, error)
	CreatePage(ctx context.Context, props notion.Properties) (string, error)
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) error
	ArchivePage(ctx context.Context, pageID string) error
}

// runRecorder persists run outcomes across restarts and replicas.
type runRecorder interface {
	SaveRun(ctx context.Context, record models.RunRecord) error
	LastRun(ctx context.Context) (*models.RunRecord, error)
}

const (
	opCreate  = "create"
	opUpdate  = "update"
	opArchive = "archive"
)

type pageOp struct {
	action string
	event  models.Event
	pageID string
}

// SyncService reconciles the event set in Postgres against the mirrored
// pages in Notion. Each run is a full pass: fetch both sides, diff by event
// id, then create, update and archive pages until they converge.
type SyncService struct {
	events   eventLister
	pages    pageStore
	guard    *RunGuard
	runs     runRecorder
	metrics  *MetricsService
	logger   *zap.Logger
	pageSize int
	workers  int

	mu      sync.Mutex
	lastRun *models.RunRecord
}

// NewSyncService constructs a sync service.
func NewSyncService(
	events eventLister,
	pages pageStore,
	guard *RunGuard,
	runs runRecorder,
	metrics *MetricsService,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		events:   events,
		pages:    pages,
		guard:    guard,
		runs:     runs,
		metrics:  metrics,
		logger:   logger,
		pageSize: cfg.PageSize,
		workers:  cfg.Workers,
	}
}

// Run executes one full reconciliation pass and returns its summary.
// Concurrent calls are rejected with ErrRunInProgress. A fetch error aborts
// the run before any page is touched; mutation errors are counted in the
// summary and never abort the pass.
func (s *SyncService) Run(ctx context.Context) (models.SyncSummary, error) {
	runID := uuid.NewString()
	if !s.guard.Acquire(ctx, runID) {
		return models.SyncSummary{}, appErrors.ErrRunInProgress
	}
	defer s.guard.Release(context.WithoutCancel(ctx))

	log := s.logger.With(zap.String("run_id", runID))
	log.Info("sync run started")
	start := time.Now()

	summary, err := s.reconcile(ctx, log)
	duration := time.Since(start)
	s.metrics.ObserveRun(summary, duration, err)

	if err != nil {
		log.Error("sync run failed", zap.Error(err))
		return models.SyncSummary{}, err
	}

	record := models.RunRecord{
		RunID:          runID,
		FinishedAt:     time.Now().UTC(),
		DurationMillis: duration.Milliseconds(),
		Summary:        summary,
	}
	s.storeRun(ctx, log, record)

	log.Info("sync run completed",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", duration),
	)
	return summary, nil
}

// LastRun returns the most recent completed run. The persisted record is
// consulted first so replicas see runs they did not execute; the in-memory
// copy covers setups without run state persistence.
func (s *SyncService) LastRun(ctx context.Context) (*models.RunRecord, error) {
	if s.runs != nil {
		record, err := s.runs.LastRun(ctx)
		switch {
		case err == nil:
			return record, nil
		case !errors.Is(err, appErrors.ErrNotFound):
			s.logger.Warn("read run record failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil, appErrors.ErrNotFound
	}
	record := *s.lastRun
	return &record, nil
}

func (s *SyncService) reconcile(ctx context.Context, log *zap.Logger) (models.SyncSummary, error) {
	events, err := s.fetchEvents(ctx)
	if err != nil {
		return models.SyncSummary{}, err
	}

	pageIndex, err := s.fetchPageIndex(ctx)
	if err != nil {
		return models.SyncSummary{}, err
	}

	log.Info("fetched event and page sets",
		zap.Int("events", len(events)),
		zap.Int("pages", len(pageIndex)),
	)

	return s.apply(ctx, log, diff(events, pageIndex)), nil
}

func (s *SyncService) fetchEvents(ctx context.Context) (map[string]models.Event, error) {
	list, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}

	events := make(map[string]models.Event, len(list))
	for _, event := range list {
		events[event.EventID] = event
	}
	return events, nil
}

// fetchPageIndex pages through the Notion database exhaustively and maps
// each page's embedded event id to its page id. Pages without a readable
// event id are orphans and contribute no entry.
func (s *SyncService) fetchPageIndex(ctx context.Context) (map[string]string, error) {
	index := make(map[string]string)
	cursor := ""

	for {
		result, err := s.pages.QueryPages(ctx, cursor, s.pageSize)
		if err != nil {
			return nil, err
		}

		for _, page := range result.Pages {
			eventID := page.RichTextContent(notion.PropEventID)
			if eventID == "" {
				continue
			}
			index[eventID] = page.ID
		}

		if !result.HasMore || result.NextCursor == "" {
			return index, nil
		}
		cursor = result.NextCursor
	}
}

// diff computes the operation set that converges the mirror: matched ids
// become updates, unmatched events become creates, and page index entries
// left after every event is consumed become archives.
func diff(events map[string]models.Event, pageIndex map[string]string) []pageOp {
	ops := make([]pageOp, 0, len(events)+len(pageIndex))

	for id, event := range events {
		if pageID, ok := pageIndex[id]; ok {
			ops = append(ops, pageOp{action: opUpdate, event: event, pageID: pageID})
			delete(pageIndex, id)
		} else {
			ops = append(ops, pageOp{action: opCreate, event: event})
		}
	}

	for _, pageID := range pageIndex {
		ops = append(ops, pageOp{action: opArchive, pageID: pageID})
	}

	return ops
}

// apply executes the operations on a bounded worker pool. Operations touch
// disjoint pages, so ordering between them is irrelevant; the shared tally
// is the only guarded state.
func (s *SyncService) apply(ctx context.Context, log *zap.Logger, ops []pageOp) models.SyncSummary {
	workers := s.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(ops) {
		workers = len(ops)
	}

	var (
		mu      sync.Mutex
		summary models.SyncSummary
		wg      sync.WaitGroup
	)

	queue := make(chan pageOp)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for op := range queue {
				action, ok := s.applyOne(ctx, log, op)

				mu.Lock()
				switch {
				case !ok:
					summary.Errors++
				case action == opCreate:
					summary.Created++
				case action == opUpdate:
					summary.Updated++
				default:
					summary.Deleted++
				}
				mu.Unlock()
			}
		}()
	}

	for _, op := range ops {
		queue <- op
	}
	close(queue)
	wg.Wait()

	return summary
}

func (s *SyncService) applyOne(ctx context.Context, log *zap.Logger, op pageOp) (string, bool) {
	switch op.action {
	case opCreate:
		return opCreate, s.createPage(ctx, log, op.event)
	case opUpdate:
		return opUpdate, s.updatePage(ctx, log, op.pageID, op.event)
	default:
		return opArchive, s.archivePage(ctx, log, op.pageID)
	}
}

func (s *SyncService) createPage(ctx context.Context, log *zap.Logger, event models.Event) bool {
	props := notion.EventProperties(event, FormatRecurrence(event.Recurrence))

	pageID, err := s.pages.CreatePage(ctx, props)
	if err != nil {
		log.Error("create page failed", zap.String("title", event.Title), zap.Error(err))
		return false
	}

	log.Info("created page", zap.String("title", event.Title), zap.String("page_id", pageID))
	return true
}

func (s *SyncService) updatePage(ctx context.Context, log *zap.Logger, pageID string, event models.Event) bool {
	props := notion.EventProperties(event, FormatRecurrence(event.Recurrence))

	if err := s.pages.UpdatePage(ctx, pageID, props); err != nil {
		log.Error("update page failed", zap.String("title", event.Title), zap.String("page_id", pageID), zap.Error(err))
		return false
	}

	log.Info("updated page", zap.String("title", event.Title), zap.String("page_id", pageID))
	return true
}

func (s *SyncService) archivePage(ctx context.Context, log *zap.Logger, pageID string) bool {
	if err := s.pages.ArchivePage(ctx, pageID); err != nil {
		log.Error("archive page failed", zap.String("page_id", pageID), zap.Error(err))
		return false
	}

	log.Info("archived page", zap.String("page_id", pageID))
	return true
}

func (s *SyncService) storeRun(ctx context.Context, log *zap.Logger, record models.RunRecord) {
	s.mu.Lock()
	s.lastRun = &record
	s.mu.Unlock()

	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(ctx, record); err != nil {
		log.Warn("persist run record failed", zap.Error(err))
	}
}
