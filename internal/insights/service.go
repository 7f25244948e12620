package insights

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/kmensah/gitlab-insights/internal/cache"
	"github.com/kmensah/gitlab-insights/internal/config"
	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
	"github.com/kmensah/gitlab-insights/internal/models"
)

// Store persists health score history and snapshot rows. It is optional; a
// nil store keeps the service fully in memory.
type Store interface {
	SaveScore(ctx context.Context, score *models.HealthScore) error
	ListScores(ctx context.Context, target models.Target, limit int) ([]*models.ScoreRecord, error)
	SaveSnapshot(ctx context.Context, snap *models.Snapshot, ttl time.Duration) error
	// LoadSnapshot returns an unexpired row together with its remaining
	// lifetime, or nil when no fresh row exists.
	LoadSnapshot(ctx context.Context, target models.Target, window models.Window) (*models.Snapshot, time.Duration, error)
}

// Service is the analytics facade: it composes the builder, scorer,
// analyzer and resolver behind a read-through cache. Concurrent requests
// for the same uncached key are coalesced into a single upstream build.
type Service struct {
	builder  *Builder
	scorer   *Scorer
	analyzer *Analyzer
	resolver *Resolver
	cache    *cache.Cache
	cacheCfg config.CacheConfig
	store    Store
	flight   singleflight.Group
	fillMu   sync.Mutex
	fills    map[string]*fill
	logger   *logrus.Logger
	now      func() time.Time
}

// fill is the shared lifetime of one in-flight cache fill. Its context is
// cancelled only once every coalesced caller has gone away, so one caller
// abandoning a request neither aborts nor poisons the others, while a fill
// nobody is waiting for stops fetching pages.
type fill struct {
	ctx    context.Context
	cancel context.CancelFunc
	count  int
}

// NewService wires the analytics facade. store may be nil.
func NewService(cfg *config.Config, fetcher Fetcher, memCache *cache.Cache, store Store, logger *logrus.Logger) *Service {
	resolver := NewResolver(cfg.Contributors)
	return &Service{
		builder:  NewBuilder(fetcher, resolver, cfg.WorkflowOrder, cfg.MaxConcurrentFetches, logger),
		scorer:   NewScorer(cfg.Scoring),
		analyzer: NewAnalyzer(cfg.Scoring.MinTrendChangePct),
		resolver: resolver,
		cache:    memCache,
		cacheCfg: cfg.Cache,
		store:    store,
		fills:    make(map[string]*fill),
		logger:   logger,
		now:      time.Now,
	}
}

// joinFill registers interest in the fill for a key and returns the fill's
// context plus a leave function the caller must invoke when it stops waiting.
func (s *Service) joinFill(key string) (context.Context, func()) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	f, ok := s.fills[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &fill{ctx: ctx, cancel: cancel}
		s.fills[key] = f
	}
	f.count++
	return f.ctx, func() {
		s.fillMu.Lock()
		defer s.fillMu.Unlock()
		f.count--
		if f.count == 0 {
			f.cancel()
			delete(s.fills, key)
		}
	}
}

func windowKey(w models.Window) string {
	return fmt.Sprintf("%d-%d", w.Since.Unix(), w.Until.Unix())
}

// GetSnapshot returns the snapshot for a target and window, served from the
// in-memory cache when fresh, then from an unexpired persisted row, and only
// then rebuilt from the API.
func (s *Service) GetSnapshot(ctx context.Context, target models.Target, window models.Window) (*models.Snapshot, error) {
	key := cache.Key("snapshot", string(target.Kind), target.ID, windowKey(window))
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.Snapshot), nil
	}

	fillCtx, leave := s.joinFill(key)
	defer leave()
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		if s.store != nil {
			snap, remaining, err := s.store.LoadSnapshot(fillCtx, target, window)
			if err != nil {
				s.logger.WithError(err).Warn("failed to load persisted snapshot")
			} else if snap != nil && remaining > 0 {
				// A row built earlier in its TTL must not get a fresh
				// full TTL in memory; it expires when the row does.
				ttl := s.cacheCfg.SnapshotTTL
				if remaining < ttl {
					ttl = remaining
				}
				s.cache.Put(key, snap, ttl)
				return snap, nil
			}
		}
		snap, err := s.builder.Build(fillCtx, target, window)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, snap, s.cacheCfg.SnapshotTTL)
		if s.store != nil {
			if err := s.store.SaveSnapshot(fillCtx, snap, s.cacheCfg.SnapshotTTL); err != nil {
				s.logger.WithError(err).Warn("failed to persist snapshot")
			}
		}
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewDeadlineExceededError("snapshot request cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	}
}

// GetHealthScore scores the target's snapshot. The score is recomputed on
// each call from the (cached) snapshot; when a history store is configured
// the observation is persisted best effort.
func (s *Service) GetHealthScore(ctx context.Context, target models.Target, window models.Window) (*models.HealthScore, error) {
	snap, err := s.GetSnapshot(ctx, target, window)
	if err != nil {
		return nil, err
	}
	score, err := s.scorer.Score(snap)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveScore(ctx, score); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"target": target.ID,
			}).Warn("failed to persist health score")
		}
	}
	return score, nil
}

// GetTrend compares the two halves of the window. Half-window snapshots go
// through the regular snapshot cache; the assembled report has its own,
// longer TTL.
func (s *Service) GetTrend(ctx context.Context, target models.Target, window models.Window) (*models.TrendReport, error) {
	key := cache.Key("trend", string(target.Kind), target.ID, windowKey(window))
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*models.TrendReport), nil
	}

	fillCtx, leave := s.joinFill(key)
	defer leave()
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		prevWindow, curWindow := window.Halves()
		prev, err := s.GetSnapshot(fillCtx, target, prevWindow)
		if err != nil {
			return nil, err
		}
		cur, err := s.GetSnapshot(fillCtx, target, curWindow)
		if err != nil {
			return nil, err
		}
		report := s.analyzer.Analyze(target, window, prev, cur)
		s.cache.Put(key, report, s.cacheCfg.TrendTTL)
		return report, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewDeadlineExceededError("trend request cancelled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.TrendReport), nil
	}
}

// GetContributors returns the canonical contributor set for the target. The
// snapshot must carry a contributors section.
func (s *Service) GetContributors(ctx context.Context, target models.Target, window models.Window) (*models.ContributorMetrics, error) {
	snap, err := s.GetSnapshot(ctx, target, window)
	if err != nil {
		return nil, err
	}
	if snap.Contributors == nil {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("%s %s contributors", target.Kind, target.ID), nil)
	}
	return snap.Contributors, nil
}

// CompareProjects scores each project over the same window and ranks the
// results by score descending, name ascending on ties. A project whose
// score fails does not fail the comparison; it is listed unranked with the
// error message.
func (s *Service) CompareProjects(ctx context.Context, projectIDs []string, window models.Window) (*models.Comparison, error) {
	if len(projectIDs) < 2 {
		return nil, apperrors.NewValidationError("comparison requires at least two projects", nil)
	}

	cmp := &models.Comparison{Window: window, BuiltAt: s.now().UTC()}
	for _, id := range projectIDs {
		target := models.Target{Kind: models.TargetProject, ID: id}
		entry := models.ComparisonEntry{Target: target, Name: id}

		score, err := s.GetHealthScore(ctx, target, window)
		if err != nil {
			entry.ScoreErr = err.Error()
			cmp.Entries = append(cmp.Entries, entry)
			continue
		}
		entry.Score = score.Score
		entry.Grade = score.Grade
		entry.Partial = score.Partial
		if snap, err := s.GetSnapshot(ctx, target, window); err == nil && snap.Commits != nil {
			entry.Commits = snap.Commits.Total
		}
		cmp.Entries = append(cmp.Entries, entry)
	}

	sort.SliceStable(cmp.Entries, func(i, j int) bool {
		a, b := cmp.Entries[i], cmp.Entries[j]
		if (a.ScoreErr == "") != (b.ScoreErr == "") {
			return a.ScoreErr == ""
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Name < b.Name
	})
	rank := 0
	for i := range cmp.Entries {
		if cmp.Entries[i].ScoreErr != "" {
			continue
		}
		rank++
		cmp.Entries[i].Rank = rank
	}
	return cmp, nil
}

// ScoreHistory lists persisted score observations for a target, newest
// first. Requires a configured history store.
func (s *Service) ScoreHistory(ctx context.Context, target models.Target, limit int) ([]*models.ScoreRecord, error) {
	if s.store == nil {
		return nil, apperrors.NewValidationError("score history is not configured", nil)
	}
	return s.store.ListScores(ctx, target, limit)
}

// InvalidateCache drops cached entries. An empty prefix clears everything;
// otherwise only keys under the prefix are removed. Returns the number of
// entries dropped, or -1 for a full clear.
func (s *Service) InvalidateCache(prefix string) int {
	if prefix == "" {
		s.cache.ClearAll()
		return -1
	}
	return s.cache.Invalidate(prefix)
}

// CacheStats reports cache occupancy.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetStats()
}
