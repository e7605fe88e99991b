package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/liamashdown/polymonitor/internal/alerts"
	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/liamashdown/polymonitor/internal/polymarket/dataapi"
	"github.com/liamashdown/polymonitor/internal/polymarket/gammaapi"
	"github.com/liamashdown/polymonitor/internal/storage"
	"github.com/sirupsen/logrus"
)

// Job names, also used for checkpoint keys and metric labels
const (
	JobTrades  = "trades"
	JobMarkets = "markets"
	JobUsers   = "users"
)

// TradeFetcher pages through venue trades
type TradeFetcher interface {
	GetTrades(ctx context.Context, params dataapi.TradeParams) ([]dataapi.Trade, error)
}

// MarketFetcher pages through open markets
type MarketFetcher interface {
	ListMarkets(ctx context.Context, params gammaapi.MarketParams) ([]gammaapi.Market, error)
}

// Repository is the write side of the trade store
type Repository interface {
	UpsertTrades(ctx context.Context, trades []storage.Trade) error
	UpsertMarkets(ctx context.Context, markets []storage.Market) error
	UpsertUsers(ctx context.Context, users []storage.User) error
	DistinctUserIDs(ctx context.Context) ([]string, error)
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
	InsertWhaleAlert(ctx context.Context, alert *storage.WhaleAlert) error
	GetLastWhaleAlert(ctx context.Context, userID string) (*storage.WhaleAlert, error)
}

// WhaleFinder runs the whale query over stored trades
type WhaleFinder interface {
	Whales(ctx context.Context, opts analytics.WhaleOptions) ([]analytics.Whale, error)
}

// Syncer refreshes the trade store from the venue and raises whale alerts
type Syncer struct {
	cfg         *config.Config
	repo        Repository
	trades      TradeFetcher
	markets     MarketFetcher
	whales      WhaleFinder
	alertSender alerts.Sender
	log         *logrus.Logger
	now         func() time.Time
	mu          sync.Mutex // one sync job at a time
}

// New creates a new syncer. whales and alertSender may be nil to disable
// whale alerts.
func New(
	cfg *config.Config,
	repo Repository,
	trades TradeFetcher,
	markets MarketFetcher,
	whales WhaleFinder,
	alertSender alerts.Sender,
	log *logrus.Logger,
) *Syncer {
	return &Syncer{
		cfg:         cfg,
		repo:        repo,
		trades:      trades,
		markets:     markets,
		whales:      whales,
		alertSender: alertSender,
		log:         log,
		now:         time.Now,
	}
}

// SyncTrades pulls recent trades and upserts them, then checks for whales
func (s *Syncer) SyncTrades(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncTrades(ctx)
}

// SyncMarkets pulls open markets and upserts them
func (s *Syncer) SyncMarkets(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncMarkets(ctx)
}

// SyncUsers records every wallet present in the trades table
func (s *Syncer) SyncUsers(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncUsers(ctx)
}

// SyncAll runs every job in order. A failing job does not stop the others.
func (s *Syncer) SyncAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if _, err := s.syncMarkets(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.syncTrades(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.syncUsers(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run syncs on startup (if enabled) and then on each job's interval until ctx
// is cancelled. Job errors are logged and never stop the loop.
func (s *Syncer) Run(ctx context.Context) {
	if s.cfg.SyncOnStartup {
		if err := s.SyncAll(ctx); err != nil {
			s.log.WithError(err).Error("Startup sync failed")
		}
	}

	tradesTicker := time.NewTicker(s.cfg.SyncTradesInterval)
	defer tradesTicker.Stop()
	marketsTicker := time.NewTicker(s.cfg.SyncMarketsInterval)
	defer marketsTicker.Stop()
	usersTicker := time.NewTicker(s.cfg.SyncUsersInterval)
	defer usersTicker.Stop()

	s.log.WithFields(logrus.Fields{
		"trades_interval":  s.cfg.SyncTradesInterval.String(),
		"markets_interval": s.cfg.SyncMarketsInterval.String(),
		"users_interval":   s.cfg.SyncUsersInterval.String(),
	}).Info("Sync loop started")

	for {
		select {
		case <-tradesTicker.C:
			s.runJob(ctx, JobTrades, s.SyncTrades)
		case <-marketsTicker.C:
			s.runJob(ctx, JobMarkets, s.SyncMarkets)
		case <-usersTicker.C:
			s.runJob(ctx, JobUsers, s.SyncUsers)
		case <-ctx.Done():
			s.log.Info("Sync loop stopped")
			return
		}
	}
}

func (s *Syncer) runJob(ctx context.Context, job string, fn func(context.Context) (int, error)) {
	if _, err := fn(ctx); err != nil {
		s.log.WithError(err).WithField("job", job).Error("Sync job failed")
	}
}

func (s *Syncer) syncTrades(ctx context.Context) (total int, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSync(JobTrades, time.Since(start), total, err)
	}()

	for page := 0; page < s.cfg.SyncMaxPages; page++ {
		batch, err := s.trades.GetTrades(ctx, dataapi.TradeParams{
			Limit:  s.cfg.SyncPageSize,
			Offset: page * s.cfg.SyncPageSize,
		})
		if err != nil {
			return total, fmt.Errorf("fetch trades page %d: %w", page, err)
		}

		rows := make([]storage.Trade, 0, len(batch))
		skipped := 0
		for i := range batch {
			if batch[i].ProxyWallet == "" || batch[i].ConditionID == "" {
				skipped++
				continue
			}
			rows = append(rows, tradeFromAPI(&batch[i]))
		}
		if err := s.repo.UpsertTrades(ctx, rows); err != nil {
			return total, fmt.Errorf("upsert trades: %w", err)
		}
		total += len(rows)

		s.log.WithFields(logrus.Fields{
			"page":    page,
			"fetched": len(batch),
			"stored":  len(rows),
			"skipped": skipped,
		}).Debug("Synced trades page")

		if len(batch) < s.cfg.SyncPageSize {
			break
		}
	}

	s.checkpoint(ctx, JobTrades)
	s.log.WithField("count", total).Info("Trades synced")

	if s.cfg.WhaleAlertsEnabled && s.whales != nil && s.alertSender != nil {
		if err := s.watchWhales(ctx); err != nil {
			s.log.WithError(err).Warn("Whale watch failed")
		}
	}
	return total, nil
}

func (s *Syncer) syncMarkets(ctx context.Context) (total int, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSync(JobMarkets, time.Since(start), total, err)
	}()

	for page := 0; page < s.cfg.SyncMaxPages; page++ {
		batch, err := s.markets.ListMarkets(ctx, gammaapi.MarketParams{
			Limit:  s.cfg.SyncPageSize,
			Offset: page * s.cfg.SyncPageSize,
		})
		if err != nil {
			return total, fmt.Errorf("fetch markets page %d: %w", page, err)
		}

		rows := make([]storage.Market, 0, len(batch))
		for i := range batch {
			if batch[i].Key() == "" {
				continue
			}
			rows = append(rows, marketFromAPI(&batch[i]))
		}
		if err := s.repo.UpsertMarkets(ctx, rows); err != nil {
			return total, fmt.Errorf("upsert markets: %w", err)
		}
		total += len(rows)

		if len(batch) < s.cfg.SyncPageSize {
			break
		}
	}

	s.checkpoint(ctx, JobMarkets)
	s.log.WithField("count", total).Info("Markets synced")
	return total, nil
}

func (s *Syncer) syncUsers(ctx context.Context) (total int, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSync(JobUsers, time.Since(start), total, err)
	}()

	ids, err := s.repo.DistinctUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	users := make([]storage.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, storage.User{ID: id, Address: id})
	}
	if err := s.repo.UpsertUsers(ctx, users); err != nil {
		return 0, fmt.Errorf("upsert users: %w", err)
	}

	s.checkpoint(ctx, JobUsers)
	s.log.WithField("count", len(users)).Info("Users synced")
	return len(users), nil
}

// LastSync returns when a job last completed, or the zero time if never
func (s *Syncer) LastSync(ctx context.Context, job string) (time.Time, error) {
	v, err := s.repo.GetState(ctx, checkpointKey(job))
	if err != nil || v == "" {
		return time.Time{}, err
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse checkpoint %q: %w", v, err)
	}
	return time.Unix(ts, 0).UTC(), nil
}

func (s *Syncer) checkpoint(ctx context.Context, job string) {
	value := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.repo.SetState(ctx, checkpointKey(job), value); err != nil {
		s.log.WithError(err).WithField("job", job).Error("Failed to update checkpoint")
	}
}

func checkpointKey(job string) string {
	return "last_" + job + "_sync_ts"
}
