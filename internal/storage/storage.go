package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/liamashdown/polymonitor/internal/analytics"
	"github.com/liamashdown/polymonitor/internal/config"
	"github.com/liamashdown/polymonitor/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const upsertBatchSize = 500

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseDriver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if cfg.DatabaseDriver == config.DriverSQLite {
		// sqlite serializes writers, and an in-memory database lives on one connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
		sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.WithField("driver", cfg.DatabaseDriver).Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate runs GORM auto-migration
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&AppState{},
		&Trade{},
		&Market{},
		&User{},
		&WhaleAlert{},
	)
}

// GetState retrieves a state value by key
func (db *DB) GetState(ctx context.Context, key string) (value string, err error) {
	defer db.observe("get_state", time.Now(), &err)

	var state AppState
	result := db.conn.WithContext(ctx).Where("state_key = ?", key).First(&state)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if result.Error != nil {
		return "", result.Error
	}
	return state.StateValue, nil
}

// SetState sets a state value
func (db *DB) SetState(ctx context.Context, key, value string) (err error) {
	defer db.observe("set_state", time.Now(), &err)

	state := AppState{
		StateKey:   key,
		StateValue: value,
		UpdatedTS:  time.Now().Unix(),
	}
	return db.conn.WithContext(ctx).Save(&state).Error
}

// UpsertTrades inserts trades, replacing any row with the same ID
func (db *DB) UpsertTrades(ctx context.Context, trades []Trade) (err error) {
	if len(trades) == 0 {
		return nil
	}
	defer db.observe("upsert_trades", time.Now(), &err)

	return db.conn.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&trades, upsertBatchSize).Error
}

// UpsertMarkets inserts markets, replacing any row with the same ID
func (db *DB) UpsertMarkets(ctx context.Context, markets []Market) (err error) {
	if len(markets) == 0 {
		return nil
	}
	defer db.observe("upsert_markets", time.Now(), &err)

	return db.conn.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&markets, upsertBatchSize).Error
}

// UpsertUsers inserts users, replacing any row with the same ID
func (db *DB) UpsertUsers(ctx context.Context, users []User) (err error) {
	if len(users) == 0 {
		return nil
	}
	defer db.observe("upsert_users", time.Now(), &err)

	return db.conn.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&users, upsertBatchSize).Error
}

// LoadTrades returns every trade carrying a timestamp, ordered by ID
func (db *DB) LoadTrades(ctx context.Context) (out []analytics.RawTrade, err error) {
	defer db.observe("load_trades", time.Now(), &err)

	var rows []Trade
	if err := db.conn.WithContext(ctx).
		Where("timestamp IS NOT NULL").
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	out = make([]analytics.RawTrade, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.RawTrade{
			ID:        r.ID,
			MarketID:  r.MarketID,
			UserID:    r.UserID,
			Side:      r.Side,
			Price:     r.Price,
			Size:      r.Size,
			Timestamp: *r.Timestamp,
		})
	}
	return out, nil
}

// LoadMarkets returns every stored market ordered by ID
func (db *DB) LoadMarkets(ctx context.Context) (out []analytics.Market, err error) {
	defer db.observe("load_markets", time.Now(), &err)

	var rows []Market
	if err := db.conn.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	out = make([]analytics.Market, 0, len(rows))
	for _, r := range rows {
		m := analytics.Market{
			ID:        r.ID,
			Volume24h: r.Volume24h,
			Volume:    r.Volume,
			Status:    r.Status,
		}
		if r.Question != nil {
			m.Question = *r.Question
		}
		if r.MarketCreatedAt != nil {
			m.CreatedAt = *r.MarketCreatedAt
		}
		out = append(out, m)
	}
	return out, nil
}

// DistinctUserIDs returns the wallets present in the trades table
func (db *DB) DistinctUserIDs(ctx context.Context) (ids []string, err error) {
	defer db.observe("distinct_users", time.Now(), &err)

	result := db.conn.WithContext(ctx).Model(&Trade{}).
		Where("user_id <> ''").
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids)
	return ids, result.Error
}

// InsertWhaleAlert records a sent whale notification
func (db *DB) InsertWhaleAlert(ctx context.Context, alert *WhaleAlert) (err error) {
	defer db.observe("insert_whale_alert", time.Now(), &err)
	return db.conn.WithContext(ctx).Create(alert).Error
}

// GetLastWhaleAlert retrieves the most recent whale alert for a user
func (db *DB) GetLastWhaleAlert(ctx context.Context, userID string) (alert *WhaleAlert, err error) {
	defer db.observe("last_whale_alert", time.Now(), &err)

	var row WhaleAlert
	result := db.conn.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_ts DESC").
		First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &row, nil
}

func (db *DB) observe(operation string, start time.Time, err *error) {
	metrics.RecordDatabaseQuery(operation, time.Since(start), *err)
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
