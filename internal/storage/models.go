package storage

import (
	"time"

	"gorm.io/gorm"
)

// AppState stores application state for checkpointing
type AppState struct {
	StateKey   string `gorm:"primaryKey;size:64"`
	StateValue string `gorm:"type:text;not null"`
	UpdatedTS  int64  `gorm:"not null;index"`
}

func (AppState) TableName() string {
	return "app_state"
}

// Trade is one fill as ingested from the Data API. Price, size and timestamp
// are nullable because the venue occasionally omits them.
type Trade struct {
	ID        string   `gorm:"primaryKey;size:191"`
	MarketID  string   `gorm:"size:128;not null;index"`
	UserID    string   `gorm:"size:128;not null;index"`
	Side      string   `gorm:"size:10;not null"`
	Price     *float64 `gorm:"type:decimal(20,6)"`
	Size      *float64 `gorm:"type:decimal(20,6)"`
	Timestamp *string  `gorm:"column:timestamp;size:64;index"`
	Profit    *float64 `gorm:"type:decimal(20,6)"`
	Realized  bool     `gorm:"not null"`
	SyncedTS  int64    `gorm:"not null"`
}

func (Trade) TableName() string {
	return "trades"
}

// Market is a Gamma market snapshot
type Market struct {
	ID              string   `gorm:"primaryKey;size:191"`
	Question        *string  `gorm:"type:text"`
	Volume24h       *float64 `gorm:"column:volume_24h;type:decimal(24,6)"`
	Volume          *float64 `gorm:"type:decimal(24,6)"`
	Status          string   `gorm:"size:16;not null;index"`
	MarketCreatedAt *string  `gorm:"column:created_at;size:64"`
	SyncedTS        int64    `gorm:"not null"`
}

func (Market) TableName() string {
	return "markets"
}

// User is a wallet seen in the trade feed
type User struct {
	ID       string `gorm:"primaryKey;size:128"`
	Address  string `gorm:"size:128;not null"`
	SyncedTS int64  `gorm:"not null"`
}

func (User) TableName() string {
	return "users"
}

// WhaleAlert records a whale notification so repeats can be suppressed
type WhaleAlert struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	UserID      string  `gorm:"size:128;not null;index"`
	NetInvested float64 `gorm:"type:decimal(24,6);not null"`
	WindowHours int     `gorm:"not null"`
	CreatedTS   int64   `gorm:"not null;index"`
}

func (WhaleAlert) TableName() string {
	return "whale_alerts"
}

// BeforeCreate hook for timestamps
func (a *AppState) BeforeCreate(tx *gorm.DB) error {
	if a.UpdatedTS == 0 {
		a.UpdatedTS = time.Now().Unix()
	}
	return nil
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.SyncedTS == 0 {
		t.SyncedTS = time.Now().Unix()
	}
	return nil
}

func (m *Market) BeforeCreate(tx *gorm.DB) error {
	if m.SyncedTS == 0 {
		m.SyncedTS = time.Now().Unix()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.SyncedTS == 0 {
		u.SyncedTS = time.Now().Unix()
	}
	return nil
}

func (a *WhaleAlert) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedTS == 0 {
		a.CreatedTS = time.Now().Unix()
	}
	return nil
}
