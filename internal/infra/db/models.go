package db

import "time"

type userSettingsModel struct {
	UserID           int64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Pairs            string `gorm:"not null"`
	FrequencySeconds int    `gorm:"not null"`
	Sensitivity      string `gorm:"not null"`
	Category         string `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (userSettingsModel) TableName() string { return "users" }

type signalModel struct {
	ID          uint     `gorm:"primaryKey"`
	UserID      int64    `gorm:"index:idx_signals_user_symbol,priority:1;not null"`
	Symbol      string   `gorm:"index:idx_signals_user_symbol,priority:2;not null"`
	SignalType  string   `gorm:"not null"`
	Confidence  *float64
	Entry       *float64
	TakeProfit  *float64
	StopLoss    *float64
	ExitHorizon *string
	// Epoch seconds, assigned by the ledger.
	CreatedAt int64 `gorm:"index:idx_signals_time;not null;autoCreateTime:false"`
}

func (signalModel) TableName() string { return "signals" }
