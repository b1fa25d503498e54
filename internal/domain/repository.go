package domain

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// StorageError reports a failed read or write in the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type SettingsStore interface {
	Get(ctx context.Context, userID int64) (*UserSettings, error)
	Upsert(ctx context.Context, userID int64, patch SettingsPatch) error
	ListAll(ctx context.Context) ([]UserSettings, error)
}

type SignalLedger interface {
	Append(ctx context.Context, record *SignalRecord) error
	MostRecent(ctx context.Context, userID int64, symbol string) (*SignalRecord, error)
	Recent(ctx context.Context, userID int64, limit int) ([]SignalRecord, error)
}
