package db

import (
	"context"
	"errors"
	"time"

	"github.com/NasaVasa/signalbot/internal/domain"
	"gorm.io/gorm"
)

// SignalRepository is the append-only ledger of published signals. It has no
// update or delete path.
type SignalRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSignalRepository(db *gorm.DB) *SignalRepository {
	return &SignalRepository{db: db, now: time.Now}
}

var _ domain.SignalLedger = (*SignalRepository)(nil)

// Append stores record and fills in its ID. A zero CreatedAt is set to now.
func (r *SignalRepository) Append(ctx context.Context, record *domain.SignalRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}
	if record.SignalType == "" {
		record.SignalType = domain.SignalBuy
	}

	model := mapSignalToModel(*record)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return &domain.StorageError{Op: "signals.append", Err: err}
	}
	record.ID = model.ID
	record.CreatedAt = time.Unix(model.CreatedAt, 0)
	return nil
}

func (r *SignalRepository) MostRecent(ctx context.Context, userID int64, symbol string) (*domain.SignalRecord, error) {
	var model signalModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "signals.most_recent", Err: err}
	}
	record := mapSignalToDomain(model)
	return &record, nil
}

func (r *SignalRepository) Recent(ctx context.Context, userID int64, limit int) ([]domain.SignalRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	var models []signalModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, &domain.StorageError{Op: "signals.recent", Err: err}
	}
	records := make([]domain.SignalRecord, 0, len(models))
	for _, model := range models {
		records = append(records, mapSignalToDomain(model))
	}
	return records, nil
}

func mapSignalToDomain(model signalModel) domain.SignalRecord {
	return domain.SignalRecord{
		ID:          model.ID,
		UserID:      model.UserID,
		Symbol:      model.Symbol,
		SignalType:  domain.SignalType(model.SignalType),
		Confidence:  model.Confidence,
		Entry:       model.Entry,
		TakeProfit:  model.TakeProfit,
		StopLoss:    model.StopLoss,
		ExitHorizon: model.ExitHorizon,
		CreatedAt:   time.Unix(model.CreatedAt, 0),
	}
}

func mapSignalToModel(record domain.SignalRecord) signalModel {
	return signalModel{
		ID:          record.ID,
		UserID:      record.UserID,
		Symbol:      record.Symbol,
		SignalType:  string(record.SignalType),
		Confidence:  record.Confidence,
		Entry:       record.Entry,
		TakeProfit:  record.TakeProfit,
		StopLoss:    record.StopLoss,
		ExitHorizon: record.ExitHorizon,
		CreatedAt:   record.CreatedAt.Unix(),
	}
}
