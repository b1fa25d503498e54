package db

import (
	"context"
	"errors"
	"strings"

	"github.com/NasaVasa/signalbot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pairsDelimiter = ","

// SettingsRepository persists per-user settings. Values are stored as given;
// validation belongs to the caller.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

var _ domain.SettingsStore = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(ctx context.Context, userID int64) (*domain.UserSettings, error) {
	var model userSettingsModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.StorageError{Op: "settings.get", Err: err}
	}
	settings := mapSettingsToDomain(model)
	return &settings, nil
}

// Upsert inserts the default row when the user is unknown and then applies
// only the fields present in patch. Both steps share one transaction.
func (r *SettingsRepository) Upsert(ctx context.Context, userID int64, patch domain.SettingsPatch) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := mapSettingsToModel(domain.DefaultUserSettings(userID))
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error; err != nil {
			return err
		}

		if patch.IsEmpty() {
			return nil
		}
		return tx.Model(&userSettingsModel{}).Where("user_id = ?", userID).Updates(patchUpdates(patch)).Error
	})
	if err != nil {
		return &domain.StorageError{Op: "settings.upsert", Err: err}
	}
	return nil
}

func (r *SettingsRepository) ListAll(ctx context.Context) ([]domain.UserSettings, error) {
	var models []userSettingsModel
	if err := r.db.WithContext(ctx).Order("user_id").Find(&models).Error; err != nil {
		return nil, &domain.StorageError{Op: "settings.list", Err: err}
	}
	settings := make([]domain.UserSettings, 0, len(models))
	for _, model := range models {
		settings = append(settings, mapSettingsToDomain(model))
	}
	return settings, nil
}

func patchUpdates(patch domain.SettingsPatch) map[string]interface{} {
	updates := make(map[string]interface{})
	if patch.Pairs != nil {
		updates["pairs"] = strings.Join(patch.Pairs, pairsDelimiter)
	}
	if patch.FrequencySeconds != nil {
		updates["frequency_seconds"] = *patch.FrequencySeconds
	}
	if patch.Sensitivity != nil {
		updates["sensitivity"] = string(*patch.Sensitivity)
	}
	if patch.Category != nil {
		updates["category"] = string(*patch.Category)
	}
	return updates
}

func mapSettingsToDomain(model userSettingsModel) domain.UserSettings {
	var pairs []string
	for _, pair := range strings.Split(model.Pairs, pairsDelimiter) {
		if pair = strings.TrimSpace(pair); pair != "" {
			pairs = append(pairs, pair)
		}
	}
	return domain.UserSettings{
		UserID:           model.UserID,
		Pairs:            pairs,
		FrequencySeconds: model.FrequencySeconds,
		Sensitivity:      domain.Sensitivity(model.Sensitivity),
		Category:         domain.Category(model.Category),
	}
}

func mapSettingsToModel(settings domain.UserSettings) userSettingsModel {
	return userSettingsModel{
		UserID:           settings.UserID,
		Pairs:            strings.Join(settings.Pairs, pairsDelimiter),
		FrequencySeconds: settings.FrequencySeconds,
		Sensitivity:      string(settings.Sensitivity),
		Category:         string(settings.Category),
	}
}
