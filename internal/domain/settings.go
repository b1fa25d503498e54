package domain

type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

type Category string

const (
	CategorySpot   Category = "spot"
	CategoryLinear Category = "linear"
)

const (
	MinFrequencySeconds     = 60
	MaxFrequencySeconds     = 31 * 86400
	DefaultFrequencySeconds = 3600

	FallbackPair = "BTCUSDT"
)

// DefaultPairs is the starter watch list of a freshly created user.
var DefaultPairs = []string{"BTCUSDT", "TRXUSDT", "INJUSDT"}

type UserSettings struct {
	UserID           int64
	Pairs            []string
	FrequencySeconds int
	Sensitivity      Sensitivity
	Category         Category
}

func DefaultUserSettings(userID int64) UserSettings {
	pairs := make([]string, len(DefaultPairs))
	copy(pairs, DefaultPairs)
	return UserSettings{
		UserID:           userID,
		Pairs:            pairs,
		FrequencySeconds: DefaultFrequencySeconds,
		Sensitivity:      SensitivityMedium,
		Category:         CategorySpot,
	}
}

// SettingsPatch carries the fields an upsert should overwrite. A nil field is
// left untouched.
type SettingsPatch struct {
	Pairs            []string
	FrequencySeconds *int
	Sensitivity      *Sensitivity
	Category         *Category
}

func (p SettingsPatch) IsEmpty() bool {
	return p.Pairs == nil && p.FrequencySeconds == nil && p.Sensitivity == nil && p.Category == nil
}
