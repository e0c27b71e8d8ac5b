package health

// Tier is a discrete classification of a provider's recent reliability.
// Lower rank is better; ranks are used directly as sort keys.
type Tier int

const (
	TierExcellent Tier = iota
	TierGood
	TierFair
	TierPoor
	TierUnhealthy
)

// String returns the tier's metric label value.
func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	case TierPoor:
		return "poor"
	case TierUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Thresholds holds the success-rate cutoffs for each tier. All values are
// inclusive lower bounds.
type Thresholds struct {
	// Excellent additionally requires P95 latency at or below the
	// provider's latency baseline. Default: 0.99.
	Excellent float64

	// Good. Default: 0.95.
	Good float64

	// Fair. Default: 0.80.
	Fair float64

	// Poor. Below this a provider is unhealthy. Default: 0.50.
	Poor float64
}

// DefaultThresholds returns the default tier thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Excellent: 0.99,
		Good:      0.95,
		Fair:      0.80,
		Poor:      0.50,
	}
}

// withDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t.Excellent <= 0 {
		t.Excellent = def.Excellent
	}
	if t.Good <= 0 {
		t.Good = def.Good
	}
	if t.Fair <= 0 {
		t.Fair = def.Fair
	}
	if t.Poor <= 0 {
		t.Poor = def.Poor
	}
	return t
}
