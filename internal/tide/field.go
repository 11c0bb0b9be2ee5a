// Package tide models day-to-day fishing conditions as a smooth noise field
// over (day, rarity). The factor scales catch sizes so good and bad fishing
// days emerge without breaking reproducibility: the field is fully
// determined by the seed.
package tide

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// swing is the maximum deviation from a neutral day.
const swing = 0.25

// Field produces per-day, per-rarity abundance factors.
type Field struct {
	noise opensimplex.Noise
}

// NewField creates a conditions field from a seed.
func NewField(seed int64) *Field {
	return &Field{noise: opensimplex.New(seed)}
}

// Factor returns the abundance multiplier for a day and rarity, in
// [1-swing, 1+swing]. A nil field is always neutral.
func (f *Field) Factor(day int, rarity uint8) float64 {
	if f == nil {
		return 1.0
	}
	// Distinct rarity lanes through the noise, slow drift across days.
	v := f.noise.Eval2(float64(day)*0.35, float64(rarity)*7.31)
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	return 1.0 + swing*v
}
