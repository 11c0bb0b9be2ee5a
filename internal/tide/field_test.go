package tide

import "testing"

func TestFactorStaysInRange(t *testing.T) {
	f := NewField(42)
	for day := 0; day < 365; day++ {
		for rarity := uint8(0); rarity < 5; rarity++ {
			got := f.Factor(day, rarity)
			if got < 1-swing || got > 1+swing {
				t.Fatalf("day %d rarity %d: factor %f outside [%f, %f]", day, rarity, got, 1-swing, 1+swing)
			}
		}
	}
}

func TestFieldIsDeterministic(t *testing.T) {
	a := NewField(7)
	b := NewField(7)
	for day := 0; day < 50; day++ {
		if a.Factor(day, 2) != b.Factor(day, 2) {
			t.Fatalf("same seed diverged on day %d", day)
		}
	}
}

func TestNilFieldIsNeutral(t *testing.T) {
	var f *Field
	if got := f.Factor(10, 3); got != 1.0 {
		t.Errorf("nil field must be neutral, got %f", got)
	}
}
