package propensity

import (
	"testing"

	"github.com/ajayraho/mgeo/internal/model"
)

func referenceModel() *Model {
	return NewModel(model.PropensityConfig{
		LengthWeight:  0.8,
		BrandWeight:   1.2,
		RatingWeight:  1.2,
		MaxTextLength: 2000,
	})
}

func TestScore_Range(t *testing.T) {
	m := referenceModel()

	tests := []struct {
		name       string
		textLen    int
		brandScore float64
		rating     float64
	}{
		{"zeros", 0, 0, 0},
		{"maxed", 5000, 1.0, 5.0},
		{"typical", 800, 0.4, 4.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Score(tt.textLen, tt.brandScore, tt.rating)
			if got <= 0 || got >= 1 {
				t.Errorf("Score = %v, want value in (0,1)", got)
			}
		})
	}
}

func TestScore_MonotoneInEachFactor(t *testing.T) {
	m := referenceModel()

	base := m.Score(500, 0.3, 4.0)

	if got := m.Score(1500, 0.3, 4.0); got <= base {
		t.Errorf("longer text should strictly increase propensity: %v <= %v", got, base)
	}
	if got := m.Score(500, 0.8, 4.0); got <= base {
		t.Errorf("higher brand score should strictly increase propensity: %v <= %v", got, base)
	}
	if got := m.Score(500, 0.3, 4.8); got <= base {
		t.Errorf("higher rating should strictly increase propensity: %v <= %v", got, base)
	}
}

func TestScore_LowRatingContributesNothing(t *testing.T) {
	m := referenceModel()

	// Below the 3.0 pivot every rating maps to zero credit.
	at1 := m.Score(500, 0.3, 1.0)
	at3 := m.Score(500, 0.3, 3.0)
	if at1 != at3 {
		t.Errorf("ratings below 3.0 should contribute zero bias credit: %v != %v", at1, at3)
	}
}

func TestScore_TextLengthSaturates(t *testing.T) {
	m := referenceModel()

	atCap := m.Score(2000, 0.3, 4.0)
	beyond := m.Score(20000, 0.3, 4.0)
	if atCap != beyond {
		t.Errorf("length factor should saturate at max_text_length: %v != %v", atCap, beyond)
	}
}
