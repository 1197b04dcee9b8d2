package analyzer

import (
	"testing"

	"github.com/futig/interview-engine/internal/entity"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		expressions entity.Expressions
		want        int
	}{
		{
			name:        "happy with small negative",
			expressions: entity.Expressions{"happy": 0.8, "sad": 0.1, "neutral": 0.1},
			want:        85,
		},
		{
			name:        "neutral face",
			expressions: entity.Expressions{"neutral": 1},
			want:        50,
		},
		{
			name:        "negative labels are summed before flooring",
			expressions: entity.Expressions{"sad": 0.25, "angry": 0.25, "fearful": 0.25, "surprised": 0.25},
			want:        0,
		},
		{
			name:        "floor is applied to each part",
			expressions: entity.Expressions{"happy": 0.59, "disgusted": 0.03},
			want:        50 + 29 - 1,
		},
		{
			name:        "inconsistent probabilities are not clamped",
			expressions: entity.Expressions{"sad": 1, "angry": 1},
			want:        -50,
		},
		{
			name:        "neutral does not count as negative",
			expressions: entity.Expressions{"happy": 0.2, "neutral": 0.8},
			want:        60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.expressions); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDominant(t *testing.T) {
	t.Run("highest probability wins", func(t *testing.T) {
		got, ok := Dominant(entity.Expressions{"neutral": 0.2, "happy": 0.7, "sad": 0.1})
		if !ok {
			t.Fatal("expected an emotion")
		}
		if got.Label != "happy" || got.Probability != 0.7 {
			t.Errorf("got %+v, want happy/0.7", got)
		}
	})

	t.Run("ties resolve in detector order", func(t *testing.T) {
		got, _ := Dominant(entity.Expressions{"surprised": 0.5, "neutral": 0.5})
		if got.Label != "neutral" {
			t.Errorf("got %s, want neutral", got.Label)
		}
	})

	t.Run("empty expressions", func(t *testing.T) {
		if _, ok := Dominant(nil); ok {
			t.Error("expected no emotion for nil expressions")
		}
	})
}

func TestEvaluate_NoFace(t *testing.T) {
	result := Evaluate(nil)
	if result.Score != nil || result.Emotion != nil {
		t.Errorf("expected null result, got %+v", result)
	}
	if result.Detected() {
		t.Error("expected Detected() to be false")
	}
}
