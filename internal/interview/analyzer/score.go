package analyzer

import (
	"math"
	"sort"

	"github.com/futig/interview-engine/internal/entity"
)

const (
	baseScore   = 50
	scoreWeight = 50
)

// expressionOrder is the order the detector reports labels in. Ties in
// probability resolve to the earlier label.
var expressionOrder = []string{"neutral", "happy", "sad", "angry", "fearful", "disgusted", "surprised"}

var negativeExpressions = []string{"sad", "angry", "fearful", "disgusted", "surprised"}

// Score computes 50 + floor(happy*50) - floor(negative*50). The result is
// not clamped: inconsistent probabilities may leave [0, 100].
func Score(expressions entity.Expressions) int {
	happy := int(math.Floor(expressions["happy"] * scoreWeight))

	var negative float64
	for _, label := range negativeExpressions {
		negative += expressions[label]
	}

	return baseScore + happy - int(math.Floor(negative*scoreWeight))
}

// Dominant returns the highest-probability expression.
func Dominant(expressions entity.Expressions) (entity.Emotion, bool) {
	if len(expressions) == 0 {
		return entity.Emotion{}, false
	}

	labels := make([]string, 0, len(expressions))
	known := make(map[string]struct{}, len(expressionOrder))
	for _, label := range expressionOrder {
		known[label] = struct{}{}
		if _, ok := expressions[label]; ok {
			labels = append(labels, label)
		}
	}

	var extra []string
	for label := range expressions {
		if _, ok := known[label]; !ok {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	labels = append(labels, extra...)

	best := entity.Emotion{Label: labels[0], Probability: expressions[labels[0]]}
	for _, label := range labels[1:] {
		if p := expressions[label]; p > best.Probability {
			best = entity.Emotion{Label: label, Probability: p}
		}
	}

	return best, true
}

// Evaluate turns detector output into an analysis result. Nil expressions
// mean no face was found.
func Evaluate(expressions entity.Expressions) entity.AnalysisResult {
	emotion, ok := Dominant(expressions)
	if !ok {
		return entity.AnalysisResult{}
	}

	score := Score(expressions)
	return entity.AnalysisResult{
		Score:   &score,
		Emotion: &emotion,
	}
}
