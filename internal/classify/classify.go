package classify

import (
	"math"

	"github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"
)

// Result is the context classifier's verdict for one text.
type Result struct {
	Label      string
	Confidence float64
}

// Classifier maps a review text to a sentiment label with a confidence.
// Implementations must never fail a batch: internal errors map to
// SafeDefault.
type Classifier interface {
	Classify(text string) Result
}

// classLabels is the model's output order: index 0 = negative,
// 1 = neutral, 2 = positive.
var classLabels = [3]string{
	database.LabelNegative,
	database.LabelNeutral,
	database.LabelPositive,
}

// SafeDefault is the substitute result for any internal classifier failure,
// so one bad record never aborts a pass.
func SafeDefault() Result {
	return Result{Label: database.LabelNeutral, Confidence: 0}
}

// resultFromLogits softmaxes the raw class scores and picks the argmax.
// Confidence is the probability mass of the winning class, nothing else.
func resultFromLogits(logits []float32) Result {
	if len(logits) != len(classLabels) {
		return SafeDefault()
	}

	probs := softmax(logits)
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Result{Label: classLabels[best], Confidence: probs[best]}
}

func softmax(logits []float32) []float64 {
	// Shift by the max logit for numerical stability.
	maxLogit := float64(logits[0])
	for _, l := range logits[1:] {
		if float64(l) > maxLogit {
			maxLogit = float64(l)
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
