package annotate

import "github.com/aaryanpatil/steam-sentiment-analyzer/internal/database"

// Consensus compares the lexicon and context labels across a set of
// annotated reviews. Skipped and pending reviews are left out of both the
// numerator and the denominator.
type Consensus struct {
	Compared  int
	Agreed    int
	Disagreed int
}

// AgreementRate returns the share of compared reviews where both paths
// produced the same label, or 0 when nothing was comparable.
func (c Consensus) AgreementRate() float64 {
	if c.Compared == 0 {
		return 0
	}
	return float64(c.Agreed) / float64(c.Compared)
}

// ConsensusReport measures lexicon/context agreement. A review counts only
// when both labels are present and neither marks a skip.
func ConsensusReport(reviews []database.Review) Consensus {
	var c Consensus
	for _, r := range reviews {
		if r.Skipped || r.LexiconLabel == nil || r.ContextLabel == nil {
			continue
		}
		if *r.LexiconLabel == database.LabelSkipped {
			continue
		}
		c.Compared++
		if *r.LexiconLabel == *r.ContextLabel {
			c.Agreed++
		} else {
			c.Disagreed++
		}
	}
	return c
}
