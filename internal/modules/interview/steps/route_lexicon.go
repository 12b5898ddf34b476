package steps

import (
	"context"
	"strings"

	"github.com/yungbote/carebridge-backend/internal/catalog"
)

// routeLexicon matches the utterance against each term's curated keyword
// index. A hit is exact: confidence 1.0, no AI involved. When several terms
// match, the one with the longest matched keyword wins; length is the best
// cheap proxy for specificity ("shortness of breath" beats "breath").
func routeLexicon(_ context.Context, snap *catalog.Snapshot, utterance string) (RouteDecision, bool) {
	if strings.TrimSpace(utterance) == "" {
		return RouteDecision{}, false
	}

	var (
		best      RouteDecision
		bestLen   int
		bestWords []string
	)
	for _, dim := range snap.Dimensions() {
		for _, term := range dim.Terms {
			var matched []string
			longest := 0
			for _, kw := range term.Keywords {
				if containsPhrase(utterance, kw) {
					matched = append(matched, kw)
					if len(kw) > longest {
						longest = len(kw)
					}
				}
			}
			if len(matched) == 0 {
				continue
			}
			if longest > bestLen {
				bestLen = longest
				bestWords = matched
				best = RouteDecision{
					Dimension:  dim.Name,
					Term:       term.Name,
					Confidence: 1.0,
					Method:     RouteMethodExact,
				}
			}
		}
	}
	if bestLen == 0 {
		return RouteDecision{}, false
	}
	best.Keywords = bestWords
	return best, true
}
