package steps

import (
	"context"
	"strings"

	"github.com/yungbote/carebridge-backend/internal/catalog"
)

// Semantic routing threshold. Below this the cluster signal is too thin to
// beat the AI-assisted strategy.
const semanticMinConfidence = 0.45

// Semantic confidence never reaches the exact strategy's 1.0.
const semanticMaxConfidence = 0.95

// routeSemantic scores the utterance against per-term pattern clusters built
// from the term keywords plus the patterns of its catalog questions. The
// cluster score blends match ratio (how much of the cluster the utterance
// touches) with keyword density (how much of the utterance is cluster
// vocabulary), so a long rambling answer with one incidental keyword does
// not outrank a short on-topic one.
func routeSemantic(_ context.Context, snap *catalog.Snapshot, utterance string) (RouteDecision, bool) {
	tokens := tokenize(utterance)
	if len(tokens) == 0 {
		return RouteDecision{}, false
	}

	var best RouteDecision
	for _, dim := range snap.Dimensions() {
		for _, term := range dim.Terms {
			cluster := termCluster(snap, dim.Name, term)
			if len(cluster) == 0 {
				continue
			}
			var matched []string
			for _, phrase := range cluster {
				if containsPhrase(utterance, phrase) {
					matched = append(matched, phrase)
				}
			}
			if len(matched) == 0 {
				continue
			}

			matchRatio := float64(len(matched)) / float64(len(cluster))
			density := clusterDensity(tokens, matched)
			conf := clamp01(0.35 + 0.4*matchRatio + 0.45*density)
			if conf > semanticMaxConfidence {
				conf = semanticMaxConfidence
			}
			if conf > best.Confidence {
				best = RouteDecision{
					Dimension:  dim.Name,
					Term:       term.Name,
					Confidence: conf,
					Method:     RouteMethodSemantic,
					Keywords:   matched,
				}
			}
		}
	}
	if best.Confidence < semanticMinConfidence {
		return RouteDecision{}, false
	}
	return best, true
}

// termCluster is the term's keyword set plus every pattern stored on its
// questions, deduplicated.
func termCluster(snap *catalog.Snapshot, dimension string, term catalog.Term) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, kw := range term.Keywords {
		add(kw)
	}
	for _, q := range snap.Lookup(dimension, term.Name) {
		for _, p := range q.Patterns {
			add(p)
		}
	}
	return out
}

// clusterDensity is the fraction of utterance tokens covered by matched
// cluster phrases.
func clusterDensity(tokens []string, matched []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	covered := map[string]bool{}
	for _, phrase := range matched {
		for _, w := range tokenize(phrase) {
			covered[w] = true
		}
	}
	n := 0
	for _, t := range tokens {
		if covered[t] {
			n++
		}
	}
	return float64(n) / float64(len(tokens))
}
