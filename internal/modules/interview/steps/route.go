package steps

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/carebridge-backend/internal/catalog"
	"github.com/yungbote/carebridge-backend/internal/observability"
	"github.com/yungbote/carebridge-backend/internal/types"
)

// Explicit topic-change signals that let the router escape the dimension
// lock window mid-term.
var topicChangePhrases = []string{
	"change topic",
	"change the topic",
	"different topic",
	"something else",
	"talk about something else",
	"switch to",
	"move on",
	"another subject",
	"instead",
}

type routeStrategy struct {
	name    string
	attempt func(ctx context.Context) (RouteDecision, bool)
}

// RouteUtterance runs the ordered strategy chain over one utterance and
// applies the dimension lock window to the winning decision. The chain
// short-circuits on the first strategy that accepts; the fallback tier
// accepts whenever the catalog is non-empty, so only an empty catalog
// surfaces ErrRoutingFailure.
func RouteUtterance(ctx context.Context, deps Deps, convID uuid.UUID, state *types.AssessmentState, utterance string) (RouteDecision, error) {
	snap := deps.Catalog.Current()

	chain := []routeStrategy{
		{name: RouteMethodExact, attempt: func(ctx context.Context) (RouteDecision, bool) {
			return routeLexicon(ctx, snap, utterance)
		}},
		{name: RouteMethodSemantic, attempt: func(ctx context.Context) (RouteDecision, bool) {
			return routeSemantic(ctx, snap, utterance)
		}},
		{name: RouteMethodAIEnhanced, attempt: func(ctx context.Context) (RouteDecision, bool) {
			return routeAI(ctx, deps, convID, snap, utterance)
		}},
		{name: RouteMethodFallback, attempt: func(ctx context.Context) (RouteDecision, bool) {
			return routeFallback(deps.Cfg, snap)
		}},
	}

	for _, strat := range chain {
		decision, ok := strat.attempt(ctx)
		if !ok {
			continue
		}
		decision = applyRouteLock(state, utterance, decision, snap, deps.Cfg)
		state.LastRouteMethod = decision.Method
		observability.Current().ObserveRouteDecision(decision.Method, decision.Confidence)
		deps.Log.Debug("Utterance routed",
			"conversation_id", convID,
			"dimension", decision.Dimension,
			"term", decision.Term,
			"method", decision.Method,
			"confidence", decision.Confidence,
			"locked", decision.Locked,
		)
		return decision, nil
	}
	return RouteDecision{}, ErrRoutingFailure
}

// routeFallback routes to the configured default at low confidence, or the
// hierarchy's first term when no default is configured.
func routeFallback(cfg Config, snap *catalog.Snapshot) (RouteDecision, bool) {
	cfg = cfg.WithDefaults()
	dimension, term := cfg.DefaultDimension, cfg.DefaultTerm
	if dimension == "" || term == "" {
		dims := snap.Dimensions()
		if len(dims) == 0 || len(dims[0].Terms) == 0 {
			return RouteDecision{}, false
		}
		dimension = dims[0].Name
		term = dims[0].Terms[0].Name
	}
	return RouteDecision{
		Dimension:  dimension,
		Term:       term,
		Confidence: cfg.FallbackConfidence,
		Method:     RouteMethodFallback,
	}, true
}

// applyRouteLock suppresses a mid-term reassignment to a different dimension
// while the lock window is open, unless the utterance carries an explicit
// topic-change signal. The suppressed decision keeps the locked dimension's
// current term and records why.
func applyRouteLock(state *types.AssessmentState, utterance string, decision RouteDecision, snap *catalog.Snapshot, cfg Config) RouteDecision {
	cfg = cfg.WithDefaults()

	lockOpen := state.RouteLockDimension != "" && state.RouteLockTurnsLeft > 0
	sameDim := lockOpen && strings.EqualFold(decision.Dimension, state.RouteLockDimension)

	if lockOpen && !sameDim {
		if containsAny(utterance, topicChangePhrases) != "" {
			// Explicit topic change releases the lock.
			state.RouteLockDimension = decision.Dimension
			state.RouteLockTurnsLeft = cfg.RouteLockWindow
			return decision
		}
		term := state.CurrentTerm
		if term == "" {
			if d, ok := snap.DimensionByName(state.RouteLockDimension); ok && len(d.Terms) > 0 {
				term = d.Terms[0].Name
			}
		}
		state.RouteLockTurnsLeft--
		return RouteDecision{
			Dimension:  state.RouteLockDimension,
			Term:       term,
			Confidence: decision.Confidence,
			Method:     decision.Method,
			Keywords:   decision.Keywords,
			Locked:     true,
			Reason:     "dimension lock window active, reassignment to " + decision.Dimension + " suppressed",
		}
	}

	// Fresh lock on the (possibly unchanged) dimension.
	state.RouteLockDimension = decision.Dimension
	state.RouteLockTurnsLeft = cfg.RouteLockWindow
	return decision
}
