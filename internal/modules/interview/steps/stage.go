package steps

import "github.com/yungbote/carebridge-backend/internal/types"

// Stage bands as percentages of the 0-7 scale. Boundaries are inclusive on
// the lower edge of each better band, and the mapping is monotonic: a higher
// score never maps to a worse stage.
type stageBand struct {
	minPercent float64
	stage      types.Stage
}

var stageBands = []stageBand{
	{80, types.StageMinimal},
	{60, types.StageMild},
	{40, types.StageModerate},
	{20, types.StageSignificant},
	{0, types.StageSevere},
}

// boundaryEpsilon keeps scores that are exactly on a band edge (e.g. 5.6/7
// = 80%) in the better band despite float rounding.
const boundaryEpsilon = 1e-9

// StageFor maps a 0-7 score to its severity stage.
func StageFor(score float64) types.Stage {
	pct := types.ClampScore(score) / types.ScoreMax * 100
	for _, b := range stageBands {
		if pct >= b.minPercent-boundaryEpsilon {
			return b.stage
		}
	}
	return types.StageSevere
}
