package ewma

// Rule identifies one out-of-control detection rule. The numbering
// follows the Western Electric convention, which is why 4 is absent.
type Rule int

const (
	// RuleBeyondLimits — the point is outside its own control limit.
	RuleBeyondLimits Rule = 1

	// RuleOneSidedRun — 9 consecutive points strictly on one side of the
	// center line.
	RuleOneSidedRun Rule = 2

	// RuleMonotonicRun — 6 consecutive strictly increasing or strictly
	// decreasing points.
	RuleMonotonicRun Rule = 3

	// RuleTwoOfThree — at least 2 of the last 3 points beyond the 2σ band
	// of the statistic but still inside the control limit.
	RuleTwoOfThree Rule = 5
)

// History each rule needs before it can fire. A rule with insufficient
// trailing history is skipped — never treated as satisfied.
const (
	oneSidedRunLength  = 9
	monotonicRunLength = 6
	twoOfThreeWindow   = 3
)

// evaluateRules checks every detection rule against the trailing window
// ending at the newest point. points must be non-empty; the newest
// point's Rules field is what the caller assigns the result to.
func evaluateRules(points []Point, cfg Config) []Rule {
	var violated []Rule
	last := points[len(points)-1]

	if last.OutOfControl {
		violated = append(violated, RuleBeyondLimits)
	}
	if oneSidedRun(points) {
		violated = append(violated, RuleOneSidedRun)
	}
	if monotonicRun(points) {
		violated = append(violated, RuleMonotonicRun)
	}
	if twoOfThreeBeyondTwoSigma(points, cfg) {
		violated = append(violated, RuleTwoOfThree)
	}
	return violated
}

// oneSidedRun reports whether the trailing 9 points sit strictly on one
// side of the center line.
func oneSidedRun(points []Point) bool {
	if len(points) < oneSidedRunLength {
		return false
	}
	tail := points[len(points)-oneSidedRunLength:]

	above, below := true, true
	for _, p := range tail {
		if p.EWMA <= p.CenterLine {
			above = false
		}
		if p.EWMA >= p.CenterLine {
			below = false
		}
	}
	return above || below
}

// monotonicRun reports whether the trailing 6 points are strictly
// monotonic.
func monotonicRun(points []Point) bool {
	if len(points) < monotonicRunLength {
		return false
	}
	tail := points[len(points)-monotonicRunLength:]

	inc, dec := true, true
	for i := 1; i < len(tail); i++ {
		if tail[i].EWMA <= tail[i-1].EWMA {
			inc = false
		}
		if tail[i].EWMA >= tail[i-1].EWMA {
			dec = false
		}
	}
	return inc || dec
}

// twoOfThreeBeyondTwoSigma reports whether at least 2 of the trailing 3
// points are beyond the 2σ band of the statistic while remaining inside
// their control limits. The band is derived from each point's own limit
// so it tracks time-varying limits: band = center + 2·(UCL−center)/L.
func twoOfThreeBeyondTwoSigma(points []Point, cfg Config) bool {
	if len(points) < twoOfThreeWindow {
		return false
	}
	tail := points[len(points)-twoOfThreeWindow:]

	var n int
	for _, p := range tail {
		if p.OutOfControl {
			continue
		}
		band := 2 * (p.UCL - p.CenterLine) / cfg.L
		if p.EWMA > p.CenterLine+band || p.EWMA < p.CenterLine-band {
			n++
		}
	}
	return n >= 2
}
