package notification

// Kind tags every notification the engine can produce.
type Kind string

const (
	KindRelapseRiskCritical  Kind = "relapse_risk_critical"
	KindRelapseRiskHigh      Kind = "relapse_risk_high"
	KindHighRiskTime         Kind = "high_risk_time"
	KindGoalDeadline         Kind = "goal_deadline"
	KindAbstinenceMilestone  Kind = "abstinence_milestone"
	KindApproachingMilestone Kind = "approaching_milestone"
	KindMotivationBoost      Kind = "motivation_boost"
	KindCopingStrategy       Kind = "coping_strategy"
	KindCheckIn              Kind = "check_in"
)

// Kinds lists every kind in generator precedence order.
var Kinds = []Kind{
	KindRelapseRiskCritical,
	KindRelapseRiskHigh,
	KindHighRiskTime,
	KindGoalDeadline,
	KindAbstinenceMilestone,
	KindApproachingMilestone,
	KindMotivationBoost,
	KindCopingStrategy,
	KindCheckIn,
}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// HighSalience kinds are written by the language model when one is available.
func (k Kind) HighSalience() bool {
	switch k {
	case KindRelapseRiskCritical, KindRelapseRiskHigh, KindAbstinenceMilestone:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
