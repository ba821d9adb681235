package eligibility

// State 状态机输入，时间均为 unix 秒
type State struct {
	LastEligible     *bool
	LastAlertedAt    *int64
	LastIneligibleAt *int64
}

// Decision 状态机输出，LastEligible/LastIneligibleAt 为应写回的新状态
type Decision struct {
	Eligible         bool
	ShouldAlert      bool
	Reason           string
	LastEligible     bool
	LastIneligibleAt *int64
}

// EvaluateTransition 单个交易对的提醒状态迁移
// 只有从不合格转为合格、且不在去重窗口和再武装等待期内时才触发提醒
func EvaluateTransition(now int64, eligible bool, state State, dedupeWindowSec, minIneligibleSec int64) Decision {
	lastEligible := state.LastEligible != nil && *state.LastEligible
	lastIneligibleAt := state.LastIneligibleAt

	if eligible {
		if lastEligible {
			return Decision{
				Eligible:         true,
				ShouldAlert:      false,
				Reason:           "still_eligible",
				LastEligible:     true,
				LastIneligibleAt: lastIneligibleAt,
			}
		}
		if state.LastAlertedAt != nil && *state.LastAlertedAt > 0 && now-*state.LastAlertedAt < dedupeWindowSec {
			return Decision{
				Eligible:         true,
				ShouldAlert:      false,
				Reason:           "dedupe_window",
				LastEligible:     true,
				LastIneligibleAt: lastIneligibleAt,
			}
		}
		if lastIneligibleAt != nil && *lastIneligibleAt > 0 && now-*lastIneligibleAt < minIneligibleSec {
			return Decision{
				Eligible:         true,
				ShouldAlert:      false,
				Reason:           "rearm_wait",
				LastEligible:     true,
				LastIneligibleAt: lastIneligibleAt,
			}
		}
		return Decision{
			Eligible:         true,
			ShouldAlert:      true,
			Reason:           "became_eligible",
			LastEligible:     true,
			LastIneligibleAt: lastIneligibleAt,
		}
	}

	// 不合格连败的起点只在刚从合格跌落、或从未记录过时刷新
	if lastEligible || lastIneligibleAt == nil {
		ts := now
		lastIneligibleAt = &ts
	}
	return Decision{
		Eligible:         false,
		ShouldAlert:      false,
		Reason:           "ineligible",
		LastEligible:     false,
		LastIneligibleAt: lastIneligibleAt,
	}
}
