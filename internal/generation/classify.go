package generation

import "github.com/kdduha/snap2html/backend/internal/llm"

// Classify decides whether generation is finished after a chunk. Truncation,
// safety stops, abnormal stops and the continuation marker all mean more is
// expected. An empty continuation chunk is treated as final since asking again
// would not produce anything new.
func Classify(signal Signal, sentinelFound, continuation bool, text string) bool {
	complete := true
	switch signal {
	case SignalLengthLimit, SignalSafetyBlock, SignalOtherAbnormal:
		complete = false
	}
	if sentinelFound {
		complete = false
	}

	if continuation && text == "" && !complete {
		complete = true
	}
	return complete
}

func SignalFromFinishReason(r llm.FinishReason) Signal {
	switch r {
	case llm.FinishStop, llm.FinishUnspecified:
		return SignalNormal
	case llm.FinishMaxTokens:
		return SignalLengthLimit
	case llm.FinishSafety, llm.FinishRecitation, llm.FinishBlocked:
		return SignalSafetyBlock
	default:
		return SignalOtherAbnormal
	}
}
