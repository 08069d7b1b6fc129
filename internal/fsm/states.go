package fsm

const (
	StateAwaitingVideo     = "awaiting_video"
	StateAwaitingAnswer    = "awaiting_answer"
	StateLevelComplete     = "level_complete"
	StateAllLevelsComplete = "all_levels_complete"
)

// Resolve maps a user's stored progress onto a progression state.
// questionIndex == questionCount means the level is exhausted; which
// terminal-ish state that is depends on whether a higher level exists.
func Resolve(questionIndex, questionCount int, hasVideo, hasHigherLevel, completed bool) string {
	if completed {
		return StateAllLevelsComplete
	}
	if questionIndex >= questionCount {
		if hasHigherLevel {
			return StateLevelComplete
		}
		return StateAllLevelsComplete
	}
	if questionIndex == 0 && hasVideo {
		return StateAwaitingVideo
	}
	return StateAwaitingAnswer
}
