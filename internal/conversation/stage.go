package conversation

// Stage is the phase of the conversation. Stages only move forward.
type Stage int

const (
	CollectingInfo Stage = iota
	AskingQuestions
	Finished
)

func (s Stage) String() string {
	switch s {
	case CollectingInfo:
		return "collecting_info"
	case AskingQuestions:
		return "asking_questions"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// CanTransition reports whether moving from one stage to another is allowed.
func CanTransition(from, to Stage) bool {
	switch from {
	case CollectingInfo:
		return to == AskingQuestions || to == Finished
	case AskingQuestions:
		return to == Finished
	default:
		return false
	}
}
