package content

// Stage names one remote pipeline step.
type Stage string

const (
	StageTopic    Stage = "topic"
	StageResearch Stage = "research"
	StageSummary  Stage = "summary"
	StageContent  Stage = "content"
)

// Stages returns the pipeline steps in execution order. Each later stage
// reads what the previous one stored on the backend.
func Stages() []Stage {
	return []Stage{StageTopic, StageResearch, StageSummary, StageContent}
}

// FriendlyName returns a human-readable stage label.
func (s Stage) FriendlyName() string {
	switch s {
	case StageTopic:
		return "Topic refinement"
	case StageResearch:
		return "Research"
	case StageSummary:
		return "Summarization"
	case StageContent:
		return "Content generation"
	default:
		return string(s)
	}
}

// Outcome is the terminal message of a successful pipeline run.
type Outcome string

const (
	OutcomePosted         Outcome = "posted"
	OutcomeReadyForReview Outcome = "ready for review"
)

// OutcomeFor picks the outcome for a request's auto-post setting.
func OutcomeFor(autoPost bool) Outcome {
	if autoPost {
		return OutcomePosted
	}
	return OutcomeReadyForReview
}
