package model

// Stage is a point in the fixed application-progress enumeration.
type Stage string

const (
	StageOpportunityFound Stage = "OPPORTUNITY_FOUND"
	StageApplied          Stage = "APPLIED"
	StageShortlisted      Stage = "SHORTLISTED"
	StageAssessment       Stage = "ASSESSMENT"
	StageInterview        Stage = "INTERVIEW"
	StageSelected         Stage = "SELECTED"
	StageRejected         Stage = "REJECTED"
)

// stagePriority is the total order over stages. SELECTED and REJECTED are
// mutually exclusive terminal outcomes, both ranked above every in-progress
// stage. The table is built once and never mutated.
var stagePriority = map[Stage]int{
	StageOpportunityFound: 1,
	StageApplied:          2,
	StageShortlisted:      3,
	StageAssessment:       4,
	StageInterview:        5,
	StageSelected:         6,
	StageRejected:         7,
}

// Priority returns the stage's position in the progression order. Unknown
// stages map to 0 and are treated as "no information" so that callers
// comparing priorities stay total.
func (s Stage) Priority() int {
	return stagePriority[s]
}

// Valid reports whether s is one of the seven canonical stages.
func (s Stage) Valid() bool {
	_, ok := stagePriority[s]
	return ok
}

// AllStages returns the canonical stages in progression order.
func AllStages() []Stage {
	return []Stage{
		StageOpportunityFound,
		StageApplied,
		StageShortlisted,
		StageAssessment,
		StageInterview,
		StageSelected,
		StageRejected,
	}
}
