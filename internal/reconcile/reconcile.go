// Package reconcile decides what a freshly observed opportunity means for
// the existing records: a new row, an update to one of them, a stale signal,
// or an ambiguity the engine refuses to resolve on its own.
package reconcile

import "github.com/jobtrail/jobtrail-cli/internal/model"

// Outcome is the closed set of reconciliation decisions. Keeping the set
// closed forces callers to handle every branch explicitly.
type Outcome string

const (
	OutcomeInsert    Outcome = "INSERT"
	OutcomeUpdate    Outcome = "UPDATE"
	OutcomeIgnore    Outcome = "IGNORE"
	OutcomeAmbiguous Outcome = "AMBIGUOUS"
)

// Candidate is an existing opportunity row matching the observation's
// company (and role, when one was supplied).
type Candidate struct {
	ID    string
	Stage model.Stage
}

// Decision is the reconciler's verdict. MatchID is set only for
// OutcomeUpdate.
type Decision struct {
	Outcome Outcome
	MatchID string
}

// Reconcile decides how a new observation with stage newStage relates to the
// candidate rows the store found. Candidates may arrive in any order.
//
// The policy treats a new observation as the next data point in one
// candidate's progression: it attaches to the candidate whose current stage
// is closest below or equal to the new stage. Candidates already further
// along are never touched, so re-deliveries and out-of-order arrivals of
// lower-stage messages cannot regress a record. When every candidate is
// further along, the observation is stale. Without a role to disambiguate,
// an update against multiple candidates cannot be attributed safely.
//
// Total over well-typed input; no branch errors.
func Reconcile(candidates []Candidate, roleProvided bool, newStage model.Stage) Decision {
	if len(candidates) == 0 {
		return Decision{Outcome: OutcomeInsert}
	}

	if !roleProvided && len(candidates) > 1 {
		return Decision{Outcome: OutcomeAmbiguous}
	}

	newPriority := newStage.Priority()

	bestID := ""
	bestPriority := -1
	for _, c := range candidates {
		p := c.Stage.Priority()
		if p <= newPriority && p > bestPriority {
			bestID = c.ID
			bestPriority = p
		}
	}

	if bestPriority < 0 {
		return Decision{Outcome: OutcomeIgnore}
	}
	return Decision{Outcome: OutcomeUpdate, MatchID: bestID}
}
