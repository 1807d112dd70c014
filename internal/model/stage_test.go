package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStagePriorityOrder(t *testing.T) {
	stages := AllStages()
	for i := 1; i < len(stages); i++ {
		assert.Greater(t, stages[i].Priority(), stages[i-1].Priority(),
			"%s must rank above %s", stages[i], stages[i-1])
	}
}

func TestStagePriorityValues(t *testing.T) {
	cases := map[Stage]int{
		StageOpportunityFound: 1,
		StageApplied:          2,
		StageShortlisted:      3,
		StageAssessment:       4,
		StageInterview:        5,
		StageSelected:         6,
		StageRejected:         7,
	}
	for stage, want := range cases {
		assert.Equal(t, want, stage.Priority(), "stage %s", stage)
	}
}

func TestStagePriorityUnknown(t *testing.T) {
	// Unknown stages are "no information", not an error.
	assert.Equal(t, 0, Stage("OFFER_EXTENDED").Priority())
	assert.Equal(t, 0, Stage("").Priority())
}

func TestStageValid(t *testing.T) {
	for _, s := range AllStages() {
		assert.True(t, s.Valid())
	}
	assert.False(t, Stage("applied").Valid(), "stages are case-sensitive")
	assert.False(t, Stage("NOPE").Valid())
}

func TestRoleProvided(t *testing.T) {
	role := "Backend Engineer"
	empty := ""

	assert.False(t, OpportunityObservation{}.RoleProvided())
	assert.False(t, OpportunityObservation{Role: &empty}.RoleProvided())
	assert.True(t, OpportunityObservation{Role: &role}.RoleProvided())
}
