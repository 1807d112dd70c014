package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jobtrail/jobtrail-cli/internal/model"
)

func TestFormatOpportunities(t *testing.T) {
	role := "SRE"
	deadline := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	var sb strings.Builder

	formatOpportunities(&sb, []model.Opportunity{
		{
			Company:        "Acme",
			Role:           &role,
			Stage:          model.StageInterview,
			ActionRequired: true,
			Deadline:       &deadline,
			LastUpdatedAt:  time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			Company:       "Globex",
			Stage:         model.StageApplied,
			LastUpdatedAt: time.Date(2025, 3, 19, 9, 0, 0, 0, time.UTC),
		},
	})

	out := sb.String()
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "SRE")
	assert.Contains(t, out, "INTERVIEW")
	assert.Contains(t, out, "2025-04-01")
	// Role-less opportunity renders a dash.
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "-")
}

func TestFormatEvents(t *testing.T) {
	name := "Dana Reeves"
	var sb strings.Builder

	formatEvents(&sb, []model.NetworkingEvent{{
		PersonName:       &name,
		InteractionType:  model.InteractionRecruiterMessage,
		RequiresFollowUp: true,
		CreatedAt:        time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
	}})

	out := sb.String()
	assert.Contains(t, out, "Dana Reeves")
	assert.Contains(t, out, "RECRUITER_MESSAGE")
	assert.Contains(t, out, "yes")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactlyten", truncate("exactlyten", 10))
	long := truncate("a very long subject line indeed", 10)
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.Len(t, []byte(long), 9+len("…"))
}
