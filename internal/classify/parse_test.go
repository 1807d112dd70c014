package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail/jobtrail-cli/internal/model"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bare object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fenced no language", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding prose", in: "Here you go: {\"a\":1} done", want: `{"a":1}`},
		{name: "empty", in: "", wantErr: true},
		{name: "no object", in: "sorry, I cannot help", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const validJobPayload = `{
	"email_type": "JOB_PIPELINE",
	"sender": "careers@acme.example",
	"subject": "Interview scheduled",
	"opportunities": [{
		"company": "Acme",
		"role": "Backend Engineer",
		"location": "Remote",
		"salary_amount": 120000,
		"salary_period": "year",
		"min_experience_years": 2,
		"max_experience_years": 5,
		"pipeline_stage": "INTERVIEW",
		"action_required": true,
		"deadline": "2026-09-15",
		"event_date": "2026-09-20T10:00:00Z",
		"extra_details": {"platform": "HackerRank", "duration": "90 min"}
	}]
}`

func TestParsePayloadJobPipeline(t *testing.T) {
	p, err := ParsePayload(validJobPayload)
	require.NoError(t, err)

	assert.Equal(t, model.EmailTypeJobPipeline, p.EmailType)
	assert.Equal(t, "careers@acme.example", p.Sender)
	assert.Equal(t, "Interview scheduled", p.Subject)
	require.Len(t, p.Opportunities, 1)

	obs := p.Opportunities[0]
	assert.Equal(t, "Acme", obs.Company)
	require.NotNil(t, obs.Role)
	assert.Equal(t, "Backend Engineer", *obs.Role)
	assert.Equal(t, model.StageInterview, obs.Stage)
	assert.True(t, obs.ActionRequired)
	require.NotNil(t, obs.SalaryAmount)
	assert.Equal(t, 120000.0, *obs.SalaryAmount)
	require.NotNil(t, obs.SalaryPeriod)
	assert.Equal(t, model.SalaryPeriodYear, *obs.SalaryPeriod)
	require.NotNil(t, obs.Deadline)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *obs.Deadline)
	require.NotNil(t, obs.EventDate)
	assert.Equal(t, "HackerRank", obs.ExtraDetails["platform"])
}

func TestParsePayloadIgnore(t *testing.T) {
	p, err := ParsePayload(`{"email_type":"IGNORE","sender":"news@list.example","subject":"Weekly digest"}`)
	require.NoError(t, err)
	assert.Equal(t, model.EmailTypeIgnore, p.EmailType)
	assert.Empty(t, p.Opportunities)
	assert.Nil(t, p.Networking)
}

func TestParsePayloadNetworking(t *testing.T) {
	p, err := ParsePayload(`{
		"email_type": "LINKEDIN_NETWORKING",
		"sender": "notifications@linkedin.example",
		"subject": "You have a new message",
		"linkedin_event": {
			"person_name": "Jordan Li",
			"person_title": "Technical Recruiter",
			"person_company": "Globex",
			"interaction_type": "RECRUITER_MESSAGE",
			"requires_follow_up": true
		}
	}`)
	require.NoError(t, err)

	require.NotNil(t, p.Networking)
	assert.Equal(t, model.InteractionRecruiterMessage, p.Networking.InteractionType)
	assert.True(t, p.Networking.RequiresFollowUp)
	require.NotNil(t, p.Networking.PersonName)
	assert.Equal(t, "Jordan Li", *p.Networking.PersonName)
}

func TestParsePayloadRejections(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason string
	}{
		{
			name:   "sentinel email_type is not a business payload",
			in:     `{"email_type":"QUOTA_EXHAUSTED","sender":"x","subject":"y"}`,
			reason: "invalid email_type",
		},
		{
			name:   "unknown email_type",
			in:     `{"email_type":"SPAM","sender":"x","subject":"y"}`,
			reason: "invalid email_type",
		},
		{
			name:   "missing sender",
			in:     `{"email_type":"IGNORE","subject":"y"}`,
			reason: "invalid sender",
		},
		{
			name:   "blank subject",
			in:     `{"email_type":"IGNORE","sender":"x","subject":"  "}`,
			reason: "invalid subject",
		},
		{
			name:   "opportunities on IGNORE",
			in:     `{"email_type":"IGNORE","sender":"x","subject":"y","opportunities":[]}`,
			reason: `unexpected field "opportunities"`,
		},
		{
			name:   "linkedin_event on JOB_PIPELINE",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme","pipeline_stage":"APPLIED"}],"linkedin_event":{}}`,
			reason: `unexpected field "linkedin_event"`,
		},
		{
			name:   "unknown top-level field",
			in:     `{"email_type":"IGNORE","sender":"x","subject":"y","confidence":0.9}`,
			reason: `unexpected field "confidence"`,
		},
		{
			name:   "missing opportunities",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y"}`,
			reason: "opportunities must be a non-empty list",
		},
		{
			name:   "empty opportunities",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[]}`,
			reason: "opportunities must be a non-empty list",
		},
		{
			name:   "missing company",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"pipeline_stage":"APPLIED"}]}`,
			reason: "company",
		},
		{
			name:   "non-string role",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme","role":42,"pipeline_stage":"APPLIED"}]}`,
			reason: "invalid role",
		},
		{
			name:   "stage outside enum",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme","pipeline_stage":"HIRED"}]}`,
			reason: "invalid pipeline_stage",
		},
		{
			name:   "missing stage",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme"}]}`,
			reason: "invalid pipeline_stage",
		},
		{
			name:   "bad salary_period",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme","pipeline_stage":"APPLIED","salary_period":"week"}]}`,
			reason: "invalid salary_period",
		},
		{
			name:   "unknown opportunity field",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme","pipeline_stage":"APPLIED","vibes":"good"}]}`,
			reason: `unexpected field "vibes"`,
		},
		{
			name:   "bad deadline",
			in:     `{"email_type":"JOB_PIPELINE","sender":"x","subject":"y","opportunities":[{"company":"Acme","pipeline_stage":"APPLIED","deadline":"soon"}]}`,
			reason: "invalid deadline",
		},
		{
			name:   "missing linkedin_event",
			in:     `{"email_type":"LINKEDIN_NETWORKING","sender":"x","subject":"y"}`,
			reason: "invalid linkedin_event",
		},
		{
			name:   "bad interaction_type",
			in:     `{"email_type":"LINKEDIN_NETWORKING","sender":"x","subject":"y","linkedin_event":{"interaction_type":"COLD_CALL"}}`,
			reason: "invalid interaction_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload(tt.in)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestParsePayloadNullsAreAbsent(t *testing.T) {
	p, err := ParsePayload(`{
		"email_type": "JOB_PIPELINE",
		"sender": "x",
		"subject": "y",
		"opportunities": [{
			"company": "Acme",
			"role": null,
			"location": null,
			"salary_amount": null,
			"salary_period": null,
			"pipeline_stage": "APPLIED",
			"deadline": null,
			"event_date": null,
			"extra_details": null
		}]
	}`)
	require.NoError(t, err)

	obs := p.Opportunities[0]
	assert.Nil(t, obs.Role)
	assert.Nil(t, obs.Location)
	assert.Nil(t, obs.SalaryAmount)
	assert.Nil(t, obs.SalaryPeriod)
	assert.Nil(t, obs.Deadline)
	assert.Nil(t, obs.EventDate)
	assert.Nil(t, obs.ExtraDetails)
	assert.False(t, obs.RoleProvided())
}
