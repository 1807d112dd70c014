package model

import "time"

// Email is the ingestion record for one processed source message. Exactly
// one row exists per external message id, regardless of how the message was
// classified.
type Email struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"message_id"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	EmailType   EmailType `json:"email_type"`
	ReceivedAt  time.Time `json:"received_at"`
	RawBodyText string    `json:"raw_body_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Opportunity is a persisted job opportunity. Identity is (company, role),
// or company alone when no role was ever supplied. Rows are created on an
// insert decision and mutated in place on updates; the engine never deletes
// them.
type Opportunity struct {
	ID                 string     `json:"id"`
	EmailID            string     `json:"email_id"`
	Company            string     `json:"company"`
	Role               *string    `json:"role,omitempty"`
	Location           *string    `json:"location,omitempty"`
	SalaryAmount       *float64   `json:"salary_amount,omitempty"`
	SalaryPeriod       *SalaryPeriod `json:"salary_period,omitempty"`
	MinExperienceYears *float64   `json:"min_experience_years,omitempty"`
	MaxExperienceYears *float64   `json:"max_experience_years,omitempty"`
	Stage              Stage      `json:"pipeline_stage"`
	ActionRequired     bool       `json:"action_required"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	EventDate          *time.Time `json:"event_date,omitempty"`
	LastUpdatedAt      time.Time  `json:"last_updated_at"`
}

// NetworkingEvent is one persisted networking fact. Every networking message
// yields a new row; there is no reconciliation against prior events.
type NetworkingEvent struct {
	ID               string          `json:"id"`
	EmailID          string          `json:"email_id"`
	PersonName       *string         `json:"person_name,omitempty"`
	PersonTitle      *string         `json:"person_title,omitempty"`
	PersonCompany    *string         `json:"person_company,omitempty"`
	InteractionType  InteractionType `json:"interaction_type"`
	RequiresFollowUp bool            `json:"requires_follow_up"`
	CreatedAt        time.Time       `json:"created_at"`
}
