// Package model holds the domain types shared across the pipeline: the
// classifier payload contract, the stage progression order, and the
// persisted record shapes.
package model

import "time"

// EmailType tags a classification payload. Only the three business types are
// ever validated; ERROR marks a message whose classifier output could not be
// used, so it is recorded and never reprocessed blindly.
type EmailType string

const (
	EmailTypeJobPipeline EmailType = "JOB_PIPELINE"
	EmailTypeNetworking  EmailType = "LINKEDIN_NETWORKING"
	EmailTypeIgnore      EmailType = "IGNORE"
	EmailTypeError       EmailType = "ERROR"
)

// SalaryPeriod qualifies a salary amount.
type SalaryPeriod string

const (
	SalaryPeriodYear  SalaryPeriod = "year"
	SalaryPeriodMonth SalaryPeriod = "month"
	SalaryPeriodHour  SalaryPeriod = "hour"
)

// InteractionType categorizes a networking message.
type InteractionType string

const (
	InteractionConnectionInvite   InteractionType = "CONNECTION_INVITE"
	InteractionConnectionAccepted InteractionType = "CONNECTION_ACCEPTED"
	InteractionRecruiterMessage   InteractionType = "RECRUITER_MESSAGE"
	InteractionFollowUpMessage    InteractionType = "FOLLOW_UP_MESSAGE"
)

// Payload is the validated output of one classifier call: a tagged union on
// EmailType. Opportunities is populated only for JOB_PIPELINE, Networking
// only for LINKEDIN_NETWORKING; for IGNORE and ERROR both are empty.
type Payload struct {
	EmailType     EmailType
	Sender        string
	Subject       string
	Opportunities []OpportunityObservation
	Networking    *NetworkingObservation
}

// OpportunityObservation is one extracted job opportunity from a single
// message. Pointer fields are nil when the classifier supplied null.
type OpportunityObservation struct {
	Company            string
	Role               *string
	Location           *string
	SalaryAmount       *float64
	SalaryPeriod       *SalaryPeriod
	MinExperienceYears *float64
	MaxExperienceYears *float64
	Stage              Stage
	ActionRequired     bool
	Deadline           *time.Time // calendar date, time part zero
	EventDate          *time.Time
	ExtraDetails       map[string]any
}

// RoleProvided reports whether the observation carries a usable role. A
// role-less observation is matched at company granularity only.
func (o OpportunityObservation) RoleProvided() bool {
	return o.Role != nil && *o.Role != ""
}

// NetworkingObservation is the single networking fact extracted from a
// LINKEDIN_NETWORKING message.
type NetworkingObservation struct {
	PersonName       *string
	PersonTitle      *string
	PersonCompany    *string
	InteractionType  InteractionType
	RequiresFollowUp bool
}
