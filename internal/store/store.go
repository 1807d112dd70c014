package store

import (
	"context"
	"time"

	"github.com/jobtrail/jobtrail-cli/internal/model"
	"github.com/jobtrail/jobtrail-cli/internal/reconcile"
)

// ObservationOutcome records what the reconciler decided for one extracted
// opportunity within a commit. Ambiguous and ignored observations surface
// here rather than erroring; the caller reports them.
type ObservationOutcome struct {
	Company       string            `json:"company"`
	Role          *string           `json:"role,omitempty"`
	Outcome       reconcile.Outcome `json:"outcome"`
	OpportunityID string            `json:"opportunity_id,omitempty"`
}

// CommitResult is the outcome of persisting one classified message.
type CommitResult struct {
	EmailID           string               `json:"email_id"`
	OpportunityIDs    []string             `json:"opportunity_ids,omitempty"`
	NetworkingEventID string               `json:"networking_event_id,omitempty"`
	Observations      []ObservationOutcome `json:"observations,omitempty"`
}

// Store is the persistence boundary of the ingestion engine. Seen and
// CommitMessage must hit the same transactionally consistent backend so a
// message committed by one run is never reprocessed by another.
type Store interface {
	// Seen reports whether externalID has already been ingested.
	Seen(ctx context.Context, externalID string) (bool, error)

	// CommitMessage persists one classified message as a single atomic unit
	// of work: the ingestion record (always, including IGNORE and ERROR),
	// reconciled opportunities with wholesale-replaced details for
	// JOB_PIPELINE, or one networking event for LINKEDIN_NETWORKING.
	// Re-submitting an already ingested externalID returns
	// ErrAlreadyIngested with nothing written.
	CommitMessage(ctx context.Context, payload *model.Payload, externalID string, receivedAt time.Time, rawText string) (*CommitResult, error)

	// ListOpportunities returns opportunities by recency, optionally
	// filtered to one stage.
	ListOpportunities(ctx context.Context, stage model.Stage, limit int) ([]model.Opportunity, error)

	// RecentEmails returns the latest ingestion records.
	RecentEmails(ctx context.Context, limit int) ([]model.Email, error)

	// RecentNetworkingEvents returns the latest networking events.
	RecentNetworkingEvents(ctx context.Context, limit int) ([]model.NetworkingEvent, error)

	// StageCounts returns the number of opportunities per pipeline stage.
	StageCounts(ctx context.Context) (map[model.Stage]int, error)

	// EmailTypeCounts returns the number of ingested emails per type.
	EmailTypeCounts(ctx context.Context) (map[model.EmailType]int, error)

	Migrate(ctx context.Context) error
	Close() error
}
