// Package ingest drives one scan: fetch messages, classify each one, and
// commit the results.
package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jobtrail/jobtrail-cli/internal/classify"
	"github.com/jobtrail/jobtrail-cli/internal/mailtext"
	"github.com/jobtrail/jobtrail-cli/internal/model"
	"github.com/jobtrail/jobtrail-cli/internal/reconcile"
	"github.com/jobtrail/jobtrail-cli/internal/store"
	"github.com/jobtrail/jobtrail-cli/pkg/gemini"
	"github.com/jobtrail/jobtrail-cli/pkg/mailbox"
)

// Source lists messages from a mailbox window.
type Source interface {
	Search(ctx context.Context, since, before time.Time, max int) ([]mailbox.Message, error)
}

// Classifier turns rendered message text into a validated payload.
type Classifier interface {
	Analyze(ctx context.Context, text string) (*model.Payload, error)
}

// Ledger is the store surface the scanner needs.
type Ledger interface {
	Seen(ctx context.Context, externalID string) (bool, error)
	CommitMessage(ctx context.Context, payload *model.Payload, externalID string, receivedAt time.Time, rawText string) (*store.CommitResult, error)
}

// Summary is the outcome of one scan run.
type Summary struct {
	Scanned          int                     `json:"scanned"`
	AlreadySeen      int                     `json:"already_seen"`
	Ingested         int                     `json:"ingested"`
	Failed           int                     `json:"failed"`
	QuotaStopped     bool                    `json:"quota_stopped"`
	ByType           map[model.EmailType]int `json:"by_type"`
	Inserted         int                     `json:"opportunities_inserted"`
	Updated          int                     `json:"opportunities_updated"`
	StaleIgnored     int                     `json:"observations_stale"`
	Ambiguous        int                     `json:"observations_ambiguous"`
	NetworkingEvents int                     `json:"networking_events"`
}

// Scanner wires source, classifier and store into a run loop.
type Scanner struct {
	source     Source
	classifier Classifier
	ledger     Ledger
}

func NewScanner(source Source, classifier Classifier, ledger Ledger) *Scanner {
	return &Scanner{source: source, classifier: classifier, ledger: ledger}
}

// Run scans the window once. Messages are processed independently: a
// failure on one is logged and counted but never stops the rest. The one
// exception is quota exhaustion, which ends the run cleanly; the message in
// flight stays unrecorded so the next run picks it up again.
func (s *Scanner) Run(ctx context.Context, since, before time.Time, max int) (*Summary, error) {
	messages, err := s.source.Search(ctx, since, before, max)
	if err != nil {
		return nil, err
	}
	zap.L().Info("scan started",
		zap.Int("messages", len(messages)),
		zap.Time("since", since),
		zap.Time("before", before),
	)

	summary := &Summary{ByType: make(map[model.EmailType]int)}
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Scanned++

		seen, err := s.ledger.Seen(ctx, msg.ID)
		if err != nil {
			zap.L().Error("ledger check failed", zap.String("message_id", msg.ID), zap.Error(err))
			summary.Failed++
			continue
		}
		if seen {
			summary.AlreadySeen++
			continue
		}

		body := mailtext.BodyText(msg.Text, msg.HTML)
		rendered := mailtext.Render(msg.Sender, msg.Subject, msg.ReceivedAt, body)

		payload, err := s.classifier.Analyze(ctx, rendered)
		switch {
		case err == nil:
		case errors.Is(err, gemini.ErrQuotaExhausted):
			zap.L().Warn("classifier quota exhausted, stopping run",
				zap.String("message_id", msg.ID),
				zap.Int("scanned", summary.Scanned),
			)
			summary.Scanned--
			summary.QuotaStopped = true
			return summary, nil
		case classify.IsValidation(err):
			// The model answered but the payload was unusable. Record the
			// message as an error so it is not blindly reclassified every
			// run.
			zap.L().Warn("classification rejected", zap.String("message_id", msg.ID), zap.Error(err))
			payload = &model.Payload{
				EmailType: model.EmailTypeError,
				Sender:    msg.Sender,
				Subject:   msg.Subject,
			}
		default:
			zap.L().Error("classification failed", zap.String("message_id", msg.ID), zap.Error(err))
			summary.Failed++
			continue
		}

		result, err := s.ledger.CommitMessage(ctx, payload, msg.ID, msg.ReceivedAt, body)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyIngested) {
				summary.AlreadySeen++
				continue
			}
			zap.L().Error("persist failed", zap.String("message_id", msg.ID), zap.Error(err))
			summary.Failed++
			continue
		}

		summary.Ingested++
		summary.ByType[payload.EmailType]++
		s.tally(summary, msg.ID, result)
	}

	zap.L().Info("scan finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("ingested", summary.Ingested),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *Scanner) tally(summary *Summary, messageID string, result *store.CommitResult) {
	if result.NetworkingEventID != "" {
		summary.NetworkingEvents++
	}
	for _, obs := range result.Observations {
		switch obs.Outcome {
		case reconcile.OutcomeInsert:
			summary.Inserted++
		case reconcile.OutcomeUpdate:
			summary.Updated++
		case reconcile.OutcomeIgnore:
			summary.StaleIgnored++
		case reconcile.OutcomeAmbiguous:
			summary.Ambiguous++
			zap.L().Warn("ambiguous observation left unapplied",
				zap.String("message_id", messageID),
				zap.String("company", obs.Company),
			)
		}
	}
}
