package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jobtrail/jobtrail-cli/internal/db"
	"github.com/jobtrail/jobtrail-cli/internal/model"
	"github.com/jobtrail/jobtrail-cli/internal/reconcile"
)

// ErrAlreadyIngested signals that the external message id has an ingestion
// record already. It is a benign already-processed signal, not a failure.
var ErrAlreadyIngested = eris.New("store: message already ingested")

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS emails (
	id            TEXT PRIMARY KEY,
	message_id    TEXT NOT NULL UNIQUE,
	sender        TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	email_type    TEXT NOT NULL,
	received_at   TIMESTAMPTZ NOT NULL,
	raw_body_text TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_emails_email_type ON emails(email_type);

CREATE TABLE IF NOT EXISTS opportunities (
	id                   TEXT PRIMARY KEY,
	email_id             TEXT NOT NULL REFERENCES emails(id),
	company              TEXT NOT NULL,
	role                 TEXT,
	location             TEXT,
	salary_amount        DOUBLE PRECISION,
	salary_period        TEXT,
	min_experience_years DOUBLE PRECISION,
	max_experience_years DOUBLE PRECISION,
	pipeline_stage       TEXT NOT NULL,
	action_required      BOOLEAN NOT NULL DEFAULT false,
	deadline             DATE,
	event_date           TIMESTAMPTZ,
	last_updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_company_role ON opportunities(company, role);
CREATE INDEX IF NOT EXISTS idx_opportunities_stage ON opportunities(pipeline_stage);

CREATE TABLE IF NOT EXISTS opportunity_details (
	opportunity_id TEXT PRIMARY KEY REFERENCES opportunities(id),
	details        JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS networking_events (
	id                 TEXT PRIMARY KEY,
	email_id           TEXT NOT NULL REFERENCES emails(id),
	person_name        TEXT,
	person_title       TEXT,
	person_company     TEXT,
	interaction_type   TEXT NOT NULL,
	requires_follow_up BOOLEAN NOT NULL DEFAULT false,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_networking_events_email_id ON networking_events(email_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "store: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "store: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Seen(ctx context.Context, externalID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM emails WHERE message_id = $1`,
		externalID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, eris.Wrapf(err, "store: ledger check %s", externalID)
	}
	return true, nil
}

// CommitMessage persists one classified message inside a single
// transaction. The ingestion record is written first and unconditionally;
// observation processing holds row locks on the matched (company, role)
// candidates until commit so concurrent ingestions cannot double-insert the
// same logical opportunity.
func (s *PostgresStore) CommitMessage(ctx context.Context, payload *model.Payload, externalID string, receivedAt time.Time, rawText string) (*CommitResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	result := &CommitResult{}

	result.EmailID, err = insertEmail(ctx, tx, payload, externalID, receivedAt, rawText)
	if err != nil {
		return nil, err
	}

	switch payload.EmailType {
	case model.EmailTypeJobPipeline:
		for _, obs := range payload.Opportunities {
			outcome, err := applyObservation(ctx, tx, result.EmailID, obs)
			if err != nil {
				return nil, err
			}
			result.Observations = append(result.Observations, outcome)
			if outcome.OpportunityID != "" {
				result.OpportunityIDs = append(result.OpportunityIDs, outcome.OpportunityID)
			}
		}

	case model.EmailTypeNetworking:
		result.NetworkingEventID, err = insertNetworkingEvent(ctx, tx, result.EmailID, payload.Networking)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrapf(err, "store: commit message %s", externalID)
	}
	return result, nil
}

func insertEmail(ctx context.Context, tx pgx.Tx, payload *model.Payload, externalID string, receivedAt time.Time, rawText string) (string, error) {
	id := uuid.New().String()
	_, err := tx.Exec(ctx,
		`INSERT INTO emails (id, message_id, sender, subject, email_type, received_at, raw_body_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, externalID, payload.Sender, payload.Subject, string(payload.EmailType), receivedAt, rawText,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", ErrAlreadyIngested
		}
		return "", eris.Wrapf(err, "store: insert email %s", externalID)
	}
	return id, nil
}

// findCandidates returns the existing opportunities matching the
// observation's identity, locked for the duration of the transaction. No
// role means company-granularity matching.
func findCandidates(ctx context.Context, tx pgx.Tx, company string, role *string) ([]reconcile.Candidate, error) {
	var rows pgx.Rows
	var err error
	if role != nil {
		rows, err = tx.Query(ctx,
			`SELECT id, pipeline_stage FROM opportunities WHERE company = $1 AND role = $2 FOR UPDATE`,
			company, *role,
		)
	} else {
		rows, err = tx.Query(ctx,
			`SELECT id, pipeline_stage FROM opportunities WHERE company = $1 FOR UPDATE`,
			company,
		)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: find opportunities for %s", company)
	}
	defer rows.Close()

	var candidates []reconcile.Candidate
	for rows.Next() {
		var c reconcile.Candidate
		var stage string
		if err := rows.Scan(&c.ID, &stage); err != nil {
			return nil, eris.Wrap(err, "store: scan candidate")
		}
		c.Stage = model.Stage(stage)
		candidates = append(candidates, c)
	}
	return candidates, eris.Wrap(rows.Err(), "store: iterate candidates")
}

func applyObservation(ctx context.Context, tx pgx.Tx, emailID string, obs model.OpportunityObservation) (ObservationOutcome, error) {
	outcome := ObservationOutcome{Company: obs.Company, Role: obs.Role}

	var role *string
	if obs.RoleProvided() {
		role = obs.Role
	}

	candidates, err := findCandidates(ctx, tx, obs.Company, role)
	if err != nil {
		return outcome, err
	}

	decision := reconcile.Reconcile(candidates, role != nil, obs.Stage)
	outcome.Outcome = decision.Outcome

	switch decision.Outcome {
	case reconcile.OutcomeInsert:
		id := uuid.New().String()
		_, err := tx.Exec(ctx,
			`INSERT INTO opportunities (
				id, email_id, company, role, location,
				salary_amount, salary_period, min_experience_years, max_experience_years,
				pipeline_stage, action_required, deadline, event_date, last_updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())`,
			id, emailID, obs.Company, obs.Role, obs.Location,
			obs.SalaryAmount, obs.SalaryPeriod, obs.MinExperienceYears, obs.MaxExperienceYears,
			string(obs.Stage), obs.ActionRequired, obs.Deadline, obs.EventDate,
		)
		if err != nil {
			return outcome, eris.Wrapf(err, "store: insert opportunity for %s", obs.Company)
		}
		outcome.OpportunityID = id

	case reconcile.OutcomeUpdate:
		// Stage, action flag and timestamp are overwritten; deadline and
		// event_date keep the stored value unless the observation supplies
		// one. A known date is never nulled back.
		_, err := tx.Exec(ctx,
			`UPDATE opportunities SET
				pipeline_stage = $1,
				action_required = $2,
				deadline = COALESCE($3, deadline),
				event_date = COALESCE($4, event_date),
				last_updated_at = now()
			 WHERE id = $5`,
			string(obs.Stage), obs.ActionRequired, obs.Deadline, obs.EventDate, decision.MatchID,
		)
		if err != nil {
			return outcome, eris.Wrapf(err, "store: update opportunity %s", decision.MatchID)
		}
		outcome.OpportunityID = decision.MatchID

	case reconcile.OutcomeIgnore, reconcile.OutcomeAmbiguous:
		// No mutation; the caller surfaces the outcome.
		return outcome, nil
	}

	if err := replaceDetail(ctx, tx, outcome.OpportunityID, obs.ExtraDetails); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// replaceDetail wholesale-replaces the detail record for an opportunity.
// Prior content never survives; there is no merging.
func replaceDetail(ctx context.Context, tx pgx.Tx, opportunityID string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	blob, err := json.Marshal(details)
	if err != nil {
		return eris.Wrap(err, "store: marshal details")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO opportunity_details (opportunity_id, details)
		 VALUES ($1, $2)
		 ON CONFLICT (opportunity_id) DO UPDATE SET details = EXCLUDED.details`,
		opportunityID, blob,
	)
	return eris.Wrapf(err, "store: replace detail for %s", opportunityID)
}

func insertNetworkingEvent(ctx context.Context, tx pgx.Tx, emailID string, obs *model.NetworkingObservation) (string, error) {
	if obs == nil {
		return "", eris.New("store: networking payload without event")
	}
	id := uuid.New().String()
	_, err := tx.Exec(ctx,
		`INSERT INTO networking_events (id, email_id, person_name, person_title, person_company, interaction_type, requires_follow_up)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, emailID, obs.PersonName, obs.PersonTitle, obs.PersonCompany, string(obs.InteractionType), obs.RequiresFollowUp,
	)
	if err != nil {
		return "", eris.Wrap(err, "store: insert networking event")
	}
	return id, nil
}

// ListOpportunities returns opportunities ordered by recency, optionally
// filtered to one stage. Zero limit means the default of 50.
func (s *PostgresStore) ListOpportunities(ctx context.Context, stage model.Stage, limit int) ([]model.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, email_id, company, role, location,
			salary_amount, salary_period, min_experience_years, max_experience_years,
			pipeline_stage, action_required, deadline, event_date, last_updated_at
		FROM opportunities`
	args := []any{limit}
	if stage != "" {
		query += ` WHERE pipeline_stage = $2`
		args = append(args, string(stage))
	}
	query += ` ORDER BY last_updated_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list opportunities")
	}
	defer rows.Close()

	var out []model.Opportunity
	for rows.Next() {
		var o model.Opportunity
		var rowStage string
		var period *string
		if err := rows.Scan(
			&o.ID, &o.EmailID, &o.Company, &o.Role, &o.Location,
			&o.SalaryAmount, &period, &o.MinExperienceYears, &o.MaxExperienceYears,
			&rowStage, &o.ActionRequired, &o.Deadline, &o.EventDate, &o.LastUpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan opportunity")
		}
		o.Stage = model.Stage(rowStage)
		if period != nil {
			sp := model.SalaryPeriod(*period)
			o.SalaryPeriod = &sp
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate opportunities")
}

// RecentEmails returns the latest ingestion records, newest first.
func (s *PostgresStore) RecentEmails(ctx context.Context, limit int) ([]model.Email, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, message_id, sender, subject, email_type, received_at, created_at
		 FROM emails ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: recent emails")
	}
	defer rows.Close()

	var out []model.Email
	for rows.Next() {
		var e model.Email
		var typ string
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Sender, &e.Subject, &typ, &e.ReceivedAt, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan email")
		}
		e.EmailType = model.EmailType(typ)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate emails")
}

// RecentNetworkingEvents returns the latest networking events, newest first.
func (s *PostgresStore) RecentNetworkingEvents(ctx context.Context, limit int) ([]model.NetworkingEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, email_id, person_name, person_title, person_company, interaction_type, requires_follow_up, created_at
		 FROM networking_events ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: recent networking events")
	}
	defer rows.Close()

	var out []model.NetworkingEvent
	for rows.Next() {
		var n model.NetworkingEvent
		var it string
		if err := rows.Scan(&n.ID, &n.EmailID, &n.PersonName, &n.PersonTitle, &n.PersonCompany, &it, &n.RequiresFollowUp, &n.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan networking event")
		}
		n.InteractionType = model.InteractionType(it)
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate networking events")
}

func (s *PostgresStore) StageCounts(ctx context.Context) (map[model.Stage]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pipeline_stage, COUNT(*) FROM opportunities GROUP BY pipeline_stage`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: stage counts")
	}
	defer rows.Close()

	counts := make(map[model.Stage]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, eris.Wrap(err, "store: scan stage count")
		}
		counts[model.Stage(stage)] = n
	}
	return counts, eris.Wrap(rows.Err(), "store: iterate stage counts")
}

func (s *PostgresStore) EmailTypeCounts(ctx context.Context) (map[model.EmailType]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT email_type, COUNT(*) FROM emails GROUP BY email_type`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: email type counts")
	}
	defer rows.Close()

	counts := make(map[model.EmailType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, eris.Wrap(err, "store: scan email type count")
		}
		counts[model.EmailType(typ)] = n
	}
	return counts, eris.Wrap(rows.Err(), "store: iterate email type counts")
}
