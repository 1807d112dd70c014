package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail-cli/internal/model"
)

// ValidationError reports classifier output that failed the payload
// contract. The payload is discarded; the message is still recorded so it is
// never reprocessed blindly.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "classify: invalid payload: " + e.Reason
}

// IsValidation reports whether err (or anything it wraps) is a payload
// validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ExtractJSON pulls the JSON object out of a raw model response. Models
// wrap output in ``` fences or surround it with prose often enough that the
// first '{' to the last '}' is the reliable envelope.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("empty classifier response")
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```JSON")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last < first {
		return "", invalid("no JSON object found in classifier response")
	}
	return text[first : last+1], nil
}

// Top-level fields legal for every payload, plus the one extra field each
// business type may carry. Anything else fails closed.
var (
	baseFields = map[string]bool{
		"email_type": true,
		"sender":     true,
		"subject":    true,
	}
	typeFields = map[model.EmailType]string{
		model.EmailTypeJobPipeline: "opportunities",
		model.EmailTypeNetworking:  "linkedin_event",
	}
	opportunityFields = map[string]bool{
		"company":              true,
		"role":                 true,
		"location":             true,
		"salary_amount":        true,
		"salary_period":        true,
		"min_experience_years": true,
		"max_experience_years": true,
		"pipeline_stage":       true,
		"action_required":      true,
		"deadline":             true,
		"event_date":           true,
		"extra_details":        true,
	}
	networkingFields = map[string]bool{
		"person_name":        true,
		"person_title":       true,
		"person_company":     true,
		"interaction_type":   true,
		"requires_follow_up": true,
	}
)

// ParsePayload parses and validates raw classifier output into a typed
// payload. It fails closed: unknown fields, fields illegal for the declared
// email_type, wrong field types, and out-of-enum values are all rejected
// with a specific reason. Nothing is coerced or invented.
func ParsePayload(raw string) (*model.Payload, error) {
	js, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(js), &top); err != nil {
		return nil, invalid("malformed JSON: %v", err)
	}

	var emailType model.EmailType
	if raw, ok := top["email_type"]; ok {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil, invalid("invalid email_type")
		}
		emailType = model.EmailType(s)
	}
	switch emailType {
	case model.EmailTypeJobPipeline, model.EmailTypeNetworking, model.EmailTypeIgnore:
	default:
		return nil, invalid("invalid email_type")
	}

	// Reject any field outside the declared type's schema. Sorted so the
	// reported field is deterministic.
	bodyField := typeFields[emailType]
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !baseFields[k] && k != bodyField {
			return nil, invalid("unexpected field %q for %s", k, emailType)
		}
	}

	p := &model.Payload{EmailType: emailType}

	if p.Sender, err = requiredString(top, "sender", "invalid sender"); err != nil {
		return nil, err
	}
	if p.Subject, err = requiredString(top, "subject", "invalid subject"); err != nil {
		return nil, err
	}

	switch emailType {
	case model.EmailTypeJobPipeline:
		p.Opportunities, err = parseOpportunities(top["opportunities"])
	case model.EmailTypeNetworking:
		p.Networking, err = parseNetworking(top["linkedin_event"])
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

func requiredString(m map[string]json.RawMessage, key, reason string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", invalid("%s", reason)
	}
	var s string
	if json.Unmarshal(raw, &s) != nil || strings.TrimSpace(s) == "" {
		return "", invalid("%s", reason)
	}
	return s, nil
}

func parseOpportunities(raw json.RawMessage) ([]model.OpportunityObservation, error) {
	if raw == nil {
		return nil, invalid("opportunities must be a non-empty list")
	}
	var items []map[string]json.RawMessage
	if json.Unmarshal(raw, &items) != nil || len(items) == 0 {
		return nil, invalid("opportunities must be a non-empty list")
	}

	out := make([]model.OpportunityObservation, 0, len(items))
	for i, item := range items {
		obs, err := parseOpportunity(item)
		if err != nil {
			return nil, invalid("opportunity %d: %s", i, reasonOf(err))
		}
		out = append(out, obs)
	}
	return out, nil
}

func parseOpportunity(m map[string]json.RawMessage) (model.OpportunityObservation, error) {
	var obs model.OpportunityObservation

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !opportunityFields[k] {
			return obs, invalid("unexpected field %q", k)
		}
	}

	company, err := requiredString(m, "company", "invalid company")
	if err != nil {
		return obs, err
	}
	obs.Company = company

	if obs.Role, err = optionalString(m, "role", "invalid role"); err != nil {
		return obs, err
	}
	if obs.Location, err = optionalString(m, "location", "invalid location"); err != nil {
		return obs, err
	}
	if obs.SalaryAmount, err = optionalNumber(m, "salary_amount", "invalid salary_amount"); err != nil {
		return obs, err
	}
	if obs.MinExperienceYears, err = optionalNumber(m, "min_experience_years", "invalid min_experience_years"); err != nil {
		return obs, err
	}
	if obs.MaxExperienceYears, err = optionalNumber(m, "max_experience_years", "invalid max_experience_years"); err != nil {
		return obs, err
	}

	if period, err := optionalString(m, "salary_period", "invalid salary_period"); err != nil {
		return obs, err
	} else if period != nil {
		sp := model.SalaryPeriod(*period)
		switch sp {
		case model.SalaryPeriodYear, model.SalaryPeriodMonth, model.SalaryPeriodHour:
			obs.SalaryPeriod = &sp
		default:
			return obs, invalid("invalid salary_period")
		}
	}

	stageRaw, ok := m["pipeline_stage"]
	if !ok {
		return obs, invalid("invalid pipeline_stage")
	}
	var stage string
	if json.Unmarshal(stageRaw, &stage) != nil || !model.Stage(stage).Valid() {
		return obs, invalid("invalid pipeline_stage")
	}
	obs.Stage = model.Stage(stage)

	if raw, ok := m["action_required"]; ok {
		if json.Unmarshal(raw, &obs.ActionRequired) != nil {
			return obs, invalid("invalid action_required")
		}
	}

	if obs.Deadline, err = optionalDate(m, "deadline"); err != nil {
		return obs, err
	}
	if obs.EventDate, err = optionalTimestamp(m, "event_date"); err != nil {
		return obs, err
	}

	if raw, ok := m["extra_details"]; ok && !isNull(raw) {
		if json.Unmarshal(raw, &obs.ExtraDetails) != nil {
			return obs, invalid("invalid extra_details")
		}
	}

	return obs, nil
}

func parseNetworking(raw json.RawMessage) (*model.NetworkingObservation, error) {
	if raw == nil || isNull(raw) {
		return nil, invalid("invalid linkedin_event")
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return nil, invalid("invalid linkedin_event")
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !networkingFields[k] {
			return nil, invalid("unexpected field %q in linkedin_event", k)
		}
	}

	var obs model.NetworkingObservation
	var err error
	if obs.PersonName, err = optionalString(m, "person_name", "invalid person_name"); err != nil {
		return nil, err
	}
	if obs.PersonTitle, err = optionalString(m, "person_title", "invalid person_title"); err != nil {
		return nil, err
	}
	if obs.PersonCompany, err = optionalString(m, "person_company", "invalid person_company"); err != nil {
		return nil, err
	}

	itRaw, ok := m["interaction_type"]
	if !ok {
		return nil, invalid("invalid interaction_type")
	}
	var it string
	if json.Unmarshal(itRaw, &it) != nil {
		return nil, invalid("invalid interaction_type")
	}
	switch model.InteractionType(it) {
	case model.InteractionConnectionInvite, model.InteractionConnectionAccepted,
		model.InteractionRecruiterMessage, model.InteractionFollowUpMessage:
		obs.InteractionType = model.InteractionType(it)
	default:
		return nil, invalid("invalid interaction_type")
	}

	if raw, ok := m["requires_follow_up"]; ok {
		if json.Unmarshal(raw, &obs.RequiresFollowUp) != nil {
			return nil, invalid("invalid requires_follow_up")
		}
	}

	return &obs, nil
}

func optionalString(m map[string]json.RawMessage, key, reason string) (*string, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return nil, invalid("%s", reason)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return &s, nil
}

func optionalNumber(m map[string]json.RawMessage, key, reason string) (*float64, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		return nil, invalid("%s", reason)
	}
	return &f, nil
}

// optionalDate parses a nullable calendar date (YYYY-MM-DD).
func optionalDate(m map[string]json.RawMessage, key string) (*time.Time, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return nil, invalid("invalid %s", key)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, invalid("invalid %s", key)
	}
	return &t, nil
}

// eventTimestampLayouts are the formats the classifier emits for datetimes,
// most specific first.
var eventTimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// optionalTimestamp parses a nullable datetime.
func optionalTimestamp(m map[string]json.RawMessage, key string) (*time.Time, error) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return nil, invalid("invalid %s", key)
	}
	for _, layout := range eventTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, invalid("invalid %s", key)
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func reasonOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}
