// Package types provides type definitions for ATS records and interview data
// shared across the candidate-summary system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// CustomField is a single ATS custom field. RecruitCRM names the field
// "field_name" on candidate and job records but "label" on the
// candidate-job association endpoint, so both keys are kept.
type CustomField struct {
	FieldName string `json:"field_name,omitempty"`
	Label     string `json:"label,omitempty"`
	Value     string `json:"value"`
}

// UnmarshalJSON tolerates non-string field values. Custom fields are untyped
// in RecruitCRM, so numeric IDs arrive as JSON numbers.
func (f *CustomField) UnmarshalJSON(b []byte) error {
	var raw struct {
		FieldName string          `json:"field_name"`
		Label     string          `json:"label"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f.FieldName = raw.FieldName
	f.Label = raw.Label
	f.Value = flexString(raw.Value)
	return nil
}

// flexString renders a raw JSON scalar as a string. Strings are unquoted,
// null becomes "", and any other scalar keeps its JSON text.
func flexString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// CustomFields is the custom_fields block on a candidate or job record.
type CustomFields []CustomField

// Value returns the first non-empty value of the named field, matching
// either naming convention, or "" when the field is absent.
func (cf CustomFields) Value(name string) string {
	for _, f := range cf {
		if f.FieldName != name && f.Label != name {
			continue
		}
		if v := strings.TrimSpace(f.Value); v != "" {
			return v
		}
	}
	return ""
}

// Resume is the resume block on a candidate record. Older records link the
// file under "url", newer ones under "file_link".
type Resume struct {
	Filename string `json:"filename"`
	FileLink string `json:"file_link"`
	URL      string `json:"url"`
}

// UnmarshalJSON tolerates the empty shapes RecruitCRM uses when no resume is
// on file (null, false, or an empty array).
func (r *Resume) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	type plain Resume
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*r = Resume(p)
	return nil
}

// Link returns the download URL for the resume file, or "" when none is set.
func (r *Resume) Link() string {
	if r == nil {
		return ""
	}
	if r.FileLink != "" {
		return r.FileLink
	}
	return r.URL
}

// Candidate is an ATS candidate record plus the raw payload it was decoded
// from. Fields preserves every key the ATS sent so prompt assembly can
// serialize the complete record.
type Candidate struct {
	Slug         string
	FirstName    string
	LastName     string
	Resume       *Resume
	CustomFields CustomFields
	Fields       map[string]any
}

// CandidateFromJSON decodes a candidate from an API response or webhook
// payload. RecruitCRM wraps records inconsistently (bare, under "data", or
// under "candidate"), so unwrapping happens here and nowhere else.
func CandidateFromJSON(raw []byte) (*Candidate, error) {
	body := unwrapRecord(raw, "candidate")
	var rec struct {
		Slug         string       `json:"slug"`
		FirstName    string       `json:"first_name"`
		LastName     string       `json:"last_name"`
		Resume       *Resume      `json:"resume"`
		CustomFields CustomFields `json:"custom_fields"`
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decoding candidate: %w", err)
	}
	c := &Candidate{
		Slug:         rec.Slug,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Resume:       rec.Resume,
		CustomFields: rec.CustomFields,
	}
	if err := json.Unmarshal(body, &c.Fields); err != nil {
		return nil, fmt.Errorf("decoding candidate payload: %w", err)
	}
	return c, nil
}

// FullName returns the candidate's display name.
func (c *Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// HasResume reports whether a resume file is on record.
func (c *Candidate) HasResume() bool {
	return c.Resume != nil && c.Resume.Link() != ""
}

// MergeAssociatedFields appends job-specific custom fields to the candidate,
// in both the typed list and the raw payload used for prompt assembly.
// Candidate-level fields keep precedence in first-match lookups; callers
// that need the association's value should query the association list.
func (c *Candidate) MergeAssociatedFields(fields CustomFields) {
	if len(fields) == 0 {
		return
	}
	c.CustomFields = append(c.CustomFields, fields...)
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}
	raw, _ := c.Fields["custom_fields"].([]any)
	for _, f := range fields {
		m := map[string]any{"value": f.Value}
		if f.FieldName != "" {
			m["field_name"] = f.FieldName
		}
		if f.Label != "" {
			m["label"] = f.Label
		}
		raw = append(raw, m)
	}
	c.Fields["custom_fields"] = raw
}

// Company is the company block on a job record.
type Company struct {
	Name string `json:"name"`
}

// Job is an ATS job record plus the raw payload it was decoded from.
type Job struct {
	Slug         string
	Name         string
	Company      Company
	CustomFields CustomFields
	Fields       map[string]any
}

// JobFromJSON decodes a job from an API response or webhook payload,
// unwrapping the same envelope shapes as CandidateFromJSON.
func JobFromJSON(raw []byte) (*Job, error) {
	body := unwrapRecord(raw, "job")
	var rec struct {
		Slug         string       `json:"slug"`
		Name         string       `json:"name"`
		Company      Company      `json:"company"`
		CustomFields CustomFields `json:"custom_fields"`
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	j := &Job{
		Slug:         rec.Slug,
		Name:         rec.Name,
		Company:      rec.Company,
		CustomFields: rec.CustomFields,
	}
	if err := json.Unmarshal(body, &j.Fields); err != nil {
		return nil, fmt.Errorf("decoding job payload: %w", err)
	}
	return j, nil
}

// CompanyName returns the hiring company's name, or "" when absent.
func (j *Job) CompanyName() string {
	return strings.TrimSpace(j.Company.Name)
}

// unwrapRecord peels the single-key wrappers RecruitCRM puts around records.
// Both wrappers can be present at once ({"data": {"candidate": {...}}}).
func unwrapRecord(raw []byte, entity string) []byte {
	body := raw
	for _, key := range []string{"data", entity} {
		if res := gjson.GetBytes(body, key); res.IsObject() {
			body = []byte(res.Raw)
		}
	}
	return body
}

// CandidateStatus is the pipeline position of an assigned candidate.
type CandidateStatus struct {
	StatusID int    `json:"status_id"`
	Label    string `json:"label,omitempty"`
}

// AssignedCandidate is one entry from a job's assigned-candidates list. The
// ATS nests the complete candidate record under a "candidate" key with the
// pipeline status alongside it, so multi-candidate flows can read resumes
// and custom fields without refetching each candidate.
type AssignedCandidate struct {
	Candidate Candidate
	Status    CandidateStatus
}

// UnmarshalJSON decodes the assignment, routing the nested candidate through
// the shared envelope handling.
func (a *AssignedCandidate) UnmarshalJSON(b []byte) error {
	var raw struct {
		Candidate json.RawMessage `json:"candidate"`
		Status    CandidateStatus `json:"status"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.Status = raw.Status
	if len(raw.Candidate) == 0 || string(raw.Candidate) == "null" {
		return nil
	}
	c, err := CandidateFromJSON(raw.Candidate)
	if err != nil {
		return err
	}
	a.Candidate = *c
	return nil
}

// PipelineStage is one stage of the account-wide hiring pipeline.
type PipelineStage struct {
	StatusID int    `json:"status_id"`
	Label    string `json:"label"`
}

// Note is an ATS note attached to a candidate record.
type Note struct {
	ID             int      `json:"id"`
	Description    string   `json:"description"`
	CreatedOn      string   `json:"created_on"`
	AssociatedJobs []string `json:"associated_jobs,omitempty"`
}
