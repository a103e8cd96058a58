// Package report normalizes raw project records into the report document
// and writes it to disk.
package report

import (
	"time"
)

// RawProject is a project record as the remote service returns it. The
// schema is owned by the remote side; locally we only do presence checks
// with fallback defaults.
type RawProject map[string]any

// ProjectDetails is the enumerated subset of raw fields retained in the
// report. Values are passed through untouched; fields absent from the raw
// record serialize as null.
type ProjectDetails struct {
	ID               any `json:"id"`
	Title            any `json:"title"`
	Budget           any `json:"budget"`
	MilestonesQty    any `json:"milestones_qty"`
	FundsDistributed any `json:"funds_distributed"`
	ProjectID        any `json:"project_id"`
	Challenges       any `json:"challenges"`
	Name             any `json:"name"`
	Category         any `json:"category"`
	URL              any `json:"url"`
	Status           any `json:"status"`
	Finished         any `json:"finished"`
	Voting           any `json:"voting"`
}

// Project is one normalized report entry.
type Project struct {
	Details             ProjectDetails `json:"projectDetails"`
	MilestonesCompleted float64        `json:"milestonesCompleted"`
}

// Document is the report written to disk.
type Document struct {
	// Timestamp is the generation time (transform time, not trigger or
	// poll time) in RFC 3339 UTC.
	Timestamp string `json:"timestamp"`

	// Projects preserves the order of the raw result set.
	Projects []Project `json:"projects"`
}

// Transform maps raw project records to the normalized [Document].
//
// Pure function: no network or filesystem access, each record mapped
// independently and in order. The same records and the same now yield
// byte-identical serialized output.
func Transform(records []RawProject, now time.Time) Document {
	projects := make([]Project, len(records))
	for i, rec := range records {
		projects[i] = normalize(rec)
	}
	return Document{
		Timestamp: now.UTC().Format(time.RFC3339),
		Projects:  projects,
	}
}

// normalize maps one raw record, dropping unknown fields.
func normalize(rec RawProject) Project {
	return Project{
		Details: ProjectDetails{
			ID:               rec["id"],
			Title:            rec["title"],
			Budget:           rec["budget"],
			MilestonesQty:    rec["milestones_qty"],
			FundsDistributed: rec["funds_distributed"],
			ProjectID:        rec["project_id"],
			Challenges:       rec["challenges"],
			Name:             rec["name"],
			Category:         rec["category"],
			URL:              rec["url"],
			Status:           rec["status"],
			Finished:         rec["finished"],
			Voting:           rec["voting"],
		},
		MilestonesCompleted: milestonesCompleted(rec),
	}
}

// milestonesCompleted resolves the completed-milestone count with a
// two-key fallback: milestones_completed, then completed_milestones,
// then 0.
func milestonesCompleted(rec RawProject) float64 {
	if n, ok := asNumber(rec["milestones_completed"]); ok {
		return n
	}
	if n, ok := asNumber(rec["completed_milestones"]); ok {
		return n
	}
	return 0
}

// asNumber coerces the numeric types a decoded JSON value can carry.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
