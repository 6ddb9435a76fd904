// Package report accumulates verification results for a run and
// renders them as a live verdict stream, a styled text summary, or
// JSON.
package report

import (
	"github.com/google/uuid"

	"github.com/unbound-force/smelltest/internal/verify"
)

// Version is the JSON report format version.
const Version = "1.0.0"

// Report is the outcome of one harness run.
type Report struct {
	Version string `json:"version"`

	// RunID identifies the run in logs and CI artifacts.
	RunID string `json:"run_id"`

	// Root is the fixture root that was scanned.
	Root string `json:"root"`

	// Filter is the smell-name substring filter; empty runs all.
	Filter string `json:"filter"`

	// ReferenceDate is the date handed to the fixer.
	ReferenceDate string `json:"reference_date"`

	// Results are in processing order.
	Results []verify.Result `json:"results"`

	Summary Summary `json:"summary"`
}

// Summary holds the verdict counts of a run.
type Summary struct {
	Total       int `json:"total"`
	Fixed       int `json:"fixed"`
	NotFixed    int `json:"not_fixed"`
	BadFixtures int `json:"bad_fixtures"`

	// Categories are in the order they were processed.
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary holds the verdict counts of one smell category.
type CategorySummary struct {
	Name        string `json:"name"`
	Fixtures    int    `json:"fixtures"`
	Fixed       int    `json:"fixed"`
	NotFixed    int    `json:"not_fixed"`
	BadFixtures int    `json:"bad_fixtures"`
}

// New starts an empty report with a fresh run id.
func New(root, filter, referenceDate string) *Report {
	return &Report{
		Version:       Version,
		RunID:         uuid.NewString(),
		Root:          root,
		Filter:        filter,
		ReferenceDate: referenceDate,
		Results:       []verify.Result{},
		Summary:       Summary{Categories: []CategorySummary{}},
	}
}

// AddCategory registers a category so it is listed even when it holds
// no fixtures. Adding a category twice is a no-op.
func (r *Report) AddCategory(name string) {
	r.category(name)
}

// Add records one verification result.
func (r *Report) Add(res verify.Result) {
	r.Results = append(r.Results, res)
	cat := r.category(res.Fixture.Category)

	r.Summary.Total++
	cat.Fixtures++
	switch res.Verdict {
	case verify.Fixed:
		r.Summary.Fixed++
		cat.Fixed++
	case verify.NotFixed:
		r.Summary.NotFixed++
		cat.NotFixed++
	case verify.SkippedBadFixture:
		r.Summary.BadFixtures++
		cat.BadFixtures++
	}
}

// Failed reports whether the run should fail CI: any fixture was not
// fixed, or any fixture does not exhibit its own smell.
func (r *Report) Failed() bool {
	return r.Summary.NotFixed > 0 || r.Summary.BadFixtures > 0
}

func (r *Report) category(name string) *CategorySummary {
	for i := range r.Summary.Categories {
		if r.Summary.Categories[i].Name == name {
			return &r.Summary.Categories[i]
		}
	}
	r.Summary.Categories = append(r.Summary.Categories, CategorySummary{Name: name})
	return &r.Summary.Categories[len(r.Summary.Categories)-1]
}
