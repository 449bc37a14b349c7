// Package rubric provides the immutable catalog of scoring criteria for
// an event.
package rubric

import (
	"fmt"

	"github.com/okian/verdict/internal/domain/model"
)

// Rubric is a read-only set of criteria. Build one with New at event
// setup; it is never mutated during judging.
type Rubric struct {
	criteria []model.Criterion
	byID     map[string]model.Criterion
	totalMax int
}

// New builds a Rubric from criteria, rejecting empty catalogs,
// non-positive max scores, and duplicate ids.
func New(criteria []model.Criterion) (*Rubric, error) {
	if len(criteria) == 0 {
		return nil, ErrEmpty
	}
	r := &Rubric{
		criteria: make([]model.Criterion, len(criteria)),
		byID:     make(map[string]model.Criterion, len(criteria)),
	}
	copy(r.criteria, criteria)
	for _, c := range r.criteria {
		if c.ID == "" {
			return nil, fmt.Errorf("criterion %q: %w", c.Name, ErrMissingID)
		}
		if c.MaxScore <= 0 {
			return nil, fmt.Errorf("criterion %q: %w", c.ID, ErrInvalidMaxScore)
		}
		if _, ok := r.byID[c.ID]; ok {
			return nil, fmt.Errorf("criterion %q: %w", c.ID, ErrDuplicateID)
		}
		r.byID[c.ID] = c
		r.totalMax += c.MaxScore
	}
	return r, nil
}

// Default returns the standard four-criterion rubric: 25 points each,
// 100 total.
func Default() *Rubric {
	r, err := New(DefaultCriteria())
	if err != nil {
		// The default catalog is a compile-time constant; it cannot fail.
		panic(err)
	}
	return r
}

// DefaultCriteria returns the criteria backing the default rubric.
func DefaultCriteria() []model.Criterion {
	return []model.Criterion{
		{
			ID:              "problem",
			Name:            "Problem Understanding",
			ShortName:       "Problem",
			Description:     "How well the team understands the problem space and its users.",
			GuidingQuestion: "Did the team identify a real problem and demonstrate insight into it?",
			MaxScore:        25,
		},
		{
			ID:              "solution",
			Name:            "Solution & Impact",
			ShortName:       "Solution",
			Description:     "Fit and potential impact of the proposed solution.",
			GuidingQuestion: "Does the solution address the problem and could it matter at scale?",
			MaxScore:        25,
		},
		{
			ID:              "execution",
			Name:            "Technical Execution",
			ShortName:       "Execution",
			Description:     "Quality and completeness of what was actually built.",
			GuidingQuestion: "How much works, and how well is it built?",
			MaxScore:        25,
		},
		{
			ID:              "communication",
			Name:            "Communication",
			ShortName:       "Comms",
			Description:     "Clarity of the presentation and answers to questions.",
			GuidingQuestion: "Did the team present their work clearly and handle questions well?",
			MaxScore:        25,
		},
	}
}

// Criteria returns a copy of the catalog in definition order.
func (r *Rubric) Criteria() []model.Criterion {
	out := make([]model.Criterion, len(r.criteria))
	copy(out, r.criteria)
	return out
}

// Get returns the criterion with the given id.
func (r *Rubric) Get(id string) (model.Criterion, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Len returns the number of criteria.
func (r *Rubric) Len() int { return len(r.criteria) }

// TotalMax returns the maximum judge total: the sum of all criteria max
// scores.
func (r *Rubric) TotalMax() int { return r.totalMax }
