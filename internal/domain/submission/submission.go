// Package submission validates and builds judge score submissions.
//
// A submission is created exactly once when a judge finalizes scoring for
// a team. Validation covers structural shape (via go-playground/validator
// struct tags) and rubric coverage: every active criterion scored exactly
// once, every score within [0, max]. Uniqueness of the (judge, team) pair
// is NOT checked here; the repository enforces it at the persistence
// boundary so concurrent retries cannot slip past a check-then-insert.
package submission

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/internal/domain/rubric"
)

// Request is one judge's evaluation of one team as received from the
// transport layer. TimeSpentSeconds of 0 is accepted: it means the caller
// could not measure it, which is non-ideal data, not invalid data.
type Request struct {
	EventID          string                 `json:"event_id" validate:"required"`
	TeamID           string                 `json:"team_id" validate:"required"`
	JudgeID          string                 `json:"judge_id" validate:"required"`
	Scores           []model.CriterionScore `json:"criteria_scores" validate:"required,min=1,dive"`
	Comments         string                 `json:"overall_comments"`
	TimeSpentSeconds int                    `json:"time_spent_seconds" validate:"min=0"`
}

// Receipt confirms a recorded submission. TotalScore is computed with the
// same summation the aggregator uses, so the value shown to the judge at
// submit time always equals the query-time judge total.
type Receipt struct {
	SubmissionID string    `json:"submission_id"`
	EventID      string    `json:"event_id"`
	TeamID       string    `json:"team_id"`
	JudgeID      string    `json:"judge_id"`
	TotalScore   int       `json:"total_score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Service validates submission requests against a rubric.
type Service struct {
	validate *validator.Validate
}

// NewService creates a submission service.
func NewService() *Service {
	return &Service{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks req against the rubric. It returns an error wrapping
// ErrValidation describing the first violation found, so the caller can
// surface the offending field verbatim.
func (s *Service) Validate(r *rubric.Rubric, req Request) error {
	if err := s.validate.Struct(req); err != nil {
		if req.JudgeID == "" {
			return fmt.Errorf("%w: %w", ErrMissingJudge, err)
		}
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	seen := make(map[string]bool, len(req.Scores))
	for _, cs := range req.Scores {
		c, ok := r.Get(cs.CriterionID)
		if !ok {
			return fmt.Errorf("%w: criterion %q", ErrUnknownCriterion, cs.CriterionID)
		}
		if seen[cs.CriterionID] {
			return fmt.Errorf("%w: criterion %q scored twice", ErrValidation, cs.CriterionID)
		}
		seen[cs.CriterionID] = true
		if cs.Score < 0 || cs.Score > c.MaxScore {
			return fmt.Errorf("%w: criterion %q score %d outside [0, %d]",
				ErrScoreOutOfRange, cs.CriterionID, cs.Score, c.MaxScore)
		}
	}

	// Partial submissions are invalid: every active criterion must be covered.
	for _, c := range r.Criteria() {
		if !seen[c.ID] {
			return fmt.Errorf("%w: criterion %q", ErrMissingCriterion, c.ID)
		}
	}
	return nil
}

// Build materializes a validated request into a Submission record with a
// fresh id and the given submission time.
func (s *Service) Build(req Request, now time.Time) model.Submission {
	scores := make([]model.CriterionScore, len(req.Scores))
	copy(scores, req.Scores)
	return model.Submission{
		ID:               uuid.NewString(),
		EventID:          req.EventID,
		TeamID:           req.TeamID,
		JudgeID:          req.JudgeID,
		Scores:           scores,
		Comments:         req.Comments,
		SubmittedAt:      now.UTC(),
		TimeSpentSeconds: req.TimeSpentSeconds,
	}
}

// ReceiptFor derives the receipt for a stored submission.
func ReceiptFor(sub model.Submission) Receipt {
	return Receipt{
		SubmissionID: sub.ID,
		EventID:      sub.EventID,
		TeamID:       sub.TeamID,
		JudgeID:      sub.JudgeID,
		TotalScore:   sub.Total(),
		SubmittedAt:  sub.SubmittedAt,
	}
}
