package models

import (
	"time"

	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
)

// CreateSessionRequest overrides the study plan for one session. Omitted
// fields keep the study's values.
type CreateSessionRequest struct {
	Repetitions    *int  `json:"repetitions,omitempty"`
	Limit          *int  `json:"limit,omitempty"`
	Quota          *int  `json:"quota,omitempty"`
	RandomizeSides *bool `json:"randomize_sides,omitempty"`
}

// Apply returns the plan with the request's overrides
func (r CreateSessionRequest) Apply(plan pairing.Plan) pairing.Plan {
	if r.Repetitions != nil {
		plan.Repetitions = *r.Repetitions
	}
	if r.Limit != nil {
		plan.Limit = *r.Limit
	}
	if r.Quota != nil {
		plan.Quota = *r.Quota
	}
	if r.RandomizeSides != nil {
		plan.RandomizeSides = *r.RandomizeSides
	}
	return plan
}

// RecordRequest carries a rater's decision
type RecordRequest struct {
	Outcome string `json:"outcome"`
}

// SessionResponse describes a comparison session
type SessionResponse struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Plan      pairing.Plan `json:"plan"`
	pairing.Status
}
