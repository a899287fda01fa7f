package pairing

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// State is the session's position in its selection loop
type State string

const (
	StateAwaitingSelection State = "awaiting_selection"
	StateExhausted         State = "exhausted"
)

// Session tracks the pair pool, the displayed pair and the comparison log
// for one rater. It is not safe for concurrent use.
type Session struct {
	rng   *rand.Rand
	clock func() time.Time

	plan    Plan
	images  []ImageID
	pool    []Pair
	current *Pair
	log     []Comparison
	target  int
}

// Option configures a Session
type Option func(*Session)

// WithRand sets the random source used for scheduling and drawing pairs
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithClock sets the clock used to timestamp comparisons
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// New creates a session and starts it over the given images
func New(images []ImageID, plan Plan, opts ...Option) (*Session, error) {
	s := &Session{
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Start(images, plan); err != nil {
		return nil, err
	}
	return s, nil
}

// Start replaces any prior state with a freshly generated pool and an empty
// log. On error the previous state is kept.
func (s *Session) Start(images []ImageID, plan Plan) error {
	plan = plan.withDefaults()
	pool, err := GeneratePairs(s.rng, images, plan)
	if err != nil {
		return err
	}

	target := len(pool)
	if plan.Quota > 0 && plan.Quota < target {
		target = plan.Quota
	}

	s.plan = plan
	s.images = Distinct(images)
	s.pool = pool
	s.current = nil
	s.log = nil
	s.target = target
	return nil
}

// State reports whether a pair can still be shown
func (s *Session) State() State {
	if s.plan.Quota > 0 && len(s.log) >= s.plan.Quota {
		return StateExhausted
	}
	if len(s.pool) == 0 && s.current == nil {
		return StateExhausted
	}
	return StateAwaitingSelection
}

// Current returns the displayed pair, drawing one uniformly from the pool if
// none is displayed yet. The drawn pair stays in the pool until recorded.
func (s *Session) Current() (Pair, error) {
	if s.State() == StateExhausted {
		return Pair{}, ErrExhausted
	}
	if s.current == nil {
		p := s.pool[s.rng.IntN(len(s.pool))]
		s.current = &p
	}
	return *s.current, nil
}

// Peek returns the displayed pair without drawing a new one
func (s *Session) Peek() (Pair, bool) {
	if s.current == nil {
		return Pair{}, false
	}
	return *s.current, true
}

// Record logs the outcome for the displayed pair and consumes one occurrence
// of it from the pool.
func (s *Session) Record(outcome Outcome) (Comparison, error) {
	if s.State() == StateExhausted {
		return Comparison{}, ErrExhausted
	}
	if s.current == nil {
		return Comparison{}, ErrNoCurrentPair
	}
	if !outcome.valid() {
		return Comparison{}, fmt.Errorf("%w: unknown outcome %q", ErrInvalidInput, outcome)
	}

	pair := *s.current
	c := Comparison{
		Left:      pair.Left,
		Right:     pair.Right,
		Outcome:   outcome,
		Timestamp: s.clock(),
	}
	s.log = append(s.log, c)

	if i := slices.Index(s.pool, pair); i >= 0 {
		s.pool = slices.Delete(s.pool, i, i+1)
	}
	s.current = nil

	return c, nil
}

// Progress returns the number of recorded comparisons and the session target
func (s *Session) Progress() (completed, target int) {
	return len(s.log), s.target
}

// Remaining returns the number of pairs left in the pool
func (s *Session) Remaining() int {
	return len(s.pool)
}

// Plan returns the plan the session was started with
func (s *Session) Plan() Plan {
	return s.plan
}

// Images returns the distinct candidate images of the session
func (s *Session) Images() []ImageID {
	return slices.Clone(s.images)
}

// Export returns a copy of the comparison log in insertion order
func (s *Session) Export() []Comparison {
	return slices.Clone(s.log)
}

// Status is a read-only view of a session for presentation layers
type Status struct {
	State     State `json:"state"`
	Current   *Pair `json:"current,omitempty"`
	Completed int   `json:"completed"`
	Target    int   `json:"target"`
	Remaining int   `json:"remaining"`
}

// Status summarizes the session without drawing a pair
func (s *Session) Status() Status {
	st := Status{
		State:     s.State(),
		Completed: len(s.log),
		Target:    s.target,
		Remaining: len(s.pool),
	}
	if p, ok := s.Peek(); ok && st.State == StateAwaitingSelection {
		st.Current = &p
	}
	return st
}
