package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/verdict/internal/domain/model"
)

// MemoryStore is an in-memory Store for tests and single-process
// deployments. A single write lock covers every mutation, which makes
// the submission uniqueness check and the conditional phase update
// atomic without a separate constraint mechanism.
type MemoryStore struct {
	mu sync.RWMutex

	events   map[string]model.Event
	teams    map[string][]model.Team       // eventID -> teams in creation order
	judges   map[string][]model.Judge      // eventID -> roster
	criteria map[string][]model.Criterion  // eventID -> rubric
	subs     map[string][]model.Submission // eventID -> submissions
	subKeys  map[string]struct{}           // eventID|judgeID|teamID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]model.Event),
		teams:    make(map[string][]model.Team),
		judges:   make(map[string][]model.Judge),
		criteria: make(map[string][]model.Criterion),
		subs:     make(map[string][]model.Submission),
		subKeys:  make(map[string]struct{}),
	}
}

func subKey(eventID, judgeID, teamID string) string {
	return eventID + "|" + judgeID + "|" + teamID
}

// CreateEvent records an event with its roster and rubric.
func (m *MemoryStore) CreateEvent(_ context.Context, ev model.Event, teams []model.Team, judges []model.Judge, criteria []model.Criterion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[ev.ID]; ok {
		return fmt.Errorf("event %q: %w", ev.ID, ErrAlreadyExists)
	}
	m.events[ev.ID] = ev

	ts := make([]model.Team, len(teams))
	copy(ts, teams)
	for i := range ts {
		ts[i].EventID = ev.ID
		ts[i].CreatedSeq = i
	}
	m.teams[ev.ID] = ts

	js := make([]model.Judge, len(judges))
	copy(js, judges)
	m.judges[ev.ID] = js

	cs := make([]model.Criterion, len(criteria))
	copy(cs, criteria)
	m.criteria[ev.ID] = cs
	return nil
}

// Event returns the event by id.
func (m *MemoryStore) Event(_ context.Context, eventID string) (model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev, ok := m.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	return ev, nil
}

// Teams returns the event's teams in creation order.
func (m *MemoryStore) Teams(_ context.Context, eventID string) ([]model.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.events[eventID]; !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	out := make([]model.Team, len(m.teams[eventID]))
	copy(out, m.teams[eventID])
	return out, nil
}

// Team returns one team of the event.
func (m *MemoryStore) Team(_ context.Context, eventID, teamID string) (model.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.teams[eventID] {
		if t.ID == teamID {
			return t, nil
		}
	}
	return model.Team{}, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
}

// Judges returns the event's judge roster.
func (m *MemoryStore) Judges(_ context.Context, eventID string) ([]model.Judge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.events[eventID]; !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	out := make([]model.Judge, len(m.judges[eventID]))
	copy(out, m.judges[eventID])
	return out, nil
}

// Criteria returns the event's rubric criteria.
func (m *MemoryStore) Criteria(_ context.Context, eventID string) ([]model.Criterion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.events[eventID]; !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	out := make([]model.Criterion, len(m.criteria[eventID]))
	copy(out, m.criteria[eventID])
	return out, nil
}

// SetTeamStatus updates a team's queue status unless judging has ended.
func (m *MemoryStore) SetTeamStatus(_ context.Context, eventID, teamID string, status model.TeamStatus) (model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return model.Team{}, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	if ev.Phase == model.PhaseEnded {
		return model.Team{}, ErrEventEnded
	}
	teams := m.teams[eventID]
	for i := range teams {
		if teams[i].ID == teamID {
			teams[i].Status = status
			return teams[i], nil
		}
	}
	return model.Team{}, fmt.Errorf("team %q: %w", teamID, ErrNotFound)
}

// AdvancePhase compare-and-sets the event phase.
func (m *MemoryStore) AdvancePhase(_ context.Context, eventID string, from, next model.Phase) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	if ev.Phase != from {
		return model.Event{}, fmt.Errorf("phase is %q, expected %q: %w", ev.Phase, from, ErrPhaseConflict)
	}
	ev.Phase = next
	m.events[eventID] = ev
	return ev, nil
}

// CreateSubmission records a submission, enforcing the (event, judge,
// team) uniqueness under the write lock.
func (m *MemoryStore) CreateSubmission(_ context.Context, sub model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[sub.EventID]; !ok {
		return fmt.Errorf("event %q: %w", sub.EventID, ErrNotFound)
	}
	key := subKey(sub.EventID, sub.JudgeID, sub.TeamID)
	if _, ok := m.subKeys[key]; ok {
		return fmt.Errorf("judge %q team %q: %w", sub.JudgeID, sub.TeamID, ErrDuplicateSubmission)
	}
	m.subKeys[key] = struct{}{}
	m.subs[sub.EventID] = append(m.subs[sub.EventID], sub)
	return nil
}

// Submissions returns all submissions for the event.
func (m *MemoryStore) Submissions(_ context.Context, eventID string) ([]model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.events[eventID]; !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	out := make([]model.Submission, len(m.subs[eventID]))
	copy(out, m.subs[eventID])
	return out, nil
}
