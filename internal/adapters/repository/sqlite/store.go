// Package sqlite provides a SQLite-backed judging store.
//
// The at-most-one-submission-per-(judge, team) invariant is enforced by
// a unique index, and the terminal phase transition by a conditional
// UPDATE, so concurrent duplicates and double end-judging calls are
// rejected by the database rather than by application-level checks.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	judging_phase TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
	id          TEXT NOT NULL,
	event_id    TEXT NOT NULL REFERENCES events(id),
	name        TEXT NOT NULL,
	status      TEXT NOT NULL,
	photo_url   TEXT NOT NULL DEFAULT '',
	project_url TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	members     TEXT NOT NULL DEFAULT '',
	created_seq INTEGER NOT NULL,
	PRIMARY KEY (event_id, id)
);

CREATE TABLE IF NOT EXISTS judges (
	id       TEXT NOT NULL,
	event_id TEXT NOT NULL REFERENCES events(id),
	name     TEXT NOT NULL,
	PRIMARY KEY (event_id, id)
);

CREATE TABLE IF NOT EXISTS criteria (
	id               TEXT NOT NULL,
	event_id         TEXT NOT NULL REFERENCES events(id),
	name             TEXT NOT NULL,
	short_name       TEXT NOT NULL DEFAULT '',
	description      TEXT NOT NULL DEFAULT '',
	guiding_question TEXT NOT NULL DEFAULT '',
	max_score        INTEGER NOT NULL,
	ord              INTEGER NOT NULL,
	PRIMARY KEY (event_id, id)
);

CREATE TABLE IF NOT EXISTS submissions (
	id                 TEXT PRIMARY KEY,
	event_id           TEXT NOT NULL REFERENCES events(id),
	team_id            TEXT NOT NULL,
	judge_id           TEXT NOT NULL,
	overall_comments   TEXT NOT NULL DEFAULT '',
	submitted_at_ms    INTEGER NOT NULL,
	time_spent_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS submissions_judge_team
	ON submissions(event_id, judge_id, team_id);

CREATE TABLE IF NOT EXISTS submission_scores (
	submission_id TEXT NOT NULL REFERENCES submissions(id),
	criteria_id   TEXT NOT NULL,
	score         INTEGER NOT NULL,
	reflection    TEXT NOT NULL DEFAULT '',
	ord           INTEGER NOT NULL,
	PRIMARY KEY (submission_id, criteria_id)
);
`

// Store persists judging state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ repository.Store = (*Store)(nil)

// Open opens (creating if needed) a SQLite judging store at path and
// applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

const memberSep = "\x1f"

func joinMembers(members []string) string {
	return strings.Join(members, memberSep)
}

func splitMembers(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, memberSep)
}

// CreateEvent inserts the event, teams, judges, and criteria in one
// transaction.
func (s *Store) CreateEvent(ctx context.Context, ev model.Event, teams []model.Team, judges []model.Judge, criteria []model.Criterion) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (id, name, judging_phase) VALUES (?, ?, ?)`,
		ev.ID, ev.Name, string(ev.Phase))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %q: %w", ev.ID, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	for i, t := range teams {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO teams (id, event_id, name, status, photo_url, project_url, description, members, created_seq)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, ev.ID, t.Name, string(t.Status), t.PhotoURL, t.ProjectURL, t.Description, joinMembers(t.Members), i)
		if err != nil {
			return fmt.Errorf("insert team %q: %w", t.ID, err)
		}
	}
	for _, j := range judges {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO judges (id, event_id, name) VALUES (?, ?, ?)`, j.ID, ev.ID, j.Name)
		if err != nil {
			return fmt.Errorf("insert judge %q: %w", j.ID, err)
		}
	}
	for i, c := range criteria {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO criteria (id, event_id, name, short_name, description, guiding_question, max_score, ord)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, ev.ID, c.Name, c.ShortName, c.Description, c.GuidingQuestion, c.MaxScore, i)
		if err != nil {
			return fmt.Errorf("insert criterion %q: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create event: %w", err)
	}
	return nil
}

// Event returns the event by id.
func (s *Store) Event(ctx context.Context, eventID string) (model.Event, error) {
	var ev model.Event
	var phase string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, judging_phase FROM events WHERE id = ?`, eventID).
		Scan(&ev.ID, &ev.Name, &phase)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("event %q: %w", eventID, repository.ErrNotFound)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("select event: %w", err)
	}
	ev.Phase = model.Phase(phase)
	return ev, nil
}

func (s *Store) requireEvent(ctx context.Context, eventID string) error {
	_, err := s.Event(ctx, eventID)
	return err
}

// Teams returns the event's teams in creation order.
func (s *Store) Teams(ctx context.Context, eventID string) ([]model.Team, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, event_id, name, status, photo_url, project_url, description, members, created_seq
		 FROM teams WHERE event_id = ? ORDER BY created_seq`, eventID)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (model.Team, error) {
	var t model.Team
	var status, members string
	if err := row.Scan(&t.ID, &t.EventID, &t.Name, &status, &t.PhotoURL, &t.ProjectURL, &t.Description, &members, &t.CreatedSeq); err != nil {
		return model.Team{}, fmt.Errorf("scan team: %w", err)
	}
	t.Status = model.TeamStatus(status)
	t.Members = splitMembers(members)
	return t, nil
}

// Team returns one team of the event.
func (s *Store) Team(ctx context.Context, eventID, teamID string) (model.Team, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, event_id, name, status, photo_url, project_url, description, members, created_seq
		 FROM teams WHERE event_id = ? AND id = ?`, eventID, teamID)
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Team{}, fmt.Errorf("team %q: %w", teamID, repository.ErrNotFound)
		}
		return model.Team{}, err
	}
	return t, nil
}

// Judges returns the event's judge roster.
func (s *Store) Judges(ctx context.Context, eventID string) ([]model.Judge, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name FROM judges WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("select judges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var judges []model.Judge
	for rows.Next() {
		var j model.Judge
		if err := rows.Scan(&j.ID, &j.Name); err != nil {
			return nil, fmt.Errorf("scan judge: %w", err)
		}
		judges = append(judges, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate judges: %w", err)
	}
	return judges, nil
}

// Criteria returns the event's rubric criteria in definition order.
func (s *Store) Criteria(ctx context.Context, eventID string) ([]model.Criterion, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, short_name, description, guiding_question, max_score
		 FROM criteria WHERE event_id = ? ORDER BY ord`, eventID)
	if err != nil {
		return nil, fmt.Errorf("select criteria: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var criteria []model.Criterion
	for rows.Next() {
		var c model.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.ShortName, &c.Description, &c.GuidingQuestion, &c.MaxScore); err != nil {
			return nil, fmt.Errorf("scan criterion: %w", err)
		}
		criteria = append(criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate criteria: %w", err)
	}
	return criteria, nil
}

// SetTeamStatus updates a team's status. The UPDATE carries the ended
// guard so the freeze holds even when the phase changes between a
// caller's read and this write.
func (s *Store) SetTeamStatus(ctx context.Context, eventID, teamID string, status model.TeamStatus) (model.Team, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE teams SET status = ?
		 WHERE event_id = ? AND id = ?
		   AND (SELECT judging_phase FROM events WHERE id = ?) != ?`,
		string(status), eventID, teamID, eventID, string(model.PhaseEnded))
	if err != nil {
		return model.Team{}, fmt.Errorf("update team status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Team{}, fmt.Errorf("update team status rows: %w", err)
	}
	if affected == 0 {
		// Nothing changed: either the row is missing or the event ended.
		ev, evErr := s.Event(ctx, eventID)
		if evErr != nil {
			return model.Team{}, evErr
		}
		if ev.Phase == model.PhaseEnded {
			return model.Team{}, repository.ErrEventEnded
		}
		return model.Team{}, fmt.Errorf("team %q: %w", teamID, repository.ErrNotFound)
	}
	return s.Team(ctx, eventID, teamID)
}

// AdvancePhase moves the event phase with a conditional UPDATE so two
// concurrent transitions cannot both pass the precondition.
func (s *Store) AdvancePhase(ctx context.Context, eventID string, from, next model.Phase) (model.Event, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE events SET judging_phase = ? WHERE id = ? AND judging_phase = ?`,
		string(next), eventID, string(from))
	if err != nil {
		return model.Event{}, fmt.Errorf("update phase: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Event{}, fmt.Errorf("update phase rows: %w", err)
	}
	if affected == 0 {
		ev, evErr := s.Event(ctx, eventID)
		if evErr != nil {
			return model.Event{}, evErr
		}
		return model.Event{}, fmt.Errorf("phase is %q, expected %q: %w", ev.Phase, from, repository.ErrPhaseConflict)
	}
	return s.Event(ctx, eventID)
}

// CreateSubmission inserts a submission and its criterion scores. The
// unique index on (event_id, judge_id, team_id) turns concurrent
// duplicates into ErrDuplicateSubmission.
func (s *Store) CreateSubmission(ctx context.Context, sub model.Submission) error {
	if err := s.requireEvent(ctx, sub.EventID); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create submission: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions (id, event_id, team_id, judge_id, overall_comments, submitted_at_ms, time_spent_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.EventID, sub.TeamID, sub.JudgeID, sub.Comments, toMillis(sub.SubmittedAt), sub.TimeSpentSeconds)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("judge %q team %q: %w", sub.JudgeID, sub.TeamID, repository.ErrDuplicateSubmission)
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	for i, cs := range sub.Scores {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO submission_scores (submission_id, criteria_id, score, reflection, ord)
			 VALUES (?, ?, ?, ?, ?)`,
			sub.ID, cs.CriterionID, cs.Score, cs.Reflection, i)
		if err != nil {
			return fmt.Errorf("insert submission score %q: %w", cs.CriterionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create submission: %w", err)
	}
	return nil
}

// Submissions returns all submissions for the event with their criterion
// scores.
func (s *Store) Submissions(ctx context.Context, eventID string) ([]model.Submission, error) {
	if err := s.requireEvent(ctx, eventID); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, event_id, team_id, judge_id, overall_comments, submitted_at_ms, time_spent_seconds
		 FROM submissions WHERE event_id = ? ORDER BY submitted_at_ms, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Submission
	index := make(map[string]int)
	for rows.Next() {
		var sub model.Submission
		var submittedAt int64
		if err := rows.Scan(&sub.ID, &sub.EventID, &sub.TeamID, &sub.JudgeID, &sub.Comments, &submittedAt, &sub.TimeSpentSeconds); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.SubmittedAt = fromMillis(submittedAt)
		index[sub.ID] = len(subs)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	if len(subs) == 0 {
		return subs, nil
	}

	scoreRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT ss.submission_id, ss.criteria_id, ss.score, ss.reflection
		 FROM submission_scores ss
		 JOIN submissions sub ON sub.id = ss.submission_id
		 WHERE sub.event_id = ? ORDER BY ss.submission_id, ss.ord`, eventID)
	if err != nil {
		return nil, fmt.Errorf("select submission scores: %w", err)
	}
	defer func() { _ = scoreRows.Close() }()

	for scoreRows.Next() {
		var subID string
		var cs model.CriterionScore
		if err := scoreRows.Scan(&subID, &cs.CriterionID, &cs.Score, &cs.Reflection); err != nil {
			return nil, fmt.Errorf("scan submission score: %w", err)
		}
		if i, ok := index[subID]; ok {
			subs[i].Scores = append(subs[i].Scores, cs)
		}
	}
	if err := scoreRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission scores: %w", err)
	}
	return subs, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
