package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionColumns = `id, started_at, ended_at, duration, completed, mode, notes`

// SessionRepository stores focus and break sessions and derives analytics
// from them.
type SessionRepository struct {
	repo *Repository[Session]
	now  func() time.Time
}

func NewSessionRepository(conn *Conn) *SessionRepository {
	return &SessionRepository{
		repo: NewRepository(conn, mapSession),
		now:  time.Now,
	}
}

func mapSession(row Row) (Session, error) {
	var s Session
	var err error
	if s.ID, err = row.Text("id"); err != nil {
		return s, err
	}
	if s.StartedAt, err = row.Time("started_at"); err != nil {
		return s, err
	}
	if s.EndedAt, err = row.OptTime("ended_at"); err != nil {
		return s, err
	}
	if s.DurationSeconds, err = row.Int("duration"); err != nil {
		return s, err
	}
	if s.Completed, err = row.Bool("completed"); err != nil {
		return s, err
	}
	mode, err := row.Text("mode")
	if err != nil {
		return s, err
	}
	s.Mode = Mode(mode)
	if !s.Mode.Valid() {
		return s, InvalidData("mode", fmt.Sprintf("unknown mode %q", mode))
	}
	if s.Notes, err = row.OptText("notes"); err != nil {
		return s, err
	}
	return s, nil
}

// Create inserts s, assigning a new UUID when s.ID is empty.
func (r *SessionRepository) Create(s *Session) error {
	if !s.Mode.Valid() {
		return InvalidData("mode", fmt.Sprintf("unknown mode %q", s.Mode))
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.repo.ExecuteUpdate(
		`INSERT INTO focus_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.StartedAt, s.EndedAt, s.DurationSeconds, s.Completed, string(s.Mode), s.Notes,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Read(id string) (*Session, error) {
	s, err := r.repo.QueryOne("session", id,
		`SELECT `+sessionColumns+` FROM focus_sessions WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &s, nil
}

func (r *SessionRepository) Update(s Session) error {
	if !s.Mode.Valid() {
		return InvalidData("mode", fmt.Sprintf("unknown mode %q", s.Mode))
	}
	n, err := r.repo.ExecuteUpdate(
		`UPDATE focus_sessions
		 SET started_at = ?, ended_at = ?, duration = ?, completed = ?, mode = ?, notes = ?
		 WHERE id = ?`,
		s.StartedAt, s.EndedAt, s.DurationSeconds, s.Completed, string(s.Mode), s.Notes, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", s.ID, err)
	}
	if n == 0 {
		return NotFound("session", s.ID)
	}
	return nil
}

func (r *SessionRepository) Delete(id string) error {
	n, err := r.repo.ExecuteUpdate(`DELETE FROM focus_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return NotFound("session", id)
	}
	return nil
}

// DeleteAll removes every session. It backs the explicit user data-clear.
func (r *SessionRepository) DeleteAll() (int64, error) {
	n, err := r.repo.ExecuteUpdate(deleteAllSessionsSQL)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return n, nil
}

const deleteAllSessionsSQL = `DELETE FROM focus_sessions`

// ClearHistory deletes every session and resets achievement progress in one
// transaction. Nothing changes when either statement fails.
func ClearHistory(c *Conn) (int64, error) {
	var n int64
	err := WithTx(c, func(h *Handle) error {
		var err error
		if n, err = execUpdate(h, deleteAllSessionsSQL); err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}
		if _, err := execUpdate(h, resetAchievementsSQL); err != nil {
			return fmt.Errorf("reset achievements: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateCompletion sets the completed flag. Completing stamps ended_at with
// the current time; un-completing clears it.
func (r *SessionRepository) UpdateCompletion(id string, completed bool) error {
	var n int64
	var err error
	if completed {
		n, err = r.repo.ExecuteUpdate(
			`UPDATE focus_sessions SET completed = 1, ended_at = MAX(?, started_at) WHERE id = ?`,
			r.now(), id,
		)
	} else {
		n, err = r.repo.ExecuteUpdate(
			`UPDATE focus_sessions SET completed = 0, ended_at = NULL WHERE id = ?`, id,
		)
	}
	if err != nil {
		return fmt.Errorf("update completion %s: %w", id, err)
	}
	if n == 0 {
		return NotFound("session", id)
	}
	return nil
}

// GetSessions returns the sessions started within period, newest first.
func (r *SessionRepository) GetSessions(period Period) ([]Session, error) {
	from, to := period.Range(r.now())
	return r.GetSessionsBetween(from, to)
}

// GetSessionsBetween returns sessions started in [from, to), newest first.
func (r *SessionRepository) GetSessionsBetween(from, to time.Time) ([]Session, error) {
	sessions, err := r.repo.QueryAll(
		`SELECT `+sessionColumns+` FROM focus_sessions
		 WHERE started_at >= ? AND started_at < ?
		 ORDER BY started_at DESC, rowid DESC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Recent returns the latest limit sessions regardless of period.
func (r *SessionRepository) Recent(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := r.repo.QueryAll(
		`SELECT `+sessionColumns+` FROM focus_sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return sessions, nil
}

// Latest returns the most recently started session, or nil when none exist.
func (r *SessionRepository) Latest() (*Session, error) {
	sessions, err := r.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// GetTotalFocusTime returns the focus minutes started within period.
func (r *SessionRepository) GetTotalFocusTime(period Period) (int, error) {
	from, to := period.Range(r.now())
	rows, err := r.repo.ExecuteQuery(
		`SELECT COALESCE(SUM(duration), 0) AS total FROM focus_sessions
		 WHERE mode = ? AND started_at >= ? AND started_at < ?`,
		string(ModeFocus), from, to,
	)
	if err != nil {
		return 0, fmt.Errorf("total focus time: %w", err)
	}
	total, err := rows[0].Int("total")
	if err != nil {
		return 0, err
	}
	return int(total / 60), nil
}

// GetCompletedCount returns the number of completed sessions within period.
func (r *SessionRepository) GetCompletedCount(period Period) (int, error) {
	from, to := period.Range(r.now())
	rows, err := r.repo.ExecuteQuery(
		`SELECT COUNT(*) AS n FROM focus_sessions
		 WHERE completed = 1 AND started_at >= ? AND started_at < ?`,
		from, to,
	)
	if err != nil {
		return 0, fmt.Errorf("completed count: %w", err)
	}
	n, err := rows[0].Int("n")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Summary computes the StatsSummary for period.
func (r *SessionRepository) Summary(period Period) (StatsSummary, error) {
	sessions, err := r.GetSessions(period)
	if err != nil {
		return StatsSummary{}, err
	}
	return CalculateSummary(sessions, r.now()), nil
}

// Chart returns one ChartData bucket per day of period.
func (r *SessionRepository) Chart(period Period) ([]ChartData, error) {
	sessions, err := r.GetSessions(period)
	if err != nil {
		return nil, err
	}
	return GenerateChartData(sessions, period, r.now()), nil
}
