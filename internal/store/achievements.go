package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const achievementColumns = `id, title, description, icon, type, progress, target, unlocked, unlocked_date`

// seedNamespace derives stable ids for the default achievements so seeding
// is idempotent across runs.
var seedNamespace = uuid.MustParse("6f1c2a8e-4b7d-4c39-9e51-2f0d8a7b3c64")

type seedAchievement struct {
	key         string
	title       string
	description string
	icon        string
	typ         AchievementType
	target      float64
}

var defaultAchievements = []seedAchievement{
	{"first-focus", "First Focus", "Complete your first focus session", "★", AchievementSessions, 1},
	{"focus-10", "Getting Into It", "Complete 10 focus sessions", "♨", AchievementSessions, 10},
	{"focus-100", "Centurion", "Complete 100 focus sessions", "♛", AchievementSessions, 100},
	{"minutes-600", "Deep Worker", "Focus for 10 hours in total", "⌛", AchievementFocusTime, 600},
	{"minutes-3000", "Marathon Mind", "Focus for 50 hours in total", "∞", AchievementFocusTime, 3000},
	{"streak-3", "On a Roll", "Be active 3 days in a row", "➚", AchievementStreak, 3},
	{"streak-7", "Week Warrior", "Be active 7 days in a row", "☀", AchievementStreak, 7},
	{"streak-30", "Unstoppable", "Be active 30 days in a row", "☄", AchievementStreak, 30},
	{"long-break-1", "Well Rested", "Complete a long break", "☕", AchievementLongBreaks, 1},
}

// SeedID returns the id the default achievement key is stored under.
func SeedID(key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(key)).String()
}

type AchievementRepository struct {
	repo *Repository[Achievement]
	conn *Conn
	now  func() time.Time
}

func NewAchievementRepository(conn *Conn) *AchievementRepository {
	return &AchievementRepository{
		repo: NewRepository(conn, mapAchievement),
		conn: conn,
		now:  time.Now,
	}
}

func mapAchievement(row Row) (Achievement, error) {
	var a Achievement
	var err error
	if a.ID, err = row.Text("id"); err != nil {
		return a, err
	}
	if a.Title, err = row.Text("title"); err != nil {
		return a, err
	}
	if a.Description, err = row.Text("description"); err != nil {
		return a, err
	}
	if a.Icon, err = row.Text("icon"); err != nil {
		return a, err
	}
	typ, err := row.Text("type")
	if err != nil {
		return a, err
	}
	a.Type = AchievementType(typ)
	if a.Progress, err = row.Float("progress"); err != nil {
		return a, err
	}
	if a.Target, err = row.Float("target"); err != nil {
		return a, err
	}
	if a.Unlocked, err = row.Bool("unlocked"); err != nil {
		return a, err
	}
	if a.UnlockedAt, err = row.OptTime("unlocked_date"); err != nil {
		return a, err
	}
	return a, nil
}

// applyProgress sets the progress and unlocks on the first crossing of the
// target. An unlocked achievement stays unlocked with its original stamp.
func applyProgress(a *Achievement, progress float64, now time.Time) bool {
	a.Progress = progress
	if a.Unlocked {
		return false
	}
	if progress >= a.Target {
		a.Unlocked = true
		a.UnlockedAt = &now
		return true
	}
	return false
}

func (r *AchievementRepository) Create(a *Achievement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if !a.Unlocked {
		applyProgress(a, a.Progress, r.now())
	}
	_, err := r.repo.ExecuteUpdate(
		`INSERT INTO achievements (`+achievementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, a.Icon, string(a.Type), a.Progress, a.Target, a.Unlocked, a.UnlockedAt,
	)
	if err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

func (r *AchievementRepository) Read(id string) (*Achievement, error) {
	a, err := r.repo.QueryOne("achievement", id,
		`SELECT `+achievementColumns+` FROM achievements WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get achievement %s: %w", id, err)
	}
	return &a, nil
}

// Update inserts a or replaces the stored achievement with the same id.
func (r *AchievementRepository) Update(a Achievement) error {
	_, err := r.repo.ExecuteUpdate(
		`INSERT INTO achievements (`+achievementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   icon = excluded.icon,
		   type = excluded.type,
		   progress = excluded.progress,
		   target = excluded.target,
		   unlocked = excluded.unlocked,
		   unlocked_date = excluded.unlocked_date`,
		a.ID, a.Title, a.Description, a.Icon, string(a.Type), a.Progress, a.Target, a.Unlocked, a.UnlockedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert achievement %s: %w", a.ID, err)
	}
	return nil
}

func (r *AchievementRepository) Delete(id string) error {
	n, err := r.repo.ExecuteUpdate(`DELETE FROM achievements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete achievement %s: %w", id, err)
	}
	if n == 0 {
		return NotFound("achievement", id)
	}
	return nil
}

func (r *AchievementRepository) GetAll() ([]Achievement, error) {
	all, err := r.repo.QueryAll(
		`SELECT ` + achievementColumns + ` FROM achievements ORDER BY type, target, title`)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return all, nil
}

// GetUnlocked returns unlocked achievements, most recent first.
func (r *AchievementRepository) GetUnlocked() ([]Achievement, error) {
	unlocked, err := r.repo.QueryAll(
		`SELECT ` + achievementColumns + ` FROM achievements
		 WHERE unlocked = 1 ORDER BY unlocked_date DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	return unlocked, nil
}

func (r *AchievementRepository) GetByType(t AchievementType) ([]Achievement, error) {
	list, err := r.repo.QueryAll(
		`SELECT `+achievementColumns+` FROM achievements WHERE type = ? ORDER BY target, title`,
		string(t))
	if err != nil {
		return nil, fmt.Errorf("list %s achievements: %w", t, err)
	}
	return list, nil
}

// UpdateProgress records progress for id inside a transaction and reports
// whether this call unlocked it.
func (r *AchievementRepository) UpdateProgress(id string, progress float64) (Achievement, bool, error) {
	var a Achievement
	var unlocked bool
	err := WithTx(r.conn, func(h *Handle) error {
		rows, err := queryRows(h, `SELECT `+achievementColumns+` FROM achievements WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return NotFound("achievement", id)
		}
		if a, err = r.repo.MapRow(rows[0]); err != nil {
			return err
		}

		unlocked = applyProgress(&a, progress, r.now())
		_, err = execUpdate(h,
			`UPDATE achievements SET progress = ?, unlocked = ?, unlocked_date = ? WHERE id = ?`,
			a.Progress, a.Unlocked, a.UnlockedAt, a.ID,
		)
		return err
	})
	if err != nil {
		return Achievement{}, false, fmt.Errorf("update progress %s: %w", id, err)
	}
	return a, unlocked, nil
}

// Seed inserts the default achievement set. Existing rows are left alone.
func (r *AchievementRepository) Seed() error {
	err := WithTx(r.conn, func(h *Handle) error {
		for _, s := range defaultAchievements {
			_, err := execUpdate(h,
				`INSERT OR IGNORE INTO achievements (id, title, description, icon, type, progress, target, unlocked)
				 VALUES (?, ?, ?, ?, ?, 0, ?, 0)`,
				SeedID(s.key), s.title, s.description, s.icon, string(s.typ), s.target,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	return nil
}

// resetAchievementsSQL backs ClearHistory. Progress updates never un-unlock.
const resetAchievementsSQL = `UPDATE achievements SET progress = 0, unlocked = 0, unlocked_date = NULL`

// Refresh recomputes every achievement's progress from the full session
// history and returns the ones that unlocked during this call.
func (r *AchievementRepository) Refresh(sessions []Session) ([]Achievement, error) {
	all, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	metrics := Metrics(sessions, r.now())

	var unlocked []Achievement
	for _, a := range all {
		progress, ok := metrics[a.Type]
		if !ok {
			continue
		}
		if progress == a.Progress && (a.Unlocked || progress < a.Target) {
			continue
		}
		updated, justUnlocked, err := r.UpdateProgress(a.ID, progress)
		if err != nil {
			return unlocked, err
		}
		if justUnlocked {
			unlocked = append(unlocked, updated)
		}
	}
	return unlocked, nil
}

// Metrics computes the value each achievement type tracks over sessions.
func Metrics(sessions []Session, now time.Time) map[AchievementType]float64 {
	var completedFocus, focusSecs, longBreaks int64
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		switch s.Mode {
		case ModeFocus:
			completedFocus++
			focusSecs += s.DurationSeconds
		case ModeLongBreak:
			longBreaks++
		}
	}
	days := ActiveDays(sessions, now.Location())
	return map[AchievementType]float64{
		AchievementSessions:   float64(completedFocus),
		AchievementFocusTime:  float64(focusSecs / 60),
		AchievementStreak:     float64(BestStreak(days)),
		AchievementLongBreaks: float64(longBreaks),
	}
}
