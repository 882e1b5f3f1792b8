package analytics

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// heartbeatCredit is the reading time credited per ping, matching the
// client's send interval.
const heartbeatCredit = 30

// sessionWindow separates reading sessions: a ping more than this long
// after the previous one opens a new session row.
const sessionWindow = "30 minutes"

var dayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Heartbeat extends the reader's current session for the chapter, or
// opens a new one when the last ping is outside the session window.
// Pages are tracked as a set so rereading a page adds nothing.
func (r *Repository) Heartbeat(ctx context.Context, userID int, hb Heartbeat) (int, error) {
	var id int
	err := r.db.GetContext(ctx, &id, `
		UPDATE reading_sessions
		SET last_heartbeat = NOW(),
		    duration_seconds = duration_seconds + $1,
		    is_completed = is_completed OR $2,
		    pages_read = CASE WHEN $3 = ANY(pages_read) THEN pages_read
		                      ELSE array_append(pages_read, $3) END
		WHERE id = (
			SELECT id FROM reading_sessions
			WHERE user_id = $4 AND manga_id = $5 AND chapter_number = $6
			  AND last_heartbeat >= NOW() - INTERVAL '`+sessionWindow+`'
			ORDER BY last_heartbeat DESC
			LIMIT 1)
		RETURNING id`,
		heartbeatCredit, hb.IsCompleted, hb.PageNumber, userID, hb.MangaID, hb.ChapterNumber)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	err = r.db.GetContext(ctx, &id, `
		INSERT INTO reading_sessions
			(user_id, manga_id, chapter_number, genre, duration_seconds, pages_read, is_completed)
		VALUES ($1, $2, $3, $4, $5, ARRAY[$6]::INTEGER[], $7)
		RETURNING id`,
		userID, hb.MangaID, hb.ChapterNumber, hb.Genre, heartbeatCredit, hb.PageNumber, hb.IsCompleted)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Overview aggregates the reader's history into dashboard shape:
// lifetime totals, a seven day bar chart, top genres, six months of
// progress and the current daily streak.
func (r *Repository) Overview(ctx context.Context, userID int) (*Overview, error) {
	o := &Overview{
		Weekly:  []DayMinutes{},
		Genres:  []GenreCount{},
		Monthly: []MonthProgress{},
	}

	var totals struct {
		Seconds  int64 `db:"seconds"`
		Chapters int   `db:"chapters"`
		Series   int   `db:"series"`
	}
	err := r.db.GetContext(ctx, &totals, `
		SELECT COALESCE(SUM(duration_seconds), 0) AS seconds,
		       COUNT(*) AS chapters,
		       COUNT(DISTINCT manga_id) AS series
		FROM reading_sessions
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	o.Summary = Summary{
		TotalMinutes:  totals.Seconds / 60,
		TotalChapters: totals.Chapters,
		UniqueSeries:  totals.Series,
	}

	var weekly []struct {
		Dow     int   `db:"dow"`
		Seconds int64 `db:"seconds"`
	}
	err = r.db.SelectContext(ctx, &weekly, `
		SELECT EXTRACT(DOW FROM created_at)::INT AS dow,
		       SUM(duration_seconds) AS seconds
		FROM reading_sessions
		WHERE user_id = $1 AND created_at >= NOW() - INTERVAL '7 days'
		GROUP BY dow
		ORDER BY dow`, userID)
	if err != nil {
		return nil, err
	}
	for _, w := range weekly {
		o.Weekly = append(o.Weekly, DayMinutes{Day: dayNames[w.Dow%7], Minutes: w.Seconds / 60})
	}

	err = r.db.SelectContext(ctx, &o.Genres, `
		SELECT COALESCE(NULLIF(genre, ''), 'Other') AS name, COUNT(*) AS value
		FROM reading_sessions
		WHERE user_id = $1
		GROUP BY 1
		ORDER BY value DESC
		LIMIT 5`, userID)
	if err != nil {
		return nil, err
	}

	var monthly []struct {
		Month    time.Time `db:"month"`
		Seconds  int64     `db:"seconds"`
		Chapters int       `db:"chapters"`
	}
	err = r.db.SelectContext(ctx, &monthly, `
		SELECT DATE_TRUNC('month', created_at) AS month,
		       SUM(duration_seconds) AS seconds,
		       COUNT(*) AS chapters
		FROM reading_sessions
		WHERE user_id = $1 AND created_at >= NOW() - INTERVAL '6 months'
		GROUP BY month
		ORDER BY month`, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range monthly {
		o.Monthly = append(o.Monthly, MonthProgress{
			Name:     m.Month.Format("Jan"),
			Hours:    float64(m.Seconds/36) / 100, // seconds to hours, two decimals
			Chapters: m.Chapters,
		})
	}

	streak, err := r.streak(ctx, userID)
	if err != nil {
		return nil, err
	}
	o.Streak = streak

	return o, nil
}

// streak counts consecutive reading days ending today or yesterday.
func (r *Repository) streak(ctx context.Context, userID int) (int, error) {
	var days []time.Time
	err := r.db.SelectContext(ctx, &days, `
		SELECT DISTINCT created_at::date AS day
		FROM reading_sessions
		WHERE user_id = $1
		ORDER BY day DESC`, userID)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	latest := days[0].UTC().Truncate(24 * time.Hour)
	if today.Sub(latest) > 24*time.Hour {
		return 0, nil
	}

	streak := 1
	for i := 0; i < len(days)-1; i++ {
		current := days[i].UTC().Truncate(24 * time.Hour)
		next := days[i+1].UTC().Truncate(24 * time.Hour)
		if current.Sub(next) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak, nil
}
