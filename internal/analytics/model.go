package analytics

// Heartbeat is one reader ping while a chapter is open. The client
// sends one roughly every thirty seconds.
type Heartbeat struct {
	MangaID       int
	ChapterNumber int
	PageNumber    int
	Genre         string
	IsCompleted   bool
}

type Summary struct {
	TotalMinutes  int64 `json:"total_minutes"`
	TotalChapters int   `json:"total_chapters"`
	UniqueSeries  int   `json:"unique_series"`
}

type DayMinutes struct {
	Day     string `json:"day"`
	Minutes int64  `json:"minutes"`
}

type GenreCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type MonthProgress struct {
	Name     string  `json:"name"`
	Hours    float64 `json:"hours"`
	Chapters int     `json:"chapters"`
}

// Overview feeds the reader's stats dashboard in one payload.
type Overview struct {
	Summary Summary         `json:"summary"`
	Streak  int             `json:"streak"`
	Weekly  []DayMinutes    `json:"weekly"`
	Genres  []GenreCount    `json:"genres"`
	Monthly []MonthProgress `json:"monthly"`
}
