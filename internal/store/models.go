package store

import "time"

// PublishedRecord is one ledger row: a game record this bot created on the wiki.
type PublishedRecord struct {
	RecordID      int64     `json:"record_id" db:"record_id"`
	Title         string    `json:"title" db:"title"`
	Source        string    `json:"source" db:"source"`
	SourceURL     string    `json:"source_url" db:"source_url"`
	GameDate      string    `json:"game_date" db:"game_date"`
	Season        string    `json:"season" db:"season"`
	Competition   string    `json:"competition" db:"competition"`
	Opponent      string    `json:"opponent" db:"opponent"`
	IsHomeTeam    bool      `json:"is_home_team" db:"is_home_team"`
	OwnScore      int       `json:"own_score" db:"own_score"`
	OpponentScore int       `json:"opponent_score" db:"opponent_score"`
	Body          string    `json:"body,omitempty" db:"body"`
	PublishedAt   time.Time `json:"published_at" db:"published_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CycleReportRow is a persisted per-source cycle summary.
type CycleReportRow struct {
	ReportID   int64     `json:"report_id" db:"report_id"`
	Source     string    `json:"source" db:"source"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	Candidates int       `json:"candidates" db:"candidates"`
	New        int       `json:"new" db:"new_games"`
	Existing   int       `json:"existing" db:"existing"`
	Published  int       `json:"published" db:"published"`
	Failed     []string  `json:"failed,omitempty" db:"failed"`
	Error      string    `json:"error,omitempty" db:"error"`
}
