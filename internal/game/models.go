package game

import (
	"fmt"
	"strconv"
	"time"
)

// Stat is an optional integer cell. The zero value means "not recorded".
type Stat struct {
	Value int
	Valid bool
}

// Known wraps a parsed value.
func Known(v int) Stat {
	return Stat{Value: v, Valid: true}
}

// Int returns the value, or 0 when not recorded.
func (s Stat) Int() int {
	if !s.Valid {
		return 0
	}
	return s.Value
}

// String renders "" for unrecorded cells.
func (s Stat) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.Itoa(s.Value)
}

// Shot is a made/attempted pair parsed from a "made/attempted" cell.
type Shot struct {
	Made      int
	Attempted int
	Recorded  bool
}

// PlayerStat is one box-score line.
type PlayerStat struct {
	Name              string
	Number            Stat
	Minutes           Stat
	Points            Stat
	FieldGoals        Shot
	ThreePointers     Shot
	FreeThrows        Shot
	OffensiveRebounds Stat
	DefensiveRebounds Stat
	Fouls             Stat
	Steals            Stat
	Turnovers         Stat
	Assists           Stat
	Blocks            Stat
	Starter           bool
	DidNotPlay        bool
}

// TeamBox is one side of a scraped game, before own/opponent resolution.
type TeamBox struct {
	Coach   string
	Periods []Stat
	Players []PlayerStat
}

// Round is the fixture within a competition. Number wins over Label when set.
type Round struct {
	Number int
	Label  string
}

func (r Round) String() string {
	if r.Number > 0 {
		return fmt.Sprintf("מחזור %d", r.Number)
	}
	return r.Label
}

// Candidate is a completed game of the tracked team found in a source listing.
type Candidate struct {
	Source      string
	SourceURL   string
	IdentityKey string
	Date        time.Time
	Time        string
	Competition string
	Round       Round
	IsHomeTeam  bool
	Opponent    string // canonical
	OpponentRaw string
	HomeScore   int
	AwayScore   int
}

// OwnScore returns the tracked team's final score.
func (c Candidate) OwnScore() int {
	own, _ := Resolve(c.IsHomeTeam, c.HomeScore, c.AwayScore)
	return own
}

// OpponentScore returns the opponent's final score.
func (c Candidate) OpponentScore() int {
	_, opp := Resolve(c.IsHomeTeam, c.HomeScore, c.AwayScore)
	return opp
}

// ExistenceIndex reports whether a record titled identityKey already exists.
type ExistenceIndex func(identityKey string) bool

// Record is the canonical description of one game, already resolved to the
// tracked team's point of view.
type Record struct {
	Date              string
	Time              string
	Season            string
	Competition       string
	Round             Round
	IsHomeTeam        bool
	Opponent          string
	Stadium           string
	OwnScore          int
	OpponentScore     int
	OwnPeriods        []Stat
	OpponentPeriods   []Stat
	OwnCoach          string
	OpponentCoach     string
	MainReferee       string
	AssistantReferees []string
	Crowd             string
	Citation          string
	OwnPlayers        []PlayerStat
	OpponentPlayers   []PlayerStat
}

// Resolve orders a (home, away) pair as (own, opponent).
func Resolve[T any](isHome bool, home, away T) (T, T) {
	if isHome {
		return home, away
	}
	return away, home
}
