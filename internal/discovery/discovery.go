// Package discovery picks the tracked team's completed games out of a
// source's listing and gives each one its identity key.
package discovery

import (
	"sort"
	"strings"
	"time"

	"github.com/maccabipedia/basketbot/internal/extract"
	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/names"
)

// Entry is one row of a source listing, with names as the source spells them.
type Entry struct {
	SourceURL       string
	Date            time.Time
	Time            string
	HomeTeamRaw     string
	AwayTeamRaw     string
	HomeScore       string
	AwayScore       string
	CompetitionCode string
	Round           game.Round
}

// Options controls selection.
type Options struct {
	Source      string
	TrackedTeam string // canonical name
	MaxCount    int
	Names       *names.Normalizer
	// Competition is used when the entry carries no competition code.
	Competition string
}

// Select returns at most MaxCount scored games of the tracked team, newest
// first. Entries with the same date keep their listing order.
func Select(entries []Entry, opts Options) []game.Candidate {
	if opts.MaxCount <= 0 {
		return nil
	}

	var candidates []game.Candidate
	for _, e := range entries {
		home := opts.Names.Team(strings.TrimSpace(e.HomeTeamRaw))
		away := opts.Names.Team(strings.TrimSpace(e.AwayTeamRaw))

		isHome := home == opts.TrackedTeam
		if !isHome && away != opts.TrackedTeam {
			continue
		}

		homeScore, ok := score(e.HomeScore)
		if !ok {
			continue
		}
		awayScore, ok := score(e.AwayScore)
		if !ok {
			continue
		}

		competition := opts.Competition
		if e.CompetitionCode != "" {
			competition = opts.Names.Competition(e.CompetitionCode)
		}

		opponent, opponentRaw := away, e.AwayTeamRaw
		if !isHome {
			opponent, opponentRaw = home, e.HomeTeamRaw
		}

		candidates = append(candidates, game.Candidate{
			Source:      opts.Source,
			SourceURL:   e.SourceURL,
			IdentityKey: game.IdentityKey(e.Date, home, away, competition),
			Date:        e.Date,
			Time:        e.Time,
			Competition: competition,
			Round:       e.Round,
			IsHomeTeam:  isHome,
			Opponent:    opponent,
			OpponentRaw: opponentRaw,
			HomeScore:   homeScore,
			AwayScore:   awayScore,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date.After(candidates[j].Date)
	})

	if len(candidates) > opts.MaxCount {
		candidates = candidates[:opts.MaxCount]
	}
	return candidates
}

// A game counts as played once both sides have a score. 0 is a score
// (forfeits); null or empty is not.
func score(raw string) (int, bool) {
	s := extract.ParseStat(raw)
	if !s.Valid || s.Value < 0 {
		return 0, false
	}
	return s.Value, true
}

// ParseDate reads a dd/mm/yyyy listing date in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("02/01/2006", strings.TrimSpace(raw), loc)
}
