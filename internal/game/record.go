package game

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the dd-mm-yyyy form used in titles and records.
const DateLayout = "02-01-2006"

// IdentityKey builds the title of the record for a game. It is also the
// deduplication key, so the format must never change between runs.
func IdentityKey(date time.Time, home, away, competition string) string {
	return fmt.Sprintf("כדורסל:%s %s נגד %s - %s", date.Format(DateLayout), home, away, competition)
}

// SeasonLabel returns the season a game date belongs to, e.g. "2025/26".
// Seasons roll over in August.
func SeasonLabel(date time.Time) string {
	start := date.Year()
	if date.Month() < time.August {
		start--
	}
	return fmt.Sprintf("%d/%02d", start, (start+1)%100)
}

// Header holds the game-level facts scraped from a game page.
type Header struct {
	Round             Round
	Stadium           string
	MainReferee       string
	AssistantReferees []string
	Crowd             string
}

// Assemble resolves home/away captures against the tracked team and builds
// the canonical record. Header.Round overrides the candidate's round when set.
func Assemble(c Candidate, h Header, home, away TeamBox, citation string) Record {
	own, opp := Resolve(c.IsHomeTeam, home, away)

	round := c.Round
	if h.Round.Number > 0 || h.Round.Label != "" {
		round = h.Round
	}

	return Record{
		Date:              c.Date.Format(DateLayout),
		Time:              c.Time,
		Season:            SeasonLabel(c.Date),
		Competition:       c.Competition,
		Round:             round,
		IsHomeTeam:        c.IsHomeTeam,
		Opponent:          c.Opponent,
		Stadium:           h.Stadium,
		OwnScore:          c.OwnScore(),
		OpponentScore:     c.OpponentScore(),
		OwnPeriods:        own.Periods,
		OpponentPeriods:   opp.Periods,
		OwnCoach:          own.Coach,
		OpponentCoach:     opp.Coach,
		MainReferee:       h.MainReferee,
		AssistantReferees: h.AssistantReferees,
		Crowd:             NormalizeCrowd(h.Crowd),
		Citation:          citation,
		OwnPlayers:        own.Players,
		OpponentPlayers:   opp.Players,
	}
}

// NormalizeCrowd strips thousands separators and surrounding space ("10,234" -> "10234").
func NormalizeCrowd(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ",", "")
	return strings.ReplaceAll(raw, ".", "")
}

// SplitReferees splits a comma separated crew into main and assistants,
// dropping blank entries. Names are passed through normalize.
func SplitReferees(raw string, normalize func(string) string) (string, []string) {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if normalize != nil {
			name = normalize(name)
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], names[1:]
}
