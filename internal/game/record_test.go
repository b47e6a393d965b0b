package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKeyIsStableAndSensitive(t *testing.T) {
	date := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)
	key := IdentityKey(date, "מכבי תל אביב", "הפועל ירושלים", "ליגת העל")

	assert.Equal(t, "כדורסל:12-10-2025 מכבי תל אביב נגד הפועל ירושלים - ליגת העל", key)
	assert.Equal(t, key, IdentityKey(date, "מכבי תל אביב", "הפועל ירושלים", "ליגת העל"))

	assert.NotEqual(t, key, IdentityKey(date.AddDate(0, 0, 1), "מכבי תל אביב", "הפועל ירושלים", "ליגת העל"))
	assert.NotEqual(t, key, IdentityKey(date, "מכבי תל אביב", "הפועל חולון", "ליגת העל"))
	assert.NotEqual(t, key, IdentityKey(date, "מכבי תל אביב", "הפועל ירושלים", "גביע המדינה"))
}

func TestSeasonLabel(t *testing.T) {
	assert.Equal(t, "2025/26", SeasonLabel(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025/26", SeasonLabel(time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2099/00", SeasonLabel(time.Date(2099, 9, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRoundString(t *testing.T) {
	assert.Equal(t, "מחזור 7", Round{Number: 7}.String())
	assert.Equal(t, "רבע גמר", Round{Label: "רבע גמר"}.String())
	assert.Equal(t, "", Round{}.String())
}

func TestAssembleSwapsWhenTrackedTeamIsAway(t *testing.T) {
	home := TeamBox{
		Coach:   "HOME-COACH",
		Periods: []Stat{Known(11), Known(12)},
		Players: []PlayerStat{{Name: "HOME-PLAYER"}},
	}
	away := TeamBox{
		Coach:   "AWAY-COACH",
		Periods: []Stat{Known(21), Known(22)},
		Players: []PlayerStat{{Name: "AWAY-PLAYER"}},
	}
	c := Candidate{
		Date:        time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		Time:        "20:30",
		Competition: "יורוליג",
		Round:       Round{Number: 9},
		IsHomeTeam:  false,
		Opponent:    "ריאל מדריד",
		HomeScore:   70,
		AwayScore:   80,
	}

	rec := Assemble(c, Header{Stadium: "WiZink Center"}, home, away, "cite")

	assert.Equal(t, 80, rec.OwnScore)
	assert.Equal(t, 70, rec.OpponentScore)
	assert.Equal(t, "AWAY-COACH", rec.OwnCoach)
	assert.Equal(t, "HOME-COACH", rec.OpponentCoach)
	assert.Equal(t, away.Periods, rec.OwnPeriods)
	assert.Equal(t, home.Periods, rec.OpponentPeriods)
	require.Len(t, rec.OwnPlayers, 1)
	assert.Equal(t, "AWAY-PLAYER", rec.OwnPlayers[0].Name)
	assert.Equal(t, "HOME-PLAYER", rec.OpponentPlayers[0].Name)
	assert.Equal(t, "03-11-2025", rec.Date)
	assert.Equal(t, "2025/26", rec.Season)
	assert.Equal(t, Round{Number: 9}, rec.Round)
}

func TestAssembleKeepsOrderWhenTrackedTeamIsHome(t *testing.T) {
	c := Candidate{IsHomeTeam: true, HomeScore: 90, AwayScore: 85, Date: time.Now()}
	rec := Assemble(c, Header{Round: Round{Label: "גמר"}}, TeamBox{Coach: "H"}, TeamBox{Coach: "A"}, "")

	assert.Equal(t, 90, rec.OwnScore)
	assert.Equal(t, 85, rec.OpponentScore)
	assert.Equal(t, "H", rec.OwnCoach)
	assert.Equal(t, "גמר", rec.Round.String())
}

func TestSplitReferees(t *testing.T) {
	main, assistants := SplitReferees(" A. Ref , B. Ref,, C. Ref ", nil)
	assert.Equal(t, "A. Ref", main)
	assert.Equal(t, []string{"B. Ref", "C. Ref"}, assistants)

	main, assistants = SplitReferees("", nil)
	assert.Empty(t, main)
	assert.Empty(t, assistants)

	main, _ = SplitReferees("x", func(s string) string { return s + "!" })
	assert.Equal(t, "x!", main)
}

func TestNormalizeCrowd(t *testing.T) {
	assert.Equal(t, "10234", NormalizeCrowd(" 10,234 "))
	assert.Equal(t, "", NormalizeCrowd(""))
}

func TestStatString(t *testing.T) {
	assert.Equal(t, "", Stat{}.String())
	assert.Equal(t, "0", Known(0).String())
	assert.Equal(t, 0, Stat{Value: 5}.Int())
}
