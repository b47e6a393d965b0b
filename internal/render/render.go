// Package render writes a game.Record as wiki template text. It does no
// home/away logic: the record is already from the tracked team's side.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maccabipedia/basketbot/internal/game"
)

// Period score keys, four quarters then overtimes. Periods beyond the key
// list are not rendered.
var (
	OwnPeriodKeys = []string{
		"רבע ראשון מכבי", "רבע שני מכבי", "רבע שלישי מכבי", "רבע רביעי מכבי",
		"הארכה ראשונה מכבי", "הארכה שנייה מכבי", "הארכה שלישית מכבי",
	}
	OpponentPeriodKeys = []string{
		"רבע ראשון יריבה", "רבע שני יריבה", "רבע שלישי יריבה", "רבע רביעי יריבה",
		"הארכה ראשונה יריבה", "הארכה שנייה יריבה", "הארכה שלישית יריבה",
	}
)

const yes = "כן"

// Game renders the full game template.
func Game(r game.Record) string {
	var b strings.Builder

	b.WriteString("{{משחק כדורסל\n")
	field(&b, "תאריך המשחק", r.Date)
	field(&b, "שעת המשחק", r.Time)
	field(&b, "עונה", r.Season)
	field(&b, "מפעל", r.Competition)
	field(&b, "שלב במפעל", r.Round.String())
	field(&b, "בית חוץ", homeAway(r.IsHomeTeam))
	field(&b, "שם יריבה", r.Opponent)
	field(&b, "אולם", r.Stadium)
	field(&b, "תוצאת משחק מכבי", strconv.Itoa(r.OwnScore))
	field(&b, "תוצאת משחק יריבה", strconv.Itoa(r.OpponentScore))
	b.WriteString(PeriodLines(OwnPeriodKeys, r.OwnPeriods))
	b.WriteString(PeriodLines(OpponentPeriodKeys, r.OpponentPeriods))
	b.WriteString("\n")
	field(&b, "מאמן מכבי", r.OwnCoach)
	field(&b, "מאמן יריבה", r.OpponentCoach)
	field(&b, "שופט ראשי", r.MainReferee)
	field(&b, "עוזרי שופט", strings.Join(r.AssistantReferees, ", "))
	field(&b, "כמות קהל", r.Crowd)
	for _, key := range []string{"גוף שידור", "תקציר וידאו", "תקציר וידאו2", "משחק מלא", "משחק מלא2", "וידאו אוהדים", "וידאו אוהדים2"} {
		field(&b, key, "")
	}
	field(&b, "כתבה1", r.Citation)
	for _, key := range []string{"משחק קודם בסדרה", "משחק הבא בסדרה", "תוצאה בטכני", "משחק זכיה", "סיכום משחק"} {
		field(&b, key, "")
	}
	b.WriteString("\n\n")
	field(&b, "שחקנים מכבי", Players(r.OwnPlayers))
	b.WriteString("\n")
	field(&b, "שחקנים יריבה", Players(r.OpponentPlayers))
	b.WriteString("}}")

	return b.String()
}

// PeriodLines writes one "|key=value" line per recorded period.
func PeriodLines(keys []string, periods []game.Stat) string {
	var b strings.Builder
	for i, key := range keys {
		if i >= len(periods) || !periods[i].Valid {
			continue
		}
		field(&b, key, periods[i].String())
	}
	return b.String()
}

// Players renders entries in table order, one per line, comma separated.
func Players(players []game.PlayerStat) string {
	if len(players) == 0 {
		return ""
	}
	entries := make([]string, len(players))
	for i, p := range players {
		entries[i] = Player(p)
	}
	return strings.Join(entries, ",\n")
}

// Player renders a single box-score line.
func Player(p game.PlayerStat) string {
	fields := []string{
		"שם=" + p.Name,
		"מספר=" + p.Number.String(),
		"דקות=" + p.Minutes.String(),
		"חמישייה=" + flag(p.Starter),
		"נק=" + nonZero(Points(p)),
		"זריקות עונשין=" + attempted(p.FreeThrows),
		"קליעות עונשין=" + made(p.FreeThrows),
		"זריקות שתי נק=" + attempted(p.FieldGoals),
		"קליעות שתי נק=" + made(p.FieldGoals),
		"זריקות שלוש נק=" + attempted(p.ThreePointers),
		"קליעות שלוש נק=" + made(p.ThreePointers),
		"ריבאונד הגנה=" + p.DefensiveRebounds.String(),
		"ריבאונד התקפה=" + p.OffensiveRebounds.String(),
		"פאולים=" + p.Fouls.String(),
		"חטיפות=" + p.Steals.String(),
		"איבודים=" + p.Turnovers.String(),
		"אסיסטים=" + p.Assists.String(),
		"בלוקים=" + p.Blocks.String(),
	}
	if p.DidNotPlay {
		fields = append(fields, "לא שיחק="+yes)
	}
	return "{{אירועי שחקן סל |" + strings.Join(fields, " |") + "}}"
}

// Points prefers the scraped total and otherwise derives it from made shots.
func Points(p game.PlayerStat) int {
	if p.Points.Valid {
		return p.Points.Value
	}
	total := 0
	if p.FieldGoals.Recorded {
		total += p.FieldGoals.Made * 2
	}
	if p.ThreePointers.Recorded {
		total += p.ThreePointers.Made * 3
	}
	if p.FreeThrows.Recorded {
		total += p.FreeThrows.Made
	}
	return total
}

func field(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "|%s=%s\n", key, value)
}

func homeAway(isHome bool) string {
	if isHome {
		return "בית"
	}
	return "חוץ"
}

func flag(v bool) string {
	if v {
		return yes
	}
	return ""
}

func nonZero(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func made(s game.Shot) string {
	if !s.Recorded {
		return ""
	}
	return strconv.Itoa(s.Made)
}

func attempted(s game.Shot) string {
	if !s.Recorded {
		return ""
	}
	return strconv.Itoa(s.Attempted)
}
