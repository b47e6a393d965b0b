// Package extract turns scraped cell text into stats. Parsing is tolerant:
// a bad cell becomes an unrecorded value, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/game"
)

// ErrNotEnoughData marks a page that has fewer rows or columns than the
// extractor needs.
var ErrNotEnoughData = errors.New("not enough data")

// NotEnoughData builds an ErrNotEnoughData with context.
func NotEnoughData(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotEnoughData)
}

var leadingInt = regexp.MustCompile(`^[+-]?\d+`)

// ParseStat reads the leading integer of text, like a lenient atoi.
func ParseStat(text string) game.Stat {
	m := leadingInt.FindString(strings.TrimSpace(text))
	if m == "" {
		return game.Stat{}
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return game.Stat{}
	}
	return game.Known(v)
}

// ParseCount is ParseStat with a 0 default.
func ParseCount(text string) int {
	return ParseStat(text).Int()
}

// ParseSlash parses a "made/attempted" cell. Each side defaults to 0, so
// "5/" is 5/0 and "5" is 5/0; a cell with no number at all is not recorded.
func ParseSlash(text string) game.Shot {
	parts := strings.SplitN(strings.TrimSpace(text), "/", 3)
	made := ParseStat(parts[0])
	var attempted game.Stat
	if len(parts) > 1 {
		attempted = ParseStat(parts[1])
	}
	if !made.Valid && !attempted.Valid {
		return game.Shot{}
	}
	return game.Shot{Made: made.Int(), Attempted: attempted.Int(), Recorded: true}
}

// ParseMinutes reads "mm:ss" (rounded up on any seconds) or plain minutes.
// "00:00" means the player did not play.
func ParseMinutes(text string) (game.Stat, bool) {
	text = strings.TrimSpace(text)
	if text == "00:00" {
		return game.Known(0), true
	}

	mm, ss, found := strings.Cut(text, ":")
	if !found {
		return ParseStat(text), false
	}

	minutes := ParseStat(mm)
	if !minutes.Valid {
		return game.Stat{}, false
	}
	if ParseCount(ss) > 0 {
		minutes.Value++
	}
	return minutes, false
}

// RowScores parses a score row, skipping the leading team label cell.
func RowScores(cells []string) []game.Stat {
	if len(cells) <= 1 {
		return nil
	}
	scores := make([]game.Stat, 0, len(cells)-1)
	for _, cell := range cells[1:] {
		scores = append(scores, ParseStat(cell))
	}
	return scores
}

// PeriodScores is RowScores without a trailing final-score column. The last
// value counts as a total only when more than four values exist and it equals
// the sum of the rest.
func PeriodScores(cells []string) []game.Stat {
	scores := RowScores(cells)
	if len(scores) <= 4 {
		return scores
	}

	last := scores[len(scores)-1]
	if !last.Valid {
		return scores
	}
	sum := 0
	for _, s := range scores[:len(scores)-1] {
		sum += s.Int()
	}
	if sum == last.Value {
		return scores[:len(scores)-1]
	}
	return scores
}

var playerSlug = regexp.MustCompile(`players/([^/]+)/`)

// NameFromSlug turns ".../players/john-doe/..." into "John Doe".
func NameFromSlug(href string) string {
	m := playerSlug.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	words := strings.Split(m[1], "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// CollapseSpace folds runs of whitespace into single spaces and trims.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

