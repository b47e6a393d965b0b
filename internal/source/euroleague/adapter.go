// Package euroleague reads the tracked team's games from the EuroLeague site.
package euroleague

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/maccabipedia/basketbot/internal/discovery"
	"github.com/maccabipedia/basketbot/internal/extract"
	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/names"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/source"
)

const (
	Name = "euroleague"

	BaseURL           = "https://www.euroleaguebasketball.net/"
	DefaultResultsURL = "https://www.euroleaguebasketball.net/en/euroleague/teams/maccabi-rapyd-tel-aviv/games/tel/"

	// CompetitionCode is the names table key of the competition label.
	CompetitionCode = "euroleague"

	resultsSelector = `section[class*="team-results_section"]`
	scoreSelector   = `table.shadow-regular`
)

// Adapter implements source.Adapter for the EuroLeague game center.
type Adapter struct {
	pages      source.DocumentFetcher
	names      *names.Normalizer
	loc        *time.Location
	resultsURL string
	logger     *logging.Logger
}

// New builds the adapter. Kick-off times are converted to loc.
func New(pages source.DocumentFetcher, n *names.Normalizer, loc *time.Location, logger *logging.Logger) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{
		pages:      pages,
		names:      n,
		loc:        loc,
		resultsURL: DefaultResultsURL,
		logger:     logger.Component("euroleague"),
	}
}

// WithResultsURL points discovery at another team's results page.
func (a *Adapter) WithResultsURL(u string) *Adapter {
	a.resultsURL = u
	return a
}

func (a *Adapter) Name() string { return Name }

// Discover reads the results list of the team page.
func (a *Adapter) Discover(ctx context.Context, trackedTeam string, maxCount int) ([]game.Candidate, error) {
	doc, err := a.pages.FetchDocument(ctx, a.resultsURL, resultsSelector)
	if err != nil {
		return nil, source.Unavailable(err, "fetch euroleague results")
	}

	entries, err := ParseResults(doc, a.loc)
	if err != nil {
		return nil, source.Unavailable(err, "parse euroleague results")
	}
	a.logger.Info("got results list, starting to parse games", "entries", len(entries))

	candidates := discovery.Select(entries, discovery.Options{
		Source:      Name,
		TrackedTeam: trackedTeam,
		MaxCount:    maxCount,
		Names:       a.names,
		Competition: a.names.Competition(CompetitionCode),
	})
	source.LogNameMisses(a.logger, a.names, candidates)

	return candidates, nil
}

// ParseResults extracts listing entries from the results section.
func ParseResults(doc *goquery.Document, loc *time.Location) ([]discovery.Entry, error) {
	results := resultsBlock(doc)
	if results == nil {
		return nil, errors.New("results div not found on the page")
	}

	var entries []discovery.Entry
	results.Find("article").Each(func(_ int, article *goquery.Selection) {
		href, ok := article.ChildrenFiltered("a").First().Attr("href")
		if !ok {
			return
		}

		teams := article.Find(`span.hidden.font-bold[class*="xl:block"]`)
		entry := discovery.Entry{
			SourceURL:   resolve(href),
			HomeTeamRaw: strings.TrimSpace(teams.Eq(0).Text()),
			AwayTeamRaw: strings.TrimSpace(teams.Eq(1).Text()),
			Round:       parseRound(article),
		}

		if stamp, ok := article.Find("time").First().Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, stamp); err == nil {
				local := t.In(loc)
				entry.Date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
				entry.Time = local.Format("15:04")
			}
		}

		score := article.Find(`div.grid.grid-cols-2.font-bold[class*="border-green-500"]`).First().ChildrenFiltered("span")
		if score.Length() > 1 {
			entry.HomeScore = strings.TrimSpace(score.Eq(0).Text())
			entry.AwayScore = strings.TrimSpace(score.Eq(1).Text())
		}

		entries = append(entries, entry)
	})

	return entries, nil
}

func resultsBlock(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(resultsSelector).EachWithBreak(func(_ int, section *goquery.Selection) bool {
		section.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
			h2 := div.Find("h2").First()
			if h2.Length() > 0 && strings.EqualFold(strings.TrimSpace(h2.Text()), "results") {
				found = div
				return false
			}
			return true
		})
		return found == nil
	})
	return found
}

func parseRound(article *goquery.Selection) game.Round {
	var round game.Round
	article.Find("div.text-xs.text-gray-400").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		_, after, found := strings.Cut(div.Text(), "Round")
		if !found {
			return true
		}
		after = strings.TrimSpace(after)
		if n, err := strconv.Atoi(after); err == nil && n > 0 {
			round = game.Round{Number: n}
		} else {
			round = game.Round{Label: after}
		}
		return false
	})
	return round
}

func resolve(href string) string {
	base, _ := url.Parse(BaseURL)
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return BaseURL + strings.TrimPrefix(href, "/")
	}
	return base.ResolveReference(ref).String()
}

// Scrape loads the game center twice, once for the summary and once on the
// box-score tab, and builds the record.
func (a *Adapter) Scrape(ctx context.Context, c game.Candidate) (game.Record, error) {
	summary, err := a.pages.FetchDocument(ctx, c.SourceURL, scoreSelector)
	if err != nil {
		return game.Record{}, err
	}
	box, err := a.pages.FetchDocument(ctx, c.SourceURL+"#box-score", "table")
	if err != nil {
		return game.Record{}, err
	}
	return ParseGame(summary, box, c, a.names)
}

// Citation is the reference line pointing back at the game center.
func Citation(u string) string {
	return fmt.Sprintf("[%s עמוד המשחק באתר היורוליג]", u)
}

// ParseGame extracts a record from the game center summary and box-score documents.
func ParseGame(summary, box *goquery.Document, c game.Candidate, n *names.Normalizer) (game.Record, error) {
	homePeriods, awayPeriods, err := parseScores(summary)
	if err != nil {
		return game.Record{}, err
	}

	header, err := parseMatchInfo(summary, n)
	if err != nil {
		return game.Record{}, err
	}

	home, away, err := parseBoxScore(box, n)
	if err != nil {
		return game.Record{}, err
	}
	home.Periods = homePeriods
	away.Periods = awayPeriods

	return game.Assemble(c, header, home, away, Citation(c.SourceURL)), nil
}

func parseScores(doc *goquery.Document) ([]game.Stat, []game.Stat, error) {
	table := doc.Find(scoreSelector).First()
	if table.Length() == 0 {
		return nil, nil, source.MissingSection("no score table to scrape data from")
	}
	rows := table.Find("tbody tr")
	if rows.Length() < 2 {
		return nil, nil, extract.NotEnoughData("score table has %d rows, need 2", rows.Length())
	}
	return extract.PeriodScores(cellTexts(rows.Eq(0))), extract.PeriodScores(cellTexts(rows.Eq(1))), nil
}

func cellTexts(row *goquery.Selection) []string {
	return row.Find("td").Map(func(_ int, td *goquery.Selection) string {
		return strings.TrimSpace(td.Text())
	})
}

func parseMatchInfo(doc *goquery.Document, n *names.Normalizer) (game.Header, error) {
	var h game.Header

	heading := doc.Find("h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), "Match Information")
	}).First()
	if heading.Length() == 0 {
		return h, source.MissingSection("cannot scrape match info data")
	}

	var values []string
	for sib := heading.Next(); sib.Length() > 0 && len(values) < 3; sib = sib.Next() {
		values = append(values, strings.TrimSpace(sib.Find("div.text-base.font-medium").First().Text()))
	}

	var stadium, crowd, referees string
	switch len(values) {
	case 0:
	case 1:
		stadium = values[0]
	case 2:
		stadium, referees = values[0], values[1]
	default:
		stadium, crowd, referees = values[0], values[1], values[2]
	}

	h.Stadium = n.Stadium(stadium)
	h.Crowd = crowd
	h.MainReferee, h.AssistantReferees = game.SplitReferees(referees, n.Person)
	return h, nil
}

func parseBoxScore(doc *goquery.Document, n *names.Normalizer) (game.TeamBox, game.TeamBox, error) {
	root := doc.Find(`div[class*="w-game-center-content"]`).First()
	if root.Length() == 0 {
		return game.TeamBox{}, game.TeamBox{}, source.MissingSection("game center root not found")
	}

	homeContainer := root.Find("div.relative.block").First()
	awayContainer := root.Find("div.hidden.relative").First()
	if homeContainer.Length() == 0 || awayContainer.Length() == 0 {
		return game.TeamBox{}, game.TeamBox{}, source.MissingSection("home or away container not found")
	}

	return parseTeam(homeContainer, n), parseTeam(awayContainer, n), nil
}

func parseTeam(container *goquery.Selection, n *names.Normalizer) game.TeamBox {
	coach := strings.TrimSpace(container.Find("div.border-b.border-gray div.text-secondary.font-normal div.flex.gap-1 span").First().Text())
	return game.TeamBox{
		Coach:   n.Person(coach),
		Players: parsePlayers(container, n),
	}
}

// validRows drops the two trailing totals rows.
func validRows(table *goquery.Selection) []*goquery.Selection {
	rows := table.Find("tbody tr")
	var out []*goquery.Selection
	for i := 0; i < rows.Length()-2; i++ {
		out = append(out, rows.Eq(i))
	}
	return out
}

func parsePlayers(container *goquery.Selection, n *names.Normalizer) []game.PlayerStat {
	identity := container.Find("table").First()
	if identity.Find("tbody tr").Length() < 3 {
		return nil
	}

	var players []game.PlayerStat
	for _, row := range validRows(identity) {
		info := row.Find("div.flex.w-full.gap-1").First()
		if info.Length() == 0 {
			continue
		}

		p := game.PlayerStat{
			Number: extract.ParseStat(info.ChildrenFiltered("span").First().Text()),
		}
		if href, ok := info.Find("a").First().Attr("href"); ok {
			p.Name = n.Person(extract.NameFromSlug(href))
		}
		info.Find("a span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.TrimSpace(s.Text()) == "*" {
				p.Starter = true
				return false
			}
			return true
		})
		players = append(players, p)
	}

	wrapper := container.Find("div.grid.border-b.border-gray div.flex.w-full.overflow-x-auto").First()
	if wrapper.Length() == 0 {
		return players
	}
	tables := wrapper.ChildrenFiltered("div").Find("table")

	// Stat tables are aligned with the identity table by row index.
	apply := func(table int, minCells int, fill func(p *game.PlayerStat, cells *goquery.Selection)) {
		if table >= tables.Length() {
			return
		}
		for i, row := range validRows(tables.Eq(table)) {
			cells := row.Find("td")
			if i >= len(players) || cells.Length() < minCells {
				continue
			}
			fill(&players[i], cells)
		}
	}
	text := func(cells *goquery.Selection, i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	apply(0, 2, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.Minutes, p.DidNotPlay = extract.ParseMinutes(text(cells, 0))
		p.Points = extract.ParseStat(text(cells, 1))
	})
	apply(1, 1, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.FieldGoals = extract.ParseSlash(text(cells, 0))
	})
	apply(2, 1, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.ThreePointers = extract.ParseSlash(text(cells, 0))
	})
	apply(3, 1, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.FreeThrows = extract.ParseSlash(text(cells, 0))
	})
	apply(4, 2, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.OffensiveRebounds = extract.ParseStat(text(cells, 0))
		p.DefensiveRebounds = extract.ParseStat(text(cells, 1))
	})
	apply(5, 3, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.Assists = extract.ParseStat(text(cells, 0))
		p.Steals = extract.ParseStat(text(cells, 1))
		p.Turnovers = extract.ParseStat(text(cells, 2))
	})
	apply(6, 1, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.Blocks = extract.ParseStat(text(cells, 0))
	})
	apply(7, 1, func(p *game.PlayerStat, cells *goquery.Selection) {
		p.Fouls = extract.ParseStat(text(cells, 0))
	})

	return players
}
