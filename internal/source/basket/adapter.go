// Package basket reads games from the Israeli league site basket.co.il.
package basket

import (
	"context"
	"fmt"
	"regexp"
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
	Name = "basket"

	DefaultFeedURL = "https://basket.co.il/pbp/json/games_all.json"
	GamePageURL    = "https://basket.co.il/game-zone.asp?GameId=%s"

	headerSelector = "#wrap_inner_3"
	minPlayerCells = 21
)

// Listing is the games_all.json payload.
type Listing []struct {
	Games []FeedGame `json:"games"`
}

// FeedGame is one game in the listing.
type FeedGame struct {
	ID        source.FlexString `json:"id"`
	HomeTeam  string            `json:"team_name_eng_1"`
	AwayTeam  string            `json:"team_name_eng_2"`
	HomeScore source.FlexString `json:"score_team1"`
	AwayScore source.FlexString `json:"score_team2"`
	Date      string            `json:"game_date_txt"`
	Time      string            `json:"game_time"`
	GameType  source.FlexString `json:"game_type"`
}

// Adapter implements source.Adapter for basket.co.il.
type Adapter struct {
	feed    source.JSONFetcher
	pages   source.DocumentFetcher
	names   *names.Normalizer
	loc     *time.Location
	feedURL string
	logger  *logging.Logger
}

// New builds the adapter. loc is the zone listing dates are read in.
func New(feed source.JSONFetcher, pages source.DocumentFetcher, n *names.Normalizer, loc *time.Location, logger *logging.Logger) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{
		feed:    feed,
		pages:   pages,
		names:   n,
		loc:     loc,
		feedURL: DefaultFeedURL,
		logger:  logger.Component("basket"),
	}
}

// WithFeedURL overrides the listing location.
func (a *Adapter) WithFeedURL(url string) *Adapter {
	a.feedURL = url
	return a
}

func (a *Adapter) Name() string { return Name }

// Discover fetches the league listing and selects the tracked team's games.
func (a *Adapter) Discover(ctx context.Context, trackedTeam string, maxCount int) ([]game.Candidate, error) {
	var listing Listing
	if err := a.feed.FetchJSON(ctx, a.feedURL, &listing); err != nil {
		return nil, source.Unavailable(err, "fetch basket listing")
	}
	if len(listing) == 0 {
		return nil, source.Unavailable(errors.New("empty payload"), "decode basket listing")
	}
	a.logger.Info("fetched last games data", "games", len(listing[0].Games))

	entries := make([]discovery.Entry, 0, len(listing[0].Games))
	for _, g := range listing[0].Games {
		date, err := discovery.ParseDate(g.Date, a.loc)
		if err != nil {
			a.logger.Debug("skipping listing entry without a date", "id", g.ID.String(), "date", g.Date)
			continue
		}
		entries = append(entries, discovery.Entry{
			SourceURL:       fmt.Sprintf(GamePageURL, g.ID),
			Date:            date,
			Time:            strings.TrimSpace(g.Time),
			HomeTeamRaw:     g.HomeTeam,
			AwayTeamRaw:     g.AwayTeam,
			HomeScore:       g.HomeScore.String(),
			AwayScore:       g.AwayScore.String(),
			CompetitionCode: g.GameType.String(),
		})
	}

	candidates := discovery.Select(entries, discovery.Options{
		Source:      Name,
		TrackedTeam: trackedTeam,
		MaxCount:    maxCount,
		Names:       a.names,
	})
	a.logger.Info("found games with results", "count", len(candidates))
	source.LogNameMisses(a.logger, a.names, candidates)

	return candidates, nil
}

// Scrape loads the game-zone page of c and builds its record.
func (a *Adapter) Scrape(ctx context.Context, c game.Candidate) (game.Record, error) {
	doc, err := a.pages.FetchDocument(ctx, c.SourceURL, headerSelector)
	if err != nil {
		return game.Record{}, err
	}
	return ParseGame(doc, c, a.names)
}

// Citation is the reference line pointing back at the game page.
func Citation(url string) string {
	return fmt.Sprintf("[%s עמוד המשחק באתר מנהלת ליגת העל בכדורסל]", url)
}

// ParseGame extracts a record from a rendered game-zone page.
func ParseGame(doc *goquery.Document, c game.Candidate, n *names.Normalizer) (game.Record, error) {
	header, err := parseHeader(doc, n)
	if err != nil {
		return game.Record{}, err
	}

	homePeriods, awayPeriods, err := parseScores(doc)
	if err != nil {
		return game.Record{}, err
	}

	home := game.TeamBox{Periods: homePeriods}
	away := game.TeamBox{Periods: awayPeriods}

	// The page omits box scores for some games; the record is still useful.
	tables := doc.Find("table.stats_tbl")
	if tables.Length() >= 4 {
		home.Coach, home.Players = parseTeamTable(tables.Eq(2), n)
		away.Coach, away.Players = parseTeamTable(tables.Eq(3), n)
	}

	return game.Assemble(c, header, home, away, Citation(c.SourceURL)), nil
}

var roundNumber = regexp.MustCompile(`מחזור\s*(\d+)`)

func parseHeader(doc *goquery.Document, n *names.Normalizer) (game.Header, error) {
	var h game.Header

	container := doc.Find(headerSelector).First()
	if container.Length() == 0 {
		return h, source.MissingSection("no header to scrape data from")
	}

	if img := container.Find("h4 img").First(); img.Length() > 0 {
		label := strings.TrimSpace(strings.Replace(nextSiblingText(img), "סל", "", 1))
		h.Round = parseRound(label)
	}

	h5 := container.Find("h5").First()
	if h5.Length() > 0 {
		stadium, _, _ := strings.Cut(h5.Text(), ",")
		h.Stadium = n.Stadium(strings.TrimSpace(stadium))

		if _, crowd, found := strings.Cut(h5.Find("div.link-1").First().Text(), "צופים:"); found {
			h.Crowd = strings.TrimSpace(crowd)
		}
	}

	if h6 := container.Find("h6").First(); h6.Length() > 0 {
		text := extract.CollapseSpace(h6.Text())
		if _, refs, found := strings.Cut(text, "שופטים:"); found {
			refs, _, _ = strings.Cut(refs, "משקיף:")
			h.MainReferee, h.AssistantReferees = game.SplitReferees(refs, n.Person)
		}
	}

	return h, nil
}

func parseRound(label string) game.Round {
	if m := roundNumber.FindStringSubmatch(label); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return game.Round{Number: v}
		}
	}
	return game.Round{Label: label}
}

func nextSiblingText(sel *goquery.Selection) string {
	node := sel.Nodes[0].NextSibling
	if node == nil {
		return ""
	}
	return goquery.NewDocumentFromNode(node).Text()
}

func parseScores(doc *goquery.Document) ([]game.Stat, []game.Stat, error) {
	table := doc.Find("table.stats_tbl.categories").First()
	if table.Length() == 0 {
		return nil, nil, source.MissingSection("no score table to scrape data from")
	}

	rows := table.Find("tr")
	if rows.Length() < 3 {
		return nil, nil, extract.NotEnoughData("score table has %d rows, need 3", rows.Length())
	}

	return extract.PeriodScores(cellTexts(rows.Eq(1))), extract.PeriodScores(cellTexts(rows.Eq(2))), nil
}

func cellTexts(row *goquery.Selection) []string {
	return row.Find("td").Map(func(_ int, td *goquery.Selection) string {
		return strings.TrimSpace(td.Text())
	})
}

func parseTeamTable(table *goquery.Selection, n *names.Normalizer) (string, []game.PlayerStat) {
	var coach string
	if link := table.Find("tr td a").Eq(1); link.Length() > 0 {
		if _, name, found := strings.Cut(link.Text(), ":"); found {
			coach = n.Person(strings.TrimSpace(name))
		}
	}

	rows := table.Find("tr")
	start, seen := -1, 0
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if row.HasClass("row") {
			seen++
			if seen == 2 {
				start = i
				return false
			}
		}
		return true
	})
	if start == -1 {
		return coach, nil
	}

	var players []game.PlayerStat
	for i := start; i < rows.Length()-1; i++ {
		cells := rows.Eq(i).Find("td")
		if cells.Length() < minPlayerCells {
			continue
		}
		players = append(players, parsePlayerRow(cells, n))
	}
	return coach, players
}

func parsePlayerRow(cells *goquery.Selection, n *names.Normalizer) game.PlayerStat {
	text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

	return game.PlayerStat{
		Number:            extract.ParseStat(cells.Eq(0).Find("a").Text()),
		Name:              n.Person(strings.TrimSpace(cells.Eq(1).Find("a").Text())),
		Starter:           text(2) != "",
		Minutes:           extract.ParseStat(text(3)),
		Points:            extract.ParseStat(text(4)),
		FieldGoals:        extract.ParseSlash(text(5)),
		ThreePointers:     extract.ParseSlash(text(7)),
		FreeThrows:        extract.ParseSlash(text(9)),
		DefensiveRebounds: extract.ParseStat(text(11)),
		OffensiveRebounds: extract.ParseStat(text(12)),
		Fouls:             extract.ParseStat(text(14)),
		Steals:            extract.ParseStat(text(16)),
		Turnovers:         extract.ParseStat(text(17)),
		Assists:           extract.ParseStat(text(18)),
		Blocks:            extract.ParseStat(text(19)),
	}
}
