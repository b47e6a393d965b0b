package basket

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maccabipedia/basketbot/internal/extract"
	"github.com/maccabipedia/basketbot/internal/game"
	"github.com/maccabipedia/basketbot/internal/names"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
	"github.com/maccabipedia/basketbot/internal/source"
)

type fakeFeed struct {
	payload string
	err     error
}

func (f fakeFeed) FetchJSON(_ context.Context, _ string, v interface{}) error {
	if f.err != nil {
		return f.err
	}
	return sonic.Unmarshal([]byte(f.payload), v)
}

type fakePages struct {
	html string
	urls []string
}

func (f *fakePages) FetchDocument(_ context.Context, url, _ string) (*goquery.Document, error) {
	f.urls = append(f.urls, url)
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

const listingJSON = `[{"games":[
 {"id":25001,"team_name_eng_1":"Maccabi Tel-Aviv","team_name_eng_2":"Hapoel Holon","score_team1":"90","score_team2":"80","game_date_txt":"01/10/2025","game_time":"20:30","game_type":"1"},
 {"id":"25002","team_name_eng_1":"Hapoel Jerusalem","team_name_eng_2":"Maccabi Tel-Aviv","score_team1":70,"score_team2":80,"game_date_txt":"08/10/2025","game_time":"21:05","game_type":1},
 {"id":"25003","team_name_eng_1":"Maccabi Tel-Aviv","team_name_eng_2":"Ness Ziona","score_team1":null,"score_team2":"","game_date_txt":"15/10/2025","game_time":"19:00","game_type":"1"},
 {"id":"25004","team_name_eng_1":"Hapoel Holon","team_name_eng_2":"Hapoel Haemek","score_team1":"81","score_team2":"77","game_date_txt":"08/10/2025","game_time":"19:00","game_type":"1"}
]}]`

func newAdapter(feed source.JSONFetcher, pages source.DocumentFetcher) *Adapter {
	return New(feed, pages, names.New(), time.UTC, logging.NewNop())
}

func TestDiscover(t *testing.T) {
	a := newAdapter(fakeFeed{payload: listingJSON}, &fakePages{})

	got, err := a.Discover(context.Background(), "מכבי תל אביב", 5)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://basket.co.il/game-zone.asp?GameId=25002", got[0].SourceURL)
	assert.Equal(t, "כדורסל:08-10-2025 הפועל ירושלים נגד מכבי תל אביב - ליגת העל", got[0].IdentityKey)
	assert.Equal(t, "21:05", got[0].Time)
	assert.False(t, got[0].IsHomeTeam)
	assert.Equal(t, 80, got[0].OwnScore())
	assert.Equal(t, "https://basket.co.il/game-zone.asp?GameId=25001", got[1].SourceURL)
	assert.True(t, got[1].IsHomeTeam)
}

func TestDiscoverUnavailable(t *testing.T) {
	_, err := newAdapter(fakeFeed{err: errors.New("dial tcp: timeout")}, &fakePages{}).Discover(context.Background(), "מכבי תל אביב", 5)
	assert.True(t, errors.Is(err, source.ErrSourceUnavailable))

	_, err = newAdapter(fakeFeed{payload: `[]`}, &fakePages{}).Discover(context.Background(), "מכבי תל אביב", 5)
	assert.True(t, errors.Is(err, source.ErrSourceUnavailable))
}

func playerRow(class string, cells ...string) string {
	for len(cells) < 21 {
		cells = append(cells, "")
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<tr class="%s">`, class)
	for _, c := range cells {
		fmt.Fprintf(&b, "<td>%s</td>", c)
	}
	b.WriteString("</tr>")
	return b.String()
}

func teamTable(coach string, rows ...string) string {
	return `<table class="stats_tbl"><tr><td><a>קבוצה</a></td><td><a>מאמן: ` + coach + `</a></td></tr>` +
		`<tr class="row"><td>#</td><td>שם</td></tr>` +
		strings.Join(rows, "") +
		playerRow("total", "", "סה\"כ", "", "200", "80", "30/60") +
		`</table>`
}

func gamePage() string {
	home := teamTable("Home Coach",
		playerRow("row", "<a>5</a>", "<a>שחקן בית</a>", "*", "30", "12", "4/8", "", "1/3", "", "1/2", "", "5", "1", "", "3", "", "2", "1", "4", "0"),
	)
	away := teamTable("ODED KATTASH",
		playerRow("row", "<a>9</a>", "<a>Roman Sorkin</a>", "*", "25", "", "10/15", "", "", "", "", "", "6", "2", "", "2", "", "1", "3", "5", "2"),
		playerRow("", "<a>1</a>", "<a>שחקן ספסל</a>", "", "12", "2", "1/2"),
		`<tr><td>2</td><td>short</td></tr>`,
	)

	return `<html><body>
<div id="wrap_inner_3">
  <h4><img src="logo.png"> מחזור 3 סל </h4>
  <h5>Menora Mivtachim Arena, תל אביב <div class="link-1">צופים: 10,234</div></h5>
  <h6>שופטים:   Luigi Lamonica,  Sasa Pukl , ,  Unknown Ref   משקיף: Someone</h6>
</div>
<table class="stats_tbl categories">
  <tr><td></td><td>1</td><td>2</td><td>3</td><td>4</td><td>T</td></tr>
  <tr><td>Hapoel Jerusalem</td><td>20</td><td>15</td><td>20</td><td>15</td><td>70</td></tr>
  <tr><td>Maccabi</td><td>22</td><td>18</td><td>20</td><td>20</td><td>80</td></tr>
</table>
<table class="stats_tbl"><tr><td>leaders</td></tr></table>
` + home + away + `
</body></html>`
}

func candidate() game.Candidate {
	return game.Candidate{
		Source:      Name,
		SourceURL:   "https://basket.co.il/game-zone.asp?GameId=25002",
		IdentityKey: "כדורסל:08-10-2025 הפועל ירושלים נגד מכבי תל אביב - ליגת העל",
		Date:        time.Date(2025, 10, 8, 0, 0, 0, 0, time.UTC),
		Time:        "21:05",
		Competition: "ליגת העל",
		IsHomeTeam:  false,
		Opponent:    "הפועל ירושלים",
		HomeScore:   70,
		AwayScore:   80,
	}
}

func TestScrapeAwayGame(t *testing.T) {
	pages := &fakePages{html: gamePage()}
	a := newAdapter(fakeFeed{}, pages)

	rec, err := a.Scrape(context.Background(), candidate())
	require.NoError(t, err)

	assert.Equal(t, []string{candidate().SourceURL}, pages.urls)
	assert.Equal(t, game.Round{Number: 3}, rec.Round)
	assert.Equal(t, "היכל מנורה מבטחים", rec.Stadium)
	assert.Equal(t, "10234", rec.Crowd)
	assert.Equal(t, "לואיג'י למוניקה", rec.MainReferee)
	assert.Equal(t, []string{"סשה פוקל", "Unknown Ref"}, rec.AssistantReferees)

	assert.Equal(t, 80, rec.OwnScore)
	assert.Equal(t, 70, rec.OpponentScore)
	assert.Equal(t, []game.Stat{game.Known(22), game.Known(18), game.Known(20), game.Known(20)}, rec.OwnPeriods)
	assert.Equal(t, []game.Stat{game.Known(20), game.Known(15), game.Known(20), game.Known(15)}, rec.OpponentPeriods)

	assert.Equal(t, "עודד קטש", rec.OwnCoach)
	assert.Equal(t, "Home Coach", rec.OpponentCoach)

	require.Len(t, rec.OwnPlayers, 2)
	sorkin := rec.OwnPlayers[0]
	assert.Equal(t, "רומן סורקין", sorkin.Name)
	assert.Equal(t, game.Known(9), sorkin.Number)
	assert.True(t, sorkin.Starter)
	assert.False(t, sorkin.Points.Valid)
	assert.Equal(t, game.Shot{Made: 10, Attempted: 15, Recorded: true}, sorkin.FieldGoals)
	assert.Equal(t, game.Known(6), sorkin.DefensiveRebounds)
	assert.Equal(t, game.Known(2), sorkin.OffensiveRebounds)
	assert.Equal(t, game.Known(5), sorkin.Assists)
	assert.Equal(t, game.Known(2), sorkin.Blocks)
	assert.False(t, rec.OwnPlayers[1].Starter)

	require.Len(t, rec.OpponentPlayers, 1)
	assert.Equal(t, game.Known(12), rec.OpponentPlayers[0].Points)

	assert.Equal(t, "[https://basket.co.il/game-zone.asp?GameId=25002 עמוד המשחק באתר מנהלת ליגת העל בכדורסל]", rec.Citation)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseGameStructureErrors(t *testing.T) {
	_, err := ParseGame(parse(t, `<html><body><p>maintenance</p></body></html>`), candidate(), names.New())
	assert.True(t, errors.Is(err, source.ErrPageStructure))

	_, err = ParseGame(parse(t, `<div id="wrap_inner_3"></div>`), candidate(), names.New())
	assert.True(t, errors.Is(err, source.ErrPageStructure))

	_, err = ParseGame(parse(t, `<div id="wrap_inner_3"></div><table class="stats_tbl categories"><tr><td>x</td></tr></table>`), candidate(), names.New())
	assert.True(t, errors.Is(err, extract.ErrNotEnoughData))
}

func TestParseGameWithoutBoxScore(t *testing.T) {
	html := `<div id="wrap_inner_3"><h4><img>גמר</h4></div>
<table class="stats_tbl categories"><tr></tr><tr><td>A</td><td>20</td></tr><tr><td>B</td><td>18</td></tr></table>`

	rec, err := ParseGame(parse(t, html), candidate(), names.New())

	require.NoError(t, err)
	assert.Equal(t, "גמר", rec.Round.String())
	assert.Empty(t, rec.OwnPlayers)
	assert.Empty(t, rec.OpponentPlayers)
}
