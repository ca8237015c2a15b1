package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"probs/internal/formatter"
	"probs/internal/squad"
)

type fakeSource map[string]float64

func (f fakeSource) Probability(ctx context.Context, url string) (float64, error) {
	p, ok := f[url]
	if !ok {
		return 0, errors.New("no probability data")
	}
	return p, nil
}

func player(name, position string, tier squad.Tier) squad.Player {
	return squad.Player{Name: name, URL: "https://example.com/" + strings.ReplaceAll(name, " ", "-"), Position: position, Tier: tier}
}

func testAdvisor() *Advisor {
	roster := squad.Roster{
		{Name: "Atlético", Tier: "S", Players: []squad.Player{
			player("Jan Oblak", "portero", "S"),
			player("José María Giménez", "defensa", "A"),
		}},
		{Name: "Getafe", Tier: "C", Players: []squad.Player{
			player("Borja Mayoral", "delantero", "B"),
			player("David Soria", "portero", "A"),
			player("Juan Iglesias", "lateral", "B"),
		}},
		{Name: "Real Sociedad", Tier: "A", Players: []squad.Player{
			player("Takefusa Kubo", "delantero", "A"),
			player("Aihen Muñoz", "defensa", "C"),
		}},
		{Name: "Girona", Tier: "B", Players: []squad.Player{
			player("Paulo Gazzaniga", "portero", "C"),
		}},
	}
	calendar := &squad.Calendar{Rounds: []squad.Round{
		{Number: 1, Matches: []squad.Match{{Home: "Atlético", Away: "Getafe"}, {Home: "Girona", Away: "Real Sociedad"}}},
		{Number: 2, Matches: []squad.Match{{Home: "Real Sociedad", Away: "Atlético"}, {Home: "Getafe", Away: "Girona"}}},
	}}
	source := fakeSource{
		"https://example.com/Jan-Oblak":          92,
		"https://example.com/José-María-Giménez": 85,
		"https://example.com/Borja-Mayoral":      85,
		"https://example.com/David-Soria":        40,
		"https://example.com/Takefusa-Kubo":      75,
		"https://example.com/Aihen-Muñoz":        60,
		"https://example.com/Juan-Iglesias":      99,
	}
	return New(roster, calendar, source)
}

var requested = []string{"Oblak", "Giménez", "Kubo", "Aihen", "Mayoral", "Soria", "Gazzaniga", "Iglesias", "Nobody"}

func names(evs []Evaluation) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name)
	}
	return out
}

func TestShouldDiscard(t *testing.T) {
	tests := []struct {
		player, team, opponent squad.Tier
		probability            float64
		want                   bool
	}{
		{"C", "A", "A", 10, false}, // team not weaker
		{"C", "B", "A", 99, true},
		{"B", "B", "A", 89.9, true},
		{"B", "B", "A", 90, false},
		{"A", "C", "S", 79, true},
		{"A", "C", "S", 80, false},
		{"S", "C", "S", 51, false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s-%s-%s-%v", tc.player, tc.team, tc.opponent, tc.probability), func(t *testing.T) {
			got, reason := ShouldDiscard(tc.player, tc.team, tc.opponent, tc.probability)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want, reason != "")
		})
	}
}

func TestLineupRoundOne(t *testing.T) {
	report, err := testAdvisor().Lineup(context.Background(), requested, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"Jan Oblak", "José María Giménez", "Takefusa Kubo", "Aihen Muñoz"}, names(report.Picks))
	assert.Equal(t, []string{"Jan Oblak", "David Soria"}, names(report.All[squad.Goalkeeper]))
	assert.Equal(t, []string{"Borja Mayoral", "Takefusa Kubo"}, names(report.All[squad.Forward]))
	assert.Empty(t, report.All[squad.Midfielder])
	assert.Equal(t, "Getafe", report.Picks[0].Opponent)

	text, err := formatter.Format(report, "text")
	require.NoError(t, err)
	assert.Equal(t, `All players:
Portero:
- Jan Oblak (92%)
- David Soria (40%)
Defensa:
- José María Giménez (85%)
- Aihen Muñoz (60%)
Centrocampista:
Delantero:
- Borja Mayoral (85%)
- Takefusa Kubo (75%)
Suggested lineup:
Portero:
- Jan Oblak (92%)
Defensas:
- José María Giménez (85%)
- Aihen Muñoz (60%)
Centrocampistas:
Delanteros:
- Takefusa Kubo (75%)
`, text)
}

func TestLineupRoundTwoDiscardsAgainstStrongerTeams(t *testing.T) {
	report, err := testAdvisor().Lineup(context.Background(), requested, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan Oblak", "José María Giménez"}, names(report.Picks))
}

func TestLineupUnknownRound(t *testing.T) {
	_, err := testAdvisor().Lineup(context.Background(), requested, 38)
	assert.EqualError(t, err, "round 38 not found in calendar")
}

func TestMarket(t *testing.T) {
	report, err := testAdvisor().Market(context.Background(), requested)
	require.NoError(t, err)
	assert.Equal(t, KindMarket, report.Kind)
	assert.Equal(t, []string{"Jan Oblak", "José María Giménez", "Takefusa Kubo", "Aihen Muñoz"}, names(report.Picks))

	text, err := report.ToText()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "All players in the market:\n"))
	assert.Contains(t, text, "Recommended players:\n")
}

func TestSelectLineupCapsAndDedupes(t *testing.T) {
	var candidates []Evaluation
	add := func(name string, pos squad.Position, n int) {
		for i := 0; i < n; i++ {
			candidates = append(candidates, Evaluation{Name: fmt.Sprintf("%s %d", name, i), Position: pos})
		}
	}
	add("gk", squad.Goalkeeper, 2)
	candidates = append(candidates, candidates[0])
	add("def", squad.Defender, 5)
	add("mid", squad.Midfielder, 5)
	add("fwd", squad.Forward, 4)

	lineup := SelectLineup(candidates)
	require.Len(t, lineup, 11)

	counts := map[squad.Position]int{}
	seen := map[string]bool{}
	for _, ev := range lineup {
		counts[ev.Position]++
		assert.False(t, seen[ev.Name], "duplicate %s", ev.Name)
		seen[ev.Name] = true
	}
	assert.Equal(t, map[squad.Position]int{squad.Goalkeeper: 1, squad.Defender: 4, squad.Midfielder: 4, squad.Forward: 2}, counts)
	assert.Equal(t, "gk 0", lineup[0].Name)
}

func TestSortByTierAndProbabilityIsStable(t *testing.T) {
	evs := []Evaluation{
		{Name: "b1", Tier: "B", Probability: 70},
		{Name: "s1", Tier: "S", Probability: 60},
		{Name: "a1", Tier: "A", Probability: 90},
		{Name: "a2", Tier: "A", Probability: 95},
		{Name: "a3", Tier: "A", Probability: 90},
	}
	sortByTierAndProbability(evs)
	assert.Equal(t, []string{"s1", "a2", "a1", "a3", "b1"}, names(evs))
}

func TestReportFormats(t *testing.T) {
	report, err := testAdvisor().Lineup(context.Background(), requested, 1)
	require.NoError(t, err)

	raw, err := report.ToJSON()
	require.NoError(t, err)
	var decoded struct {
		Kind  string       `json:"kind"`
		Round int          `json:"round"`
		Picks []Evaluation `json:"picks"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "lineup", decoded.Kind)
	assert.Equal(t, 1, decoded.Round)
	assert.Len(t, decoded.Picks, 4)

	csvOut, err := report.ToCSV()
	require.NoError(t, err)
	assert.Contains(t, csvOut, "pick,Portero,Jan Oblak,Atlético,S,92,Getafe\n")
	assert.Contains(t, csvOut, "all,Portero,David Soria,Getafe,A,40,\n")

	markdown, err := report.ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, markdown, "# Suggested lineup (round 1)")
	assert.Contains(t, markdown, "- **Jan Oblak** (Atlético) 92% vs Getafe")

	htmlOut, err := report.ToHTML()
	require.NoError(t, err)
	assert.Contains(t, htmlOut, "<li>Jan Oblak (92%)</li>")

	empty := &Report{Kind: KindMarket}
	raw, err = empty.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"picks": []`)
}
