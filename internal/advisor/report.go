package advisor

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"probs/internal/squad"
)

// ReportKind tells which advisor produced a Report
type ReportKind string

const (
	KindMarket ReportKind = "market"
	KindLineup ReportKind = "lineup"
)

// pickHeadings are the plural group names used for picks
var pickHeadings = map[squad.Position]string{
	squad.Goalkeeper: "Portero",
	squad.Defender:   "Defensas",
	squad.Midfielder: "Centrocampistas",
	squad.Forward:    "Delanteros",
}

// Report holds every evaluated player and the resulting picks
type Report struct {
	Kind  ReportKind
	Round int
	All   map[squad.Position][]Evaluation
	Picks []Evaluation
}

func (r *Report) allTitle() string {
	if r.Kind == KindMarket {
		return "All players in the market"
	}
	return "All players"
}

func (r *Report) picksTitle() string {
	if r.Kind == KindMarket {
		return "Recommended players"
	}
	return "Suggested lineup"
}

func (r *Report) picksByPosition() map[squad.Position][]Evaluation {
	groups := map[squad.Position][]Evaluation{}
	for _, p := range r.Picks {
		groups[p.Position] = append(groups[p.Position], p)
	}
	return groups
}

func formatProbability(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func entry(ev Evaluation) string {
	return fmt.Sprintf("%s (%s%%)", ev.Name, formatProbability(ev.Probability))
}

func (r *Report) ToText() (string, error) {
	var sb strings.Builder
	sb.WriteString(r.allTitle() + ":\n")
	for _, pos := range squad.Positions {
		sb.WriteString(string(pos) + ":\n")
		for _, ev := range r.All[pos] {
			sb.WriteString("- " + entry(ev) + "\n")
		}
	}

	picks := r.picksByPosition()
	sb.WriteString(r.picksTitle() + ":\n")
	for _, pos := range squad.Positions {
		sb.WriteString(pickHeadings[pos] + ":\n")
		for _, ev := range picks[pos] {
			sb.WriteString("- " + entry(ev) + "\n")
		}
	}
	return sb.String(), nil
}

func (r *Report) ToMarkdown() (string, error) {
	var sb strings.Builder
	sb.WriteString("# " + r.picksTitle())
	if r.Kind == KindLineup {
		sb.WriteString(fmt.Sprintf(" (round %d)", r.Round))
	}
	sb.WriteString("\n\n")

	picks := r.picksByPosition()
	for _, pos := range squad.Positions {
		sb.WriteString("## " + pickHeadings[pos] + "\n\n")
		for _, ev := range picks[pos] {
			sb.WriteString(fmt.Sprintf("- **%s** (%s) %s%% vs %s\n", ev.Name, ev.Team, formatProbability(ev.Probability), ev.Opponent))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("# " + r.allTitle() + "\n\n")
	sb.WriteString("| Position | Player | Team | Tier | Probability |\n")
	sb.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, pos := range squad.Positions {
		for _, ev := range r.All[pos] {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s%% |\n", pos, ev.Name, ev.Team, ev.Tier, formatProbability(ev.Probability)))
		}
	}
	return sb.String(), nil
}

func (r *Report) ToHTML() (string, error) {
	var sb strings.Builder
	writeList := func(title string, headings func(squad.Position) string, groups map[squad.Position][]Evaluation) {
		sb.WriteString("<h1>" + html.EscapeString(title) + "</h1>\n")
		for _, pos := range squad.Positions {
			sb.WriteString("<h2>" + html.EscapeString(headings(pos)) + "</h2>\n<ul>\n")
			for _, ev := range groups[pos] {
				sb.WriteString("  <li>" + html.EscapeString(entry(ev)) + "</li>\n")
			}
			sb.WriteString("</ul>\n")
		}
	}
	writeList(r.allTitle(), func(p squad.Position) string { return string(p) }, r.All)
	writeList(r.picksTitle(), func(p squad.Position) string { return pickHeadings[p] }, r.picksByPosition())
	return sb.String(), nil
}

func (r *Report) ToJSON() ([]byte, error) {
	type jsonOutput struct {
		Kind  ReportKind                      `json:"kind"`
		Round int                             `json:"round,omitempty"`
		All   map[squad.Position][]Evaluation `json:"all"`
		Picks []Evaluation                    `json:"picks"`
	}
	picks := r.Picks
	if picks == nil {
		picks = []Evaluation{}
	}
	return json.MarshalIndent(jsonOutput{Kind: r.Kind, Round: r.Round, All: r.All, Picks: picks}, "", "  ")
}

func (r *Report) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Section", "Position", "Player", "Team", "Tier", "Probability", "Opponent"})
	for _, pos := range squad.Positions {
		for _, ev := range r.All[pos] {
			_ = w.Write([]string{"all", string(pos), ev.Name, ev.Team, string(ev.Tier), formatProbability(ev.Probability), ""})
		}
	}
	for _, ev := range r.Picks {
		_ = w.Write([]string{"pick", string(ev.Position), ev.Name, ev.Team, string(ev.Tier), formatProbability(ev.Probability), ev.Opponent})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}
