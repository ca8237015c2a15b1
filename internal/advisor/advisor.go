// Package advisor turns start probabilities into market and lineup picks.
package advisor

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"probs/internal/squad"
)

const (
	// MinProbability is the start probability a pick must exceed
	MinProbability = 50.0

	lineupSize = 11
)

// formation caps for a 1-4-4-3 lineup
var formation = map[squad.Position]int{
	squad.Goalkeeper: 1,
	squad.Defender:   4,
	squad.Midfielder: 4,
	squad.Forward:    3,
}

// ProbabilitySource is satisfied by *probs.Source
type ProbabilitySource interface {
	Probability(ctx context.Context, playerURL string) (float64, error)
}

// Evaluation is a player with a known start probability
type Evaluation struct {
	Name        string         `json:"name"`
	Team        string         `json:"team"`
	Position    squad.Position `json:"position"`
	Tier        squad.Tier     `json:"tier"`
	Probability float64        `json:"probability"`
	Opponent    string         `json:"opponent,omitempty"`
}

type Advisor struct {
	roster   squad.Roster
	calendar *squad.Calendar
	source   ProbabilitySource
}

func New(roster squad.Roster, calendar *squad.Calendar, source ProbabilitySource) *Advisor {
	return &Advisor{roster: roster, calendar: calendar, source: source}
}

// ShouldDiscard reports whether a player is dropped because their team faces
// a stronger opponent. The reason is empty when the player is kept.
func ShouldDiscard(player, team, opponent squad.Tier, probability float64) (bool, string) {
	if team.Value() >= opponent.Value() {
		return false, ""
	}
	switch player.Value() {
	case 0:
		return true, fmt.Sprintf("player tier is C and opponent team has a higher tier (%s)", opponent)
	case 1:
		if probability < 90 {
			return true, fmt.Sprintf("player tier is B and probability (%s%%) is less than 90%%", formatProbability(probability))
		}
	case 2:
		if probability < 80 {
			return true, fmt.Sprintf("player tier is A and probability (%s%%) is less than 80%%", formatProbability(probability))
		}
	}
	return false, ""
}

// Market recommends players from names against any fixture in the calendar
func (a *Advisor) Market(ctx context.Context, names []string) (*Report, error) {
	all, candidates := a.evaluate(ctx, names, a.calendar.AllMatches())
	sortByTierAndProbability(candidates)
	return &Report{
		Kind:  KindMarket,
		All:   groupByPosition(all),
		Picks: candidates,
	}, nil
}

// Lineup suggests up to eleven players from names for the given round
func (a *Advisor) Lineup(ctx context.Context, names []string, round int) (*Report, error) {
	r, ok := a.calendar.Round(round)
	if !ok {
		return nil, fmt.Errorf("round %d not found in calendar", round)
	}
	all, candidates := a.evaluate(ctx, names, r.Matches)
	sortByTierAndProbability(candidates)
	return &Report{
		Kind:  KindLineup,
		Round: round,
		All:   groupByPosition(all),
		Picks: SelectLineup(candidates),
	}, nil
}

// evaluate fetches every named player in order. It returns every player with
// probability data and the subset that passes the pick rules.
func (a *Advisor) evaluate(ctx context.Context, names []string, matches []squad.Match) (all, candidates []Evaluation) {
	log := zerolog.Ctx(ctx)

	for i, name := range names {
		log.Debug().Int("done", i).Int("total", len(names)).Str("player", name).Msg("Processing player")

		team, player, ok := a.roster.FindPlayer(name)
		if !ok {
			log.Warn().Str("player", name).Msg("Player not found")
			continue
		}
		plog := log.With().Str("player", player.Name).Str("team", team.Name).Logger()

		position := squad.NormalizePosition(player.Position)
		if position == "" {
			plog.Warn().Str("position", player.Position).Msg("Unknown position, skipping player")
			continue
		}

		probability, err := a.source.Probability(ctx, player.URL)
		if err != nil {
			plog.Info().Err(err).Msg("Discarded, probability data is not available")
			continue
		}

		ev := Evaluation{
			Name:        player.Name,
			Team:        team.Name,
			Position:    position,
			Tier:        player.Tier,
			Probability: probability,
		}
		all = append(all, ev)

		if probability <= MinProbability {
			plog.Info().Float64("probability", probability).Msg("Discarded, probability is not greater than 50%")
			continue
		}

		opponentName, ok := squad.Opponent(matches, team.Name)
		if !ok {
			plog.Debug().Msg("No fixture for team")
			continue
		}
		opponent, ok := a.roster.Team(opponentName)
		if !ok {
			plog.Warn().Str("opponent", opponentName).Msg("Opponent team not found")
			continue
		}

		if discard, reason := ShouldDiscard(player.Tier, team.Tier, opponent.Tier, probability); discard {
			plog.Info().Str("reason", reason).Msg("Discarded")
			continue
		}
		ev.Opponent = opponent.Name
		candidates = append(candidates, ev)
	}

	log.Debug().Int("evaluated", len(all)).Int("candidates", len(candidates)).Msg("Processed players")
	return all, candidates
}

// SelectLineup picks candidates in order within the formation caps, keeping
// the first occurrence of each name.
func SelectLineup(candidates []Evaluation) []Evaluation {
	counts := map[squad.Position]int{}
	seen := map[string]bool{}
	var lineup []Evaluation

	for _, c := range candidates {
		if len(lineup) >= lineupSize {
			break
		}
		if seen[c.Name] || counts[c.Position] >= formation[c.Position] {
			continue
		}
		seen[c.Name] = true
		counts[c.Position]++
		lineup = append(lineup, c)
	}
	return lineup
}

// sortByTierAndProbability orders by tier then probability, both descending.
// Ties keep input order.
func sortByTierAndProbability(evs []Evaluation) {
	slices.SortStableFunc(evs, func(a, b Evaluation) int {
		if d := b.Tier.Value() - a.Tier.Value(); d != 0 {
			return d
		}
		return compareDesc(a.Probability, b.Probability)
	})
}

func groupByPosition(evs []Evaluation) map[squad.Position][]Evaluation {
	groups := map[squad.Position][]Evaluation{}
	for _, ev := range evs {
		groups[ev.Position] = append(groups[ev.Position], ev)
	}
	for _, g := range groups {
		slices.SortStableFunc(g, func(a, b Evaluation) int {
			return compareDesc(a.Probability, b.Probability)
		})
	}
	return groups
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
