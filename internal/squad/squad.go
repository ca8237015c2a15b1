// Package squad loads the roster and fixture calendar used by the advisor.
// Files are JSON or YAML; JSON documents are decoded as YAML.
package squad

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier ranks teams and players, S is the strongest
type Tier string

// Value returns S=3, A=2, B=1, C=0 and -1 for anything else
func (t Tier) Value() int {
	switch strings.ToUpper(string(t)) {
	case "S":
		return 3
	case "A":
		return 2
	case "B":
		return 1
	case "C":
		return 0
	default:
		return -1
	}
}

// Position is a canonical playing position
type Position string

const (
	Goalkeeper Position = "Portero"
	Defender   Position = "Defensa"
	Midfielder Position = "Centrocampista"
	Forward    Position = "Delantero"
)

// Positions in lineup order
var Positions = []Position{Goalkeeper, Defender, Midfielder, Forward}

// NormalizePosition maps a roster position to its canonical form, "" when unknown
func NormalizePosition(s string) Position {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "portero":
		return Goalkeeper
	case "defensa":
		return Defender
	case "centrocampista":
		return Midfielder
	case "delantero":
		return Forward
	default:
		return ""
	}
}

type Player struct {
	Name     string `yaml:"nombre"`
	URL      string `yaml:"url"`
	Position string `yaml:"position"`
	Tier     Tier   `yaml:"tier"`
}

type Team struct {
	Name    string   `yaml:"nombre"`
	Tier    Tier     `yaml:"tier"`
	Players []Player `yaml:"jugadores"`
}

// Roster is the list of teams in file order
type Roster []Team

// Match is a fixture between two teams
type Match struct {
	Home string `yaml:"local"`
	Away string `yaml:"visitante"`
}

// Round is one matchday
type Round struct {
	Number  int     `yaml:"jornada"`
	Matches []Match `yaml:"partidos"`
}

type Calendar struct {
	Rounds []Round `yaml:"jornadas"`
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// LoadRoster reads a roster file
func LoadRoster(path string) (Roster, error) {
	var r Roster
	if err := decodeFile(path, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadCalendar reads a calendar file
func LoadCalendar(path string) (*Calendar, error) {
	var c Calendar
	if err := decodeFile(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindPlayer returns the first player whose name contains every word of
// query, ignoring case. Teams and players are searched in file order.
func (r Roster) FindPlayer(query string) (*Team, *Player, bool) {
	parts := strings.Fields(strings.ToLower(query))
	if len(parts) == 0 {
		return nil, nil, false
	}
	for ti := range r {
		team := &r[ti]
		for pi := range team.Players {
			player := &team.Players[pi]
			if containsAll(strings.ToLower(player.Name), parts) {
				return team, player, true
			}
		}
	}
	return nil, nil, false
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// Team returns the team with the given name
func (r Roster) Team(name string) (*Team, bool) {
	for i := range r {
		if r[i].Name == name {
			return &r[i], true
		}
	}
	return nil, false
}

// Round returns the matchday with the given number
func (c *Calendar) Round(n int) (*Round, bool) {
	for i := range c.Rounds {
		if c.Rounds[i].Number == n {
			return &c.Rounds[i], true
		}
	}
	return nil, false
}

// AllMatches returns the matches of every round in order
func (c *Calendar) AllMatches() []Match {
	var matches []Match
	for _, r := range c.Rounds {
		matches = append(matches, r.Matches...)
	}
	return matches
}

// Opponent returns the team facing team in the first match that involves it
func Opponent(matches []Match, team string) (string, bool) {
	for _, m := range matches {
		switch team {
		case m.Home:
			return m.Away, true
		case m.Away:
			return m.Home, true
		}
	}
	return "", false
}
