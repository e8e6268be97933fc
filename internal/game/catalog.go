// Package game describes the side activities that pay out bonus coins: the
// client-side minigames and the server-side reward wheel.
package game

import (
	"strings"
	"time"
)

// SpinGameName is the minigame_rewards name used for wheel spins.
const SpinGameName = "lucky_wheel"

// Minigame is one entry of the catalog. MaxReward caps a single claim.
type Minigame struct {
	Name            string        `json:"name"`
	Title           string        `json:"title"`
	MaxReward       int64         `json:"max_reward"`
	Cooldown        time.Duration `json:"-"`
	CooldownSeconds int64         `json:"cooldown_seconds"`
}

type Catalog struct {
	games []Minigame
}

func NewCatalog(games ...Minigame) *Catalog {
	c := &Catalog{}
	for _, g := range games {
		g.Name = strings.ToLower(strings.TrimSpace(g.Name))
		g.CooldownSeconds = int64(g.Cooldown / time.Second)
		c.games = append(c.games, g)
	}
	return c
}

// DefaultCatalog returns the games the web app ships with.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Minigame{Name: "coin_catcher", Title: "Coin Catcher", MaxReward: 200, Cooldown: 5 * time.Minute},
		Minigame{Name: "memory_match", Title: "Memory Match", MaxReward: 300, Cooldown: 10 * time.Minute},
		Minigame{Name: "quick_math", Title: "Quick Math", MaxReward: 150, Cooldown: 2 * time.Minute},
		Minigame{Name: "reaction_test", Title: "Reaction Test", MaxReward: 100, Cooldown: time.Minute},
	)
}

// Lookup finds a game by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Minigame, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range c.games {
		if g.Name == name {
			return g, true
		}
	}
	return Minigame{}, false
}

func (c *Catalog) List() []Minigame {
	out := make([]Minigame, len(c.games))
	copy(out, c.games)
	return out
}
