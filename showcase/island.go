package showcase

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/interval"
	"github.com/go-drift/magic/pkg/magic"
)

// Kind is what occupies a square of the island.
type Kind int

const (
	Space Kind = iota
	Mountain
	Volcano
	Tree
	Fruit
	Herbivore
	Carnivore
	Fire
	Bones
	Box
	Poop
	numKinds
)

type kindInfo struct {
	name   string
	weight int
	// period between acts; zero never acts
	period time.Duration
	energy int
	emojis []string
}

var kinds = [numKinds]kindInfo{
	Space:     {"space", 100, 0, 0, []string{" "}},
	Mountain:  {"mountain", 10, 50 * time.Second, 0, []string{"⛰️", "🏔️"}},
	Volcano:   {"volcano", 0, time.Second, 0, []string{"🌋"}},
	Tree:      {"tree", 20, 10 * time.Second, 0, []string{"🌲", "🌳", "🌴"}},
	Fruit:     {"fruit", 0, 5 * time.Second, 0, []string{"🍏", "🍎", "🍐", "🍊", "🍋", "🍑", "🥭"}},
	Herbivore: {"herbivore", 10, 5 * time.Second, 20, []string{"🐑", "🐏", "🦌", "🐂", "🐃", "🦙"}},
	Carnivore: {"carnivore", 5, 2 * time.Second, 20, []string{"🐅", "🐆"}},
	Fire:      {"fire", 0, time.Second, 5, []string{"🔥"}},
	Bones:     {"bones", 0, 5 * time.Second, 0, []string{"🦴", "💀"}},
	Box:       {"box", 0, 5 * time.Second, 0, []string{"📦"}},
	Poop:      {"poop", 0, 5 * time.Second, 0, []string{"💩"}},
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kinds[k].name
}

// Island sizes accepted by Resize.
const (
	MinScale     = 3
	MaxScale     = 20
	DefaultScale = 7
)

// GameContext provides the *Game to its entities.
var GameContext = hooks.NewNamedContext("game", (*Game)(nil))

// Game is a square island of entities. Entities act on their own intervals
// and rearrange the island through Replace.
type Game struct {
	magic.Object

	Scale      magic.State[int]
	Generation magic.State[int]
	Entities   magic.Memo[[]*Entity]

	rng  *rand.Rand
	side int
}

// Entity is one occupant of the island.
type Entity struct {
	magic.Object

	Game  *Game
	Emoji magic.Memo[string]

	ID     string
	Kind   Kind
	Energy int

	variant int
}

func init() {
	magic.Annotate[Game](
		magic.IsState("Scale"),
		magic.IsState("Generation"),
		magic.IsMemo("Entities", magic.DepsFunc(func(g *Game) []any {
			return []any{g.Scale.Get()}
		})),
	)
	magic.Annotate[Entity](
		magic.IsContext("Game", GameContext),
		magic.IsMemo("Emoji", magic.Fixed()),
		magic.IsEffect("Start", magic.Fixed()),
	)
}

// NewGame returns a game of DefaultScale whose randomness is derived from
// seed.
func NewGame(seed uint64) *Game {
	g := &Game{
		Scale: magic.StateOf(DefaultScale),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	g.Entities = magic.MemoOf(g.populate)
	return g
}

// populate fills the island, picking kinds by weight.
func (g *Game) populate() []*Entity {
	var pool []Kind
	for k, info := range kinds {
		for range info.weight {
			pool = append(pool, Kind(k))
		}
	}
	g.side = g.Scale.Get()
	cells := make([]*Entity, g.side*g.side)
	for i := range cells {
		cells[i] = g.Spawn(pool[g.rng.IntN(len(pool))])
	}
	return cells
}

// Spawn creates an entity of kind k that is not yet on the island.
func (g *Game) Spawn(k Kind) *Entity {
	info := kinds[k]
	e := &Entity{
		ID:      uuid.NewString(),
		Kind:    k,
		Energy:  info.energy,
		variant: g.rng.IntN(len(info.emojis)),
	}
	e.Emoji = magic.MemoOf(func() string { return kinds[e.Kind].emojis[e.variant] })
	return e
}

// Resize changes the island size, clamped to [MinScale, MaxScale]. The
// island is repopulated on the next render.
func (g *Game) Resize(scale int) {
	g.Scale.Set(min(max(scale, MinScale), MaxScale))
}

// Cells returns the current entities in row order.
func (g *Game) Cells() []*Entity {
	return g.Entities.Get()
}

// At returns the entity at column x and row y, or nil outside the island.
func (g *Game) At(x, y int) *Entity {
	cells := g.Cells()
	if x < 0 || y < 0 || x >= g.side || y >= g.side || y*g.side+x >= len(cells) {
		return nil
	}
	return cells[y*g.side+x]
}

// Count returns how many entities of kind k are on the island.
func (g *Game) Count(k Kind) int {
	n := 0
	for _, e := range g.Cells() {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Neighbors returns the up to eight entities around e, limited to the given
// kinds when any are passed.
func (g *Game) Neighbors(e *Entity, only ...Kind) []*Entity {
	cells := g.Cells()
	i := slices.Index(cells, e)
	if i < 0 || g.side == 0 {
		return nil
	}
	x, y := i%g.side, i/g.side
	var out []*Entity
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := g.At(x+dx, y+dy)
			if n == nil || (len(only) > 0 && !slices.Contains(only, n.Kind)) {
				continue
			}
			out = append(out, n)
		}
	}
	return out
}

// PeekRandom returns a random neighbor of e of the given kinds, or nil.
func (g *Game) PeekRandom(e *Entity, only ...Kind) *Entity {
	ns := g.Neighbors(e, only...)
	if len(ns) == 0 {
		return nil
	}
	return ns[g.rng.IntN(len(ns))]
}

// Replace puts b where a is. When b was already on the island its old
// square becomes space. Nil arguments are ignored.
func (g *Game) Replace(a, b *Entity) {
	if a == nil || b == nil || a == b {
		return
	}
	cells := g.Cells()
	ai := slices.Index(cells, a)
	if ai < 0 {
		return
	}
	if bi := slices.Index(cells, b); bi >= 0 {
		cells[bi] = g.Spawn(Space)
	}
	cells[ai] = b
	g.Generation.Update(func(n int) int { return n + 1 })
}

func (g *Game) chance(p float64) bool {
	return g.rng.Float64() < p
}

// Period returns how often the entity acts, or zero when it never does.
func (e *Entity) Period() time.Duration {
	return kinds[e.Kind].period
}

// Start runs Act every period while the entity is on screen.
func (e *Entity) Start() func() {
	if e.Period() == 0 {
		return nil
	}
	iv := interval.New(e.Period(), e.Act)
	iv.Start()
	return iv.Stop
}

// Act performs one step of the entity's behavior.
func (e *Entity) Act() {
	g := e.Game
	if g == nil {
		return
	}
	switch e.Kind {
	case Mountain:
		if g.chance(0.5) {
			g.Replace(e, g.Spawn(Volcano))
		}
	case Volcano:
		g.Replace(g.PeekRandom(e), g.Spawn(Fire))
	case Tree:
		g.Replace(g.PeekRandom(e, Space), g.Spawn(Fruit))
	case Fruit:
		g.Replace(e, g.Spawn(Tree))
	case Herbivore:
		e.forage(g, Fruit)
	case Carnivore:
		e.forage(g, Herbivore)
	case Fire:
		if fuel := g.PeekRandom(e, Tree); fuel != nil && g.chance(0.5) {
			g.Replace(fuel, g.Spawn(Fire))
		}
		e.Energy--
		if e.Energy <= 0 {
			g.Replace(e, g.Spawn(Space))
		}
	case Bones, Box, Poop:
		g.Replace(e, g.Spawn(Space))
	}
}

// forage eats a neighboring food, starves, or wanders into space.
func (e *Entity) forage(g *Game, food Kind) {
	if f := g.PeekRandom(e, food); f != nil {
		g.Replace(f, e)
		e.Energy++
		return
	}
	if e.Energy <= 0 {
		g.Replace(e, g.Spawn(Bones))
		return
	}
	e.Energy--
	if g.chance(0.5) {
		g.Replace(g.PeekRandom(e, Space), e)
	}
}
