package showcase

import (
	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/magic"
)

// Demo represents a showcase demo.
type Demo struct {
	Route    string
	Title    string
	Subtitle string
	Category string
	// Build returns the demo scene. env is provided to the tree through
	// EnvContext.
	Build func(env *Env) Scene
}

// Scene is a demo tree and a script of user actions to play against it.
type Scene struct {
	Root   hooks.Node
	Script []Step
}

// Step is one scripted user action. Do runs on the render goroutine.
type Step struct {
	Label string
	Do    func()
}

// Category constants for demo organization.
const (
	CategoryBasics = "basics"
	CategoryData   = "data"
	CategoryTimers = "timers"
)

// IslandSeed seeds the island demo.
const IslandSeed = 7

// demos is the registry of all showcase demos.
var demos = []Demo{
	{"/counter", "Counter", "State, memo and effect members", CategoryBasics, buildCounter},
	{"/shared", "Shared counter", "One instance bound by two components", CategoryBasics, buildShared},
	{"/tally", "Tally", "Keyed state collection", CategoryBasics, buildTally},
	{"/posts", "Posts", "Login, context, nested sort and filter, fetch effect", CategoryData, buildPosts},
	{"/island", "Emoji Island", "Context, keyed instances and intervals", CategoryTimers, buildIsland},
}

// Demos returns every demo in registry order.
func Demos() []Demo {
	return demos
}

// Lookup finds the demo at route.
func Lookup(route string) (Demo, bool) {
	for _, d := range demos {
		if d.Route == route {
			return d, true
		}
	}
	return Demo{}, false
}

// Samples returns one instance of every showcase class, for inspection.
func Samples() []any {
	return []any{
		NewCounter(),
		NewTally(),
		NewUser(),
		NewPostList(),
		NewSort(),
		&Filter{},
		NewGame(IslandSeed),
		NewGame(IslandSeed).Spawn(Tree),
	}
}

func buildCounter(env *Env) Scene {
	c := NewCounter()
	return Scene{
		Root: hooks.Provide(EnvContext, env, CounterView(nil, magic.Instance(c))),
		Script: []Step{
			{"increment", c.Increment},
			{"increment", c.Increment},
			{"step by 5", func() { c.Step.Set(5) }},
			{"increment", c.Increment},
			{"reset", c.Reset},
		},
	}
}

func buildShared(env *Env) Scene {
	shared := NewCounter()
	return Scene{
		Root: hooks.Provide(EnvContext, env,
			CounterView("a", magic.Instance(shared)),
			CounterView("b", magic.Instance(shared)),
		),
		Script: []Step{
			{"increment", shared.Increment},
			{"decrement", shared.Decrement},
		},
	}
}

func buildTally(env *Env) Scene {
	t := NewTally("go", "rust", "zig")
	vote := func(o string) Step { return Step{"vote " + o, func() { t.Vote(o) }} }
	return Scene{
		Root:   hooks.Provide(EnvContext, env, TallyView(t)),
		Script: []Step{vote("zig"), vote("go"), vote("go")},
	}
}

func buildPosts(env *Env) Scene {
	user, posts := NewUser(), NewPostList()
	return Scene{
		Root: hooks.Provide(EnvContext, env, App(user, posts)),
		Script: []Step{
			{"wrong password", func() {
				user.Name.Set("demo")
				user.Pass.Set("nope")
				user.Login()
			}},
			{"login", func() {
				user.Pass.Set("demo")
				user.Login()
			}},
			{"sort by title", func() { posts.Sort.Change(ColumnTitle) }},
			{"search", func() { posts.Filter.Search("lorem") }},
			{"clear search", posts.Filter.Clear},
			{"logout", user.Logout},
		},
	}
}

func buildIsland(env *Env) Scene {
	return Scene{Root: hooks.Provide(EnvContext, env, IslandView(NewGame(IslandSeed)))}
}
