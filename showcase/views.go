package showcase

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/magic"
)

func text(format string, args ...any) hooks.Node {
	return hooks.Text(fmt.Sprintf(format, args...))
}

// CounterView renders a counter bound from src.
func CounterView(key any, src magic.Source[Counter]) hooks.Component {
	return hooks.Component{Name: "Counter", Key: key, Render: func(h *hooks.Hooks) []hooks.Node {
		c := magic.Use(h, src)
		return []hooks.Node{
			text("count: %d", c.Count.Get()),
			text("doubled: %d", c.Doubled.Get()),
		}
	}}
}

// TallyView renders the votes of t, one line per option.
func TallyView(t *Tally) hooks.Component {
	return hooks.Component{Name: "Tally", Render: func(h *hooks.Hooks) []hooks.Node {
		t := magic.Use(h, magic.Instance(t))
		var nodes []hooks.Node
		for _, o := range t.Options() {
			n, _ := t.Votes.Get(o)
			nodes = append(nodes, text("%s: %d", o, n))
		}
		return append(nodes, text("leader: %s", t.Leader.Get()))
	}}
}

// App binds user, provides it to the header and, once logged in, to the
// post list.
func App(user *User, posts *PostList) hooks.Component {
	return hooks.Component{Name: "App", Render: func(h *hooks.Hooks) []hooks.Node {
		u := magic.Use(h, magic.Instance(user))
		var list hooks.Node
		if u.ID() != 0 {
			list = PostsView(posts)
		}
		return []hooks.Node{hooks.Provide(UserContext, u, Header(), list)}
	}}
}

// Header shows the login or logout form of the user in context.
func Header() hooks.Component {
	return hooks.Component{Name: "Header", Render: func(h *hooks.Hooks) []hooks.Node {
		u, _ := h.UseContext(UserContext).(*User)
		if u == nil {
			return nil
		}
		var nodes []hooks.Node
		if u.ID() == 0 {
			nodes = append(nodes,
				text("user: %s", u.Name.Get()),
				text("pass: %s", strings.Repeat("*", len(u.Pass.Get()))),
				hooks.Text("[login]"),
			)
		} else {
			nodes = append(nodes, text("logged in as %d", u.ID()), hooks.Text("[logout]"))
		}
		if msg := u.ErrMessage.Get(); msg != "" {
			nodes = append(nodes, hooks.Text(msg))
		}
		return nodes
	}}
}

// PostsView binds posts and lists them with their order and query.
func PostsView(posts *PostList) hooks.Component {
	return hooks.Component{Name: "Posts", Render: func(h *hooks.Hooks) []hooks.Node {
		p := magic.Use(h, magic.Instance(posts))
		dir := "desc"
		if p.Sort.Ascending.Get() {
			dir = "asc"
		}
		nodes := []hooks.Node{
			text("sort: %s %s", p.Sort.Column.Get(), dir),
			text("search: %s", p.Filter.Query.Get()),
		}
		if p.Loading.Get() {
			nodes = append(nodes, hooks.Text("loading"))
		}
		for _, post := range p.List() {
			nodes = append(nodes, PostItem(post))
		}
		if msg := p.ErrMessage.Get(); msg != "" {
			nodes = append(nodes, hooks.Text(msg))
		}
		return nodes
	}}
}

// PostItem renders one post.
func PostItem(post Post) hooks.Component {
	return hooks.Component{Name: "PostItem", Key: post.ID, Render: func(h *hooks.Hooks) []hooks.Node {
		date := time.UnixMilli(post.Date).UTC().Format("Mon Jan 02 2006")
		return []hooks.Node{text("%s: %s", date, post.Title)}
	}}
}

// IslandView binds game and renders one square per entity, providing the
// game to each.
func IslandView(game *Game) hooks.Component {
	return hooks.Component{Name: "Island", Render: func(h *hooks.Hooks) []hooks.Node {
		g := magic.Use(h, magic.Instance(game))
		squares := make([]hooks.Node, 0, len(g.Cells()))
		for _, e := range g.Cells() {
			squares = append(squares, Square(e))
		}
		return []hooks.Node{
			text("generation %d, scale %d", g.Generation.Get(), g.Scale.Get()),
			hooks.Provide(GameContext, g, squares...),
		}
	}}
}

// Square renders one entity. It is keyed by the entity id, so an entity that
// moves is unmounted and mounted again, restarting its interval.
func Square(e *Entity) hooks.Component {
	return hooks.Component{Name: "Square", Key: e.ID, Render: func(h *hooks.Hooks) []hooks.Node {
		e := magic.Use(h, magic.Instance(e))
		return []hooks.Node{hooks.Text(e.Emoji.Get())}
	}}
}
