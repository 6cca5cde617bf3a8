package showcase

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/magic"
	"github.com/go-drift/magic/pkg/request"
	magictest "github.com/go-drift/magic/pkg/testing"
)

const settle = time.Second

// testEnv serves the API in process and applies results on the next pump.
func testEnv(tester *magictest.Tester) *Env {
	return &Env{
		Fetcher:  request.Handler{Handler: NewServer(SeedPosts(20, 1), nil)},
		Go:       func(fn func()) { fn() },
		Dispatch: tester.Dispatch,
	}
}

func TestCounterView(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	c := NewCounter()
	require.NoError(t, tester.Mount(CounterView(nil, magic.Instance(c))))
	assert.Equal(t, []string{"count: 0", "doubled: 0"}, tester.Texts())
	assert.Equal(t, []int{0}, c.Seen)

	c.Increment()
	assert.Equal(t, 1, c.Count.Get(), "writes are visible before the next render")
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, []string{"count: 1", "doubled: 2"}, tester.Texts())

	c.Step.Set(5)
	c.Decrement()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, []string{"count: -4", "doubled: -8"}, tester.Texts())
	assert.Equal(t, []int{0, 1, -4}, c.Seen)
}

func TestSharedCounter(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	shared := NewCounter()
	require.NoError(t, tester.Mount(
		CounterView("a", magic.Instance(shared)),
		CounterView("b", magic.Instance(shared)),
	))
	assert.Equal(t, 2, shared.Bindings())

	shared.Increment()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, 2, tester.Find(magictest.ByText("count: 1")).Count())
}

func TestTallyView(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	tally := NewTally("go", "rust", "zig")
	require.NoError(t, tester.Mount(TallyView(tally)))
	assert.Equal(t, []string{"go: 0", "rust: 0", "zig: 0", "leader: "}, tester.Texts())

	tally.Vote("zig")
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.True(t, tester.Find(magictest.ByText("leader: zig")).Exists())

	tally.Vote("go")
	tally.Vote("go")
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, []string{"go: 2", "rust: 0", "zig: 1", "leader: go"}, tester.Texts())
	assert.Equal(t, map[string]any{
		"Votes":  map[string]int{"go": 2, "rust": 0, "zig": 1},
		"Leader": "go",
	}, magic.Snapshot(tally))
}

func TestPostsLoginFlow(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	user, posts := NewUser(), NewPostList()
	require.NoError(t, tester.Mount(hooks.Provide(EnvContext, testEnv(tester), App(user, posts))))
	assert.Equal(t, []string{"user: ", "pass: ", "[login]"}, tester.Texts())

	user.Name.Set("demo")
	user.Pass.Set("nope")
	user.Login()
	assert.Equal(t, "", user.Pass.Get(), "the password is cleared on submit")
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, "404", user.Err.Get())
	assert.True(t, tester.Find(magictest.ByText("Incorrect Username or Password")).Exists())
	assert.Equal(t, "demo", user.Name.Get(), "the name is kept after a failed login")

	user.Pass.Set("demo")
	user.Login()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, DemoAccount, user.ID())
	assert.Equal(t, "", user.Name.Get())
	assert.True(t, tester.Find(magictest.ByText("logged in as 1234")).Exists())
	assert.False(t, tester.Find(magictest.ByText("Incorrect Username or Password")).Exists())

	assert.True(t, tester.Find(magictest.ByText("sort: date asc")).Exists())
	require.Len(t, posts.List(), 20)
	assert.True(t, slices.IsSortedFunc(posts.List(), func(a, b Post) int { return int(a.Date - b.Date) }))
	assert.Equal(t, 20, tester.Find(magictest.ByName("PostItem")).Count())
	assert.False(t, posts.Loading.Get())

	posts.Sort.Change(ColumnTitle)
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.True(t, tester.Find(magictest.ByText("sort: title asc")).Exists())
	assert.True(t, slices.IsSortedFunc(posts.List(), func(a, b Post) int { return strings.Compare(a.Title, b.Title) }))

	word := strings.Fields(posts.List()[0].Title)[0]
	posts.Filter.Search(strings.ToUpper(word))
	require.NoError(t, tester.PumpAndSettle(settle))
	require.NotEmpty(t, posts.List())
	for _, p := range posts.List() {
		text := strings.ToLower(p.Title + " " + p.Blurb)
		assert.Contains(t, text, strings.ToLower(word))
	}

	posts.Filter.Search("no post says this")
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Empty(t, posts.List())
	assert.False(t, tester.Find(magictest.ByName("PostItem")).Exists())

	posts.Filter.Clear()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Len(t, posts.List(), 20)

	user.Logout()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, 0, user.ID())
	assert.Equal(t, []string{"user: ", "pass: ", "[login]"}, tester.Texts())
	assert.Equal(t, 0, posts.Bindings(), "the post list is unmounted after logout")
}

func TestLoginServerError(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	reports := recordErrors(t)
	user := NewUser()
	require.NoError(t, tester.Mount(hooks.Provide(EnvContext, testEnv(tester), App(user, NewPostList()))))

	user.Name.Set("demo")
	user.Pass.Set("nope")
	user.Login()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, "404", user.Err.Get())
	assert.Empty(t, reports.errs, "a rejected login is not a fault")

	user.Name.Set("error")
	user.Login()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, "500", user.Err.Get())
	assert.Equal(t, "Error logging in, try again later", user.ErrMessage.Get())
	assert.True(t, tester.Find(magictest.ByText("Error logging in, try again later")).Exists())
	require.Len(t, reports.errs, 1)
	assert.Equal(t, errors.KindFetch, reports.errs[0].Kind)
	assert.ErrorContains(t, reports.errs[0], "/login")
}

// fetchErrors records reported errors.
type fetchErrors struct {
	errs []*errors.MagicError
}

func (f *fetchErrors) HandleError(err *errors.MagicError)    { f.errs = append(f.errs, err) }
func (f *fetchErrors) HandlePanic(*errors.PanicError)        {}
func (f *fetchErrors) HandleRenderError(*errors.RenderError) {}

func recordErrors(t *testing.T) *fetchErrors {
	t.Helper()
	reports := &fetchErrors{}
	errors.SetHandler(reports)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return reports
}

func TestLoginWithoutEnv(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	reports := recordErrors(t)
	user := NewUser()
	require.NoError(t, tester.Mount(App(user, NewPostList())))

	user.Login()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, request.StatusUnavailable, user.Err.Get())
	assert.True(t, tester.Find(magictest.ByText("Error logging in, try again later")).Exists())
	require.Len(t, reports.errs, 1)
	assert.Equal(t, errors.KindFetch, reports.errs[0].Kind)
	assert.ErrorContains(t, reports.errs[0], "/login: no fetcher")
}

func TestPostListMessages(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	posts := NewPostList()
	require.NoError(t, tester.Mount(hooks.Provide(EnvContext, testEnv(tester), PostsView(posts))))
	assert.Nil(t, posts.List(), "nothing is fetched without a user")

	for status, msg := range postMessages {
		if len(status) == 1 {
			status += "02"
		}
		posts.Err.Set(status)
		require.NoError(t, tester.PumpAndSettle(settle))
		assert.True(t, tester.Find(magictest.ByText(msg)).Exists(), status)
	}

	posts.Err.Set("418")
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, "", posts.ErrMessage.Get())
}

func TestStaleFetchIsDropped(t *testing.T) {
	tester := magictest.NewTesterWithT(t)
	var pending []func()
	env := testEnv(tester)
	env.Go = func(fn func()) { pending = append(pending, fn) }

	user := NewUser()
	user.Payload = magic.StateOf(&Account{ID: DemoAccount})
	posts := NewPostList()
	require.NoError(t, tester.Mount(hooks.Provide(EnvContext, env,
		hooks.Provide(UserContext, user, PostsView(posts)),
	)))
	require.Len(t, pending, 1)
	assert.True(t, posts.Loading.Get())

	posts.Sort.Change(ColumnTitle)
	require.NoError(t, tester.Pump())
	require.Len(t, pending, 2)

	pending[1]()
	pending[0]()
	require.NoError(t, tester.PumpAndSettle(settle))
	assert.Equal(t, "", posts.Err.Get())
	assert.True(t, slices.IsSortedFunc(posts.List(), func(a, b Post) int { return strings.Compare(a.Title, b.Title) }),
		"the result of the abandoned date request is dropped")
}

func TestDemosPlayTheirScripts(t *testing.T) {
	routes := map[string]bool{}
	for _, d := range Demos() {
		t.Run(d.Route, func(t *testing.T) {
			assert.False(t, routes[d.Route], "duplicate route")
			routes[d.Route] = true
			found, ok := Lookup(d.Route)
			require.True(t, ok)
			assert.Equal(t, d.Title, found.Title)

			tester := magictest.NewTesterWithT(t)
			scene := d.Build(testEnv(tester))
			require.NoError(t, tester.Mount(scene.Root))
			require.NoError(t, tester.PumpAndSettle(settle))
			for _, step := range scene.Script {
				step.Do()
				require.NoError(t, tester.PumpAndSettle(settle), step.Label)
			}
			assert.NotEmpty(t, tester.Texts())
		})
	}
	_, ok := Lookup("/missing")
	assert.False(t, ok)
}

func TestSamplesAreValidClasses(t *testing.T) {
	for _, s := range Samples() {
		info, err := magic.Inspect(magic.DefaultRegistry, s)
		require.NoError(t, err, "%T", s)
		assert.NotEmpty(t, info.Annotated(), "%T", s)
	}
}
