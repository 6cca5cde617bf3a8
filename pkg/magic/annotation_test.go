package magic

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/magic/pkg/errors"
	"github.com/go-drift/magic/pkg/hooks"
)

type requestBase struct {
	Object
	Loading State[bool]
	Error   State[string]
}

func (r *requestBase) Fetch() {}

type userRequest struct {
	requestBase
	Name  State[string]
	Error State[string]
}

type badFields struct {
	Object
	Plain  int
	Lazy   Memo[int]
	Inner  *requestBase
	hidden State[int]
}

func (b *badFields) Measure(px int) {}
func (b *badFields) Start() func()  { return nil }

func newInheritanceRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	base := reflect.TypeFor[requestBase]()
	require.NoError(t, reg.Annotate(base, IsState("Loading")))
	require.NoError(t, reg.Annotate(base, IsState("Error")))
	require.NoError(t, reg.Annotate(base, IsEffect("Fetch", Fixed())))
	require.NoError(t, reg.Annotate(reflect.TypeFor[userRequest](), IsState("Name")))
	return reg
}

func TestDeps(t *testing.T) {
	assert.Nil(t, Always().Resolve(nil))
	assert.Equal(t, []any{}, Fixed().Resolve(nil))
	assert.Equal(t, []any{1, "a"}, Fixed(1, "a").Resolve(nil))

	d := DepsFunc(func(r *userRequest) []any { return []any{r.Name.Get()} })
	r := &userRequest{Name: StateOf("ada")}
	assert.Equal(t, []any{"ada"}, d.Resolve(r))
	assert.True(t, d.IsFunc())

	assert.Equal(t, "always", Always().String())
	assert.Equal(t, "once", Fixed().String())
	assert.Equal(t, "fixed(2)", Fixed(1, 2).String())
	assert.Equal(t, "computed", d.String())
}

func TestAnnotateRejectsInvalidMembers(t *testing.T) {
	reg := NewRegistry()
	typ := reflect.TypeFor[badFields]()

	tests := []struct {
		name string
		a    Annotation
	}{
		{"missing field", IsState("Nope")},
		{"unexported field", IsState("hidden")},
		{"effect on a field", IsEffect("Plain", Always())},
		{"missing method", IsLayoutEffect("Nope", Always())},
		{"empty member", IsState("")},
		{"context without handle", IsContext("Plain", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Annotate(typ, tt.a)
			require.Error(t, err)
			assert.Equal(t, errors.KindConfig, errors.KindOf(err))
		})
	}

	err := reg.Annotate(reflect.TypeFor[int](), IsState("X"))
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
	assert.Empty(t, reg.Types())
}

func TestAnnotateAcceptsPointerTypes(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Annotate(reflect.TypeFor[*requestBase](), IsState("Loading")))
	assert.Equal(t, []reflect.Type{reflect.TypeFor[requestBase]()}, reg.Types())
}

func TestLookupWalksEmbeddedTypes(t *testing.T) {
	reg := newInheritanceRegistry(t)
	u := &userRequest{}

	a, ok, err := reg.Lookup(CategoryState, u, "Loading")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Loading", a.Member)

	_, ok, err = reg.Lookup(CategoryMemo, u, "Loading")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = reg.Lookup(CategoryState, nil, "Loading")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupPrefersMostDerivedType(t *testing.T) {
	reg := newInheritanceRegistry(t)
	require.NoError(t, reg.Annotate(reflect.TypeFor[userRequest](), IsEffect("Fetch", Always())))

	a, ok, err := reg.Lookup(CategoryEffect, &userRequest{}, "Fetch")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "always", a.Deps.String())

	a, ok, err = reg.Lookup(CategoryEffect, &requestBase{}, "Fetch")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "once", a.Deps.String())
}

func TestConflictPolicy(t *testing.T) {
	reg := NewRegistry()
	typ := reflect.TypeFor[requestBase]()
	require.NoError(t, reg.Annotate(typ, IsEffect("Fetch", Fixed())))
	require.NoError(t, reg.Annotate(typ, IsEffect("Fetch", Always())))

	_, err := Discover(reg, &requestBase{})
	require.Error(t, err)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))

	reg.SetConflictPolicy(ConflictLastWins)
	assert.Equal(t, ConflictLastWins, reg.ConflictPolicy())
	ms, err := Discover(reg, &requestBase{})
	require.NoError(t, err)
	a, ok := ms.Get("Fetch").Annotation(CategoryEffect)
	require.True(t, ok)
	assert.Equal(t, "always", a.Deps.String())
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := ParseConflictPolicy("last-wins")
	require.NoError(t, err)
	assert.Equal(t, ConflictLastWins, p)
	assert.Equal(t, "last-wins", p.String())

	p, err = ParseConflictPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ConflictReject, p)

	_, err = ParseConflictPolicy("first-wins")
	assert.Error(t, err)
}

func TestDiscoverOrderAndShadowing(t *testing.T) {
	reg := newInheritanceRegistry(t)
	ms, err := Discover(reg, &userRequest{})
	require.NoError(t, err)

	var names []string
	for _, m := range ms.All() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Name", "Error", "Loading", "Fetch"}, names)

	errMember := ms.Get("Error")
	assert.Equal(t, reflect.TypeFor[userRequest](), errMember.Owner)
	assert.Equal(t, 0, errMember.Depth)
	assert.True(t, errMember.Has(CategoryState), "redeclared field keeps the embedded annotation")

	loading := ms.Get("Loading")
	assert.Equal(t, reflect.TypeFor[requestBase](), loading.Owner)
	assert.Equal(t, 1, loading.Depth)
	assert.Equal(t, []int{0, 1}, loading.Index)

	fetch := ms.Get("Fetch")
	assert.True(t, fetch.Method)
	assert.Equal(t, []Category{CategoryEffect}, fetch.Categories())

	states := ms.ByCategory(CategoryState)
	require.Len(t, states, 3)
	assert.Equal(t, "Name", states[0].Name)
	assert.Nil(t, ms.Get("Bindings"), "Object methods are not members")
}

func TestDiscoverValidation(t *testing.T) {
	handle := hooks.NewContext(0)
	tests := []struct {
		name string
		a    Annotation
	}{
		{"state on plain field", IsState("Plain")},
		{"collection on plain field", IsStateCollection("Plain")},
		{"memo without compute", IsMemo("Lazy", Always())},
		{"memo on plain field", IsMemo("Plain", Always())},
		{"magic on plain field", IsMagic("Plain")},
		{"effect with arguments", IsEffect("Measure", Always())},
		{"state on memo field", IsState("Lazy")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			require.NoError(t, reg.Annotate(reflect.TypeFor[badFields](), tt.a))
			_, err := Discover(reg, &badFields{})
			require.Error(t, err)
			assert.Equal(t, errors.KindConfig, errors.KindOf(err))
			var me *errors.MagicError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.a.Member, me.Member)
		})
	}

	reg := NewRegistry()
	typ := reflect.TypeFor[badFields]()
	require.NoError(t, reg.Annotate(typ, IsContext("Plain", handle)))
	require.NoError(t, reg.Annotate(typ, IsMagic("Inner")))
	require.NoError(t, reg.Annotate(typ, IsEffect("Start", Fixed())))
	_, err := Discover(reg, &badFields{})
	assert.NoError(t, err)
}

func TestDiscoverRejectsNonMagicValues(t *testing.T) {
	reg := NewRegistry()
	for _, v := range []any{nil, 3, struct{}{}, &struct{ X int }{}, (*requestBase)(nil)} {
		_, err := Discover(reg, v)
		require.Error(t, err, "%T", v)
		assert.True(t, errors.Is(err, errors.ErrNotMagic), "%T", v)
	}
}

func TestInspect(t *testing.T) {
	reg := newInheritanceRegistry(t)
	info, err := Inspect(reg, &userRequest{})
	require.NoError(t, err)
	assert.Equal(t, "magic.userRequest", info.Type)

	annotated := info.Annotated()
	require.Len(t, annotated, 4)
	assert.Equal(t, MemberInfo{
		Name:       "Fetch",
		Owner:      "magic.userRequest",
		Method:     true,
		Categories: []string{"effect"},
		Deps:       "once",
	}, annotated[3])
	assert.Contains(t, info.String(), "Loading          state\n")
}

func TestDepsFuncOnDerivedInstance(t *testing.T) {
	d := DepsFunc(func(r *requestBase) []any { return []any{r.Loading.Get()} })
	u := &userRequest{}
	u.Loading = StateOf(true)
	assert.Equal(t, []any{true}, d.Resolve(u))
	assert.Nil(t, d.Resolve(&badFields{}))
}
