package showcase

import (
	"net/url"
	"strconv"

	"github.com/go-drift/magic/pkg/magic"
	"github.com/go-drift/magic/pkg/request"
)

// Post columns the API sorts by.
const (
	ColumnDate  = "date"
	ColumnTitle = "title"
)

// Post is one entry of the post list. Date is in Unix milliseconds.
type Post struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  int64  `json:"date"`
	Blurb string `json:"blurb"`
}

// PostPage is the payload of GET /posts.
type PostPage struct {
	List []Post `json:"list"`
}

// Filter holds the search query of the post list. An empty query matches
// every post.
type Filter struct {
	magic.Object

	Query magic.State[string]
}

// Search sets the query.
func (f *Filter) Search(query string) {
	f.Query.Set(query)
}

// Clear removes the query.
func (f *Filter) Clear() {
	f.Query.Set("")
}

// Sort holds the sort order of the post list, oldest first by default.
type Sort struct {
	magic.Object

	Column    magic.State[string]
	Ascending magic.State[bool]
}

// NewSort returns the default order.
func NewSort() *Sort {
	s := &Sort{}
	s.Init()
	return s
}

// Init implements magic.Initializer.
func (s *Sort) Init() {
	s.Column = magic.StateOf(ColumnDate)
	s.Ascending = magic.StateOf(true)
}

// Change sorts by column. Dates sort descending and other columns
// ascending.
func (s *Sort) Change(column string) {
	s.Column.Set(column)
	s.Ascending.Set(column != ColumnDate)
}

// SetAscending sets the direction without changing the column.
func (s *Sort) SetAscending(ascending bool) {
	s.Ascending.Set(ascending)
}

// PostList loads the posts visible to the user in context, refetching
// whenever the query, the order or the user changes.
type PostList struct {
	RequestData[*PostPage]

	User   *User
	Sort   *Sort
	Filter *Filter
}

var postMessages = map[string]string{
	"5":   "Error retrieving posts",
	"404": "No posts found",
	"403": "You don't have permission to view these posts",
}

func init() {
	magic.Annotate[Filter](magic.IsState("Query"))
	magic.Annotate[Sort](
		magic.IsState("Column"),
		magic.IsState("Ascending"),
	)

	annotateRequest[*PostPage]()
	magic.Annotate[PostList](
		magic.IsContext("User", UserContext),
		magic.IsMagic("Sort"),
		magic.IsMagic("Filter"),
		magic.IsEffect("Update", magic.DepsFunc(func(p *PostList) []any {
			return []any{p.Filter.Query.Get(), p.Sort.Column.Get(), p.Sort.Ascending.Get(), p.userID()}
		})),
	)
}

// NewPostList returns an empty list with the default order.
func NewPostList() *PostList {
	p := &PostList{}
	p.Init()
	return p
}

// Init implements magic.Initializer.
func (p *PostList) Init() {
	p.initRequest(postMessages)
	p.Sort = NewSort()
	p.Filter = &Filter{}
}

// List returns the loaded posts.
func (p *PostList) List() []Post {
	if page := p.Payload.Get(); page != nil {
		return page.List
	}
	return nil
}

func (p *PostList) userID() int {
	if p.User == nil {
		return 0
	}
	return p.User.ID()
}

// Update fetches the posts for the current query and order, or clears them
// when nobody is logged in. The returned cleanup abandons the request.
func (p *PostList) Update() func() {
	id := p.userID()
	if id == 0 {
		p.Payload.Set(nil)
		return nil
	}
	q := url.Values{}
	q.Set("column", p.Sort.Column.Get())
	q.Set("ascending", strconv.FormatBool(p.Sort.Ascending.Get()))
	q.Set("id", strconv.Itoa(id))
	q.Set("query", p.Filter.Query.Get())
	return p.Fetch("/posts", request.Options{Query: q}, nil)
}
