package showcase

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DemoAccount is the id returned for the demo/demo login.
const DemoAccount = 1234

var postNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/go-drift/magic/showcase/posts"))

var lorem = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam
quis nostrud exercitation ullamco laboris nisi aliquip ex ea commodo consequat
duis aute irure in reprehenderit voluptate velit esse cillum fugiat nulla
pariatur excepteur sint occaecat cupidatat non proident sunt culpa qui officia
deserunt mollit anim id est laborum`)

// SeedPosts returns n posts generated from seed. The same arguments always
// give the same posts.
func SeedPosts(n int, seed uint64) []Post {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	epoch := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	words := func(n int) string {
		out := make([]string, n)
		for i := range out {
			out[i] = lorem[rng.IntN(len(lorem))]
		}
		return strings.Join(out, " ")
	}
	posts := make([]Post, n)
	for i := range posts {
		title := words(3 + rng.IntN(4))
		posts[i] = Post{
			ID:    uuid.NewSHA1(postNamespace, fmt.Appendf(nil, "%d/%d", seed, i)).String(),
			Title: strings.ToUpper(title[:1]) + title[1:],
			Date:  epoch.Add(-time.Duration(rng.IntN(365*24)) * time.Hour).UnixMilli(),
			Blurb: words(12+rng.IntN(12)) + ".",
		}
	}
	return posts
}

// Server is an in-process stand-in for the posts API.
type Server struct {
	posts  []Post
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer returns a server holding posts. A nil logger uses
// slog.Default().
func NewServer(posts []Post, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{posts: posts, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /posts", s.handlePosts)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("api request", "method", r.Method, "path", r.URL.Path, "status", rec.status)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Name string `json:"name"`
		Pass string `json:"pass"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch {
	case creds.Name == "demo" && creds.Pass == "demo":
		writeJSON(w, Account{ID: DemoAccount})
	case creds.Name == "error":
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handlePosts lists the posts whose title or blurb matches query, a case
// insensitive pattern, sorted by column.
func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("id") == "" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	var key func(Post) string
	switch column := cmp.Or(q.Get("column"), ColumnDate); column {
	case ColumnDate:
		key = func(p Post) string { return fmt.Sprintf("%020d", p.Date) }
	case ColumnTitle:
		key = func(p Post) string { return p.Title }
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	list := slices.Clone(s.posts)
	if query := q.Get("query"); query != "" {
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
		}
		list = slices.DeleteFunc(list, func(p Post) bool {
			return !re.MatchString(p.Title) && !re.MatchString(p.Blurb)
		})
	}
	ascending := q.Get("ascending") == "true"
	slices.SortStableFunc(list, func(a, b Post) int {
		c := strings.Compare(key(a), key(b))
		if !ascending {
			c = -c
		}
		return c
	})
	if list == nil {
		list = []Post{}
	}
	writeJSON(w, PostPage{List: list})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
