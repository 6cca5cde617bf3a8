package showcase

import (
	"net/http"

	"github.com/go-drift/magic/pkg/hooks"
	"github.com/go-drift/magic/pkg/magic"
	"github.com/go-drift/magic/pkg/request"
)

// Account is the payload of a successful login.
type Account struct {
	ID int `json:"id"`
}

// User is the login form and the session it opens.
type User struct {
	RequestData[*Account]

	Name magic.State[string]
	Pass magic.State[string]
}

// UserContext provides the *User to the post list.
var UserContext = hooks.NewNamedContext("user", (*User)(nil))

var userMessages = map[string]string{
	"404": "Incorrect Username or Password",
	"5":   "Error logging in, try again later",
}

func init() {
	annotateRequest[*Account]()
	magic.Annotate[User](
		magic.IsState("Name"),
		magic.IsState("Pass"),
	)
}

// NewUser returns a logged out user.
func NewUser() *User {
	u := &User{}
	u.Init()
	return u
}

// Init implements magic.Initializer.
func (u *User) Init() {
	u.initRequest(userMessages)
}

// ID returns the account id, or 0 when logged out.
func (u *User) ID() int {
	if a := u.Payload.Get(); a != nil {
		return a.ID
	}
	return 0
}

// Login submits the form. The name is cleared when the login succeeds and
// the password is always cleared.
func (u *User) Login() {
	body := map[string]string{"name": u.Name.Get(), "pass": u.Pass.Get()}
	u.Fetch("/login", request.Options{Method: http.MethodPost, Body: body}, func(*Account) {
		u.Name.Set("")
	})
	u.Pass.Set("")
}

// Logout ends the session.
func (u *User) Logout() {
	id := u.ID()
	if id == 0 {
		return
	}
	u.Fetch("/logout", request.Options{Method: http.MethodPost, Body: map[string]int{"id": id}}, func(*Account) {
		u.Payload.Set(nil)
	})
}
