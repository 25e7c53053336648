package db

import (
	"context"
	"time"

	"github.com/starwatch/tom/pkg/utils/cmp"
)

// Every new user joins this group.
const PublicGroup = "Public"

// UserBody is the single-table part of a user.
type UserBody struct {
	Id        int
	Username  string
	Email     string
	FirstName string
	LastName  string
	Superuser bool

	// publication fields
	LatexName   string
	Affiliation string
	OrcidId     string
	Address     string
	About       string

	Created time.Time
}

func (u *UserBody) Equal(o *UserBody) bool {
	if (u == nil) || (o == nil) {
		return (u == nil) && (o == nil)
	}
	return u.Id == o.Id &&
		u.Username == o.Username &&
		u.Email == o.Email &&
		u.FirstName == o.FirstName &&
		u.LastName == o.LastName &&
		u.Superuser == o.Superuser &&
		u.LatexName == o.LatexName &&
		u.Affiliation == o.Affiliation &&
		u.OrcidId == o.OrcidId &&
		u.Address == o.Address &&
		u.About == o.About
}

// User is a user with the names of the groups it belongs to.
type User struct {
	UserBody
	Groups []string
}

func (u *User) Equal(o *User) bool {
	if (u == nil) || (o == nil) {
		return (u == nil) && (o == nil)
	}
	return u.UserBody.Equal(&o.UserBody) &&
		cmp.SliceContentEq(u.Groups, o.Groups)
}

type UserInterface interface {
	// Register a new user with the given bcrypt password hash.
	//
	// The user joins PublicGroup along with any groups already set on it.
	// Returns the id of the new user.
	// When the username is taken, it returns ErrAlreadyExists.
	Register(ctx context.Context, user User, hashedPassword string) (int, error)

	// Retrieve users identified by ids.
	//
	// The result maps id to User. Missing ids are simply absent.
	Get(ctx context.Context, ids []int) (map[int]User, error)

	// GetByUsername retrieves the user along with its password hash.
	//
	// Returns ErrMissing when no such user exists.
	GetByUsername(ctx context.Context, username string) (User, string, error)

	// Find ids of all users.
	Find(ctx context.Context) ([]int, error)

	// Update overwrites the body of the user and reconciles its group
	// membership to the given set.
	Update(ctx context.Context, id int, user User) error

	// UpdatePassword sets a new bcrypt password hash.
	UpdatePassword(ctx context.Context, id int, hashedPassword string) error

	// Delete the user.
	Delete(ctx context.Context, id int) error
}

// Group is a named set of users.
type Group struct {
	Id   int
	Name string

	// usernames of the members
	Members []string
}

func (g *Group) Equal(o *Group) bool {
	if (g == nil) || (o == nil) {
		return (g == nil) && (o == nil)
	}
	return g.Id == o.Id && g.Name == o.Name &&
		cmp.SliceContentEq(g.Members, o.Members)
}

type GroupInterface interface {
	// Register a new group. Returns its id.
	// When the name is taken, it returns ErrAlreadyExists.
	Register(ctx context.Context, name string) (int, error)

	// Find all groups with their members.
	Find(ctx context.Context) ([]Group, error)

	// Update renames the group and reconciles its membership to the
	// given set.
	Update(ctx context.Context, id int, group Group) error

	// Delete the group. Member users are kept.
	Delete(ctx context.Context, id int) error
}
