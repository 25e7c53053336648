package users

import (
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/cmp"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

type Detail struct {
	Id          int              `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email,omitempty"`
	FirstName   string           `json:"first_name,omitempty"`
	LastName    string           `json:"last_name,omitempty"`
	Superuser   bool             `json:"is_superuser"`
	LatexName   string           `json:"latex_name,omitempty"`
	Affiliation string           `json:"affiliation,omitempty"`
	OrcidId     string           `json:"orcid_id,omitempty"`
	Address     string           `json:"address,omitempty"`
	About       string           `json:"about_me,omitempty"`
	Created     *rfctime.RFC3339 `json:"created,omitempty"`
	Groups      []string         `json:"groups"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.Id == o.Id &&
		d.Username == o.Username &&
		d.Email == o.Email &&
		d.FirstName == o.FirstName &&
		d.LastName == o.LastName &&
		d.Superuser == o.Superuser &&
		d.LatexName == o.LatexName &&
		d.Affiliation == o.Affiliation &&
		d.OrcidId == o.OrcidId &&
		d.Address == o.Address &&
		d.About == o.About &&
		cmp.SliceContentEq(d.Groups, o.Groups)
}

func ComposeDetail(u tdb.User) Detail {
	created := rfctime.New(u.Created)
	return Detail{
		Id:          u.Id,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Superuser:   u.Superuser,
		LatexName:   u.LatexName,
		Affiliation: u.Affiliation,
		OrcidId:     u.OrcidId,
		Address:     u.Address,
		About:       u.About,
		Created:     &created,
		Groups:      u.Groups,
	}
}

// Spec is the payload for creating or updating a user.
// Password is set only on creation and via the password endpoint.
type Spec struct {
	Username    string   `json:"username"`
	Password    string   `json:"password,omitempty"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Superuser   bool     `json:"is_superuser,omitempty"`
	LatexName   string   `json:"latex_name,omitempty"`
	Affiliation string   `json:"affiliation,omitempty"`
	OrcidId     string   `json:"orcid_id,omitempty"`
	Address     string   `json:"address,omitempty"`
	About       string   `json:"about_me,omitempty"`
	Groups      []string `json:"groups,omitempty"`
}

func (s *Spec) Decompose() tdb.User {
	return tdb.User{
		UserBody: tdb.UserBody{
			Username:    s.Username,
			Email:       s.Email,
			FirstName:   s.FirstName,
			LastName:    s.LastName,
			Superuser:   s.Superuser,
			LatexName:   s.LatexName,
			Affiliation: s.Affiliation,
			OrcidId:     s.OrcidId,
			Address:     s.Address,
			About:       s.About,
		},
		Groups: s.Groups,
	}
}

// PasswordChange is the payload of the password endpoint.
type PasswordChange struct {
	Password string `json:"password"`
}

type Group struct {
	Id      int      `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"users"`
}

func (g *Group) Equal(o *Group) bool {
	if (g == nil) || (o == nil) {
		return (g == nil) && (o == nil)
	}
	return g.Id == o.Id &&
		g.Name == o.Name &&
		cmp.SliceContentEq(g.Members, o.Members)
}

func ComposeGroup(g tdb.Group) Group {
	return Group{Id: g.Id, Name: g.Name, Members: g.Members}
}
