package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for every failed login so callers cannot
// tell a wrong id from a wrong password.
var ErrInvalidCredentials = errors.New("invalid employee id or password")

// ErrForbidden is returned when a user's role does not allow an operation.
var ErrForbidden = errors.New("operation not allowed for this role")

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

func (u User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u User) IsCustomer() bool { return u.Role == RoleCustomer }

// Directory looks up a user and verifies the password.
type Directory interface {
	Authenticate(ctx context.Context, id, password string) (User, error)
	Lookup(ctx context.Context, id string) (User, bool)
}

// DefaultUsers is the built-in staff list. Each user's password is their role.
var DefaultUsers = []User{
	{ID: "admin", Name: "Store Admin", Role: RoleAdmin},
	{ID: "customer", Name: "Walk-in Customer", Role: RoleCustomer},
	{ID: "cust01", Name: "Priya", Role: RoleCustomer},
	{ID: "user", Name: "Customer", Role: RoleCustomer},
}

type entry struct {
	user User
	hash []byte
}

// StaticDirectory is a fixed, in-process user list.
type StaticDirectory struct {
	users map[string]entry
	dummy []byte
}

// NewStaticDirectory hashes each user's role as their password.
func NewStaticDirectory(users []User) (*StaticDirectory, error) {
	d := &StaticDirectory{users: make(map[string]entry, len(users))}
	for _, u := range users {
		h, err := bcrypt.GenerateFromPassword([]byte(u.Role), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.ID, err)
		}
		d.users[u.ID] = entry{user: u, hash: h}
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("no-such-user"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	d.dummy = dummy
	return d, nil
}

func (d *StaticDirectory) Authenticate(ctx context.Context, id, password string) (User, error) {
	e, ok := d.users[id]
	if !ok {
		// same bcrypt cost on unknown ids
		_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(e.hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return e.user, nil
}

func (d *StaticDirectory) Lookup(ctx context.Context, id string) (User, bool) {
	e, ok := d.users[id]
	return e.user, ok
}
