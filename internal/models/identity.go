package models

import "fmt"

type IdentityKind string

const (
	IdentityUser  IdentityKind = "user"
	IdentityAdmin IdentityKind = "admin"
)

func (k IdentityKind) Valid() bool {
	return k == IdentityUser || k == IdentityAdmin
}

// Identity is the authenticated caller decoded from a bearer token
type Identity struct {
	Kind IdentityKind `json:"kind"`
	ID   uint         `json:"id"`
}

func UserIdentity(id uint) Identity {
	return Identity{Kind: IdentityUser, ID: id}
}

func AdminIdentity(id uint) Identity {
	return Identity{Kind: IdentityAdmin, ID: id}
}

func (i Identity) IsUser() bool  { return i.Kind == IdentityUser }
func (i Identity) IsAdmin() bool { return i.Kind == IdentityAdmin }

// IsUserID reports whether the identity is the user with the given id
func (i Identity) IsUserID(id uint) bool {
	return i.Kind == IdentityUser && i.ID == id
}

func (i Identity) String() string {
	return fmt.Sprintf("%s:%d", i.Kind, i.ID)
}
