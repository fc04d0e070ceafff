package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashSetAndVerify(t *testing.T) {
	var p PasswordHash
	assert.False(t, p.IsSet())
	assert.False(t, p.Verify(""))

	require.NoError(t, p.Set("p1", bcrypt.MinCost))
	assert.True(t, p.IsSet())
	assert.True(t, p.Verify("p1"))
	assert.False(t, p.Verify("p2"))

	stored, err := p.Value()
	require.NoError(t, err)
	assert.NotEqual(t, "p1", stored)
	assert.True(t, VerifyPassword(stored.(string), "p1"))
}

func TestPasswordHashSaltsEachDigest(t *testing.T) {
	var a, b PasswordHash
	require.NoError(t, a.Set("same", bcrypt.MinCost))
	require.NoError(t, b.Set("same", bcrypt.MinCost))

	av, _ := a.Value()
	bv, _ := b.Value()
	assert.NotEqual(t, av, bv)
}

func TestPasswordHashIsNotReadable(t *testing.T) {
	var p PasswordHash
	require.NoError(t, p.Set("secret", bcrypt.MinCost))

	_, err := json.Marshal(p)
	assert.ErrorIs(t, err, ErrPasswordUnreadable)

	_, err = json.Marshal(User{Email: "a@x.com", Password: p})
	assert.ErrorIs(t, err, ErrPasswordUnreadable)

	assert.Equal(t, "[REDACTED]", fmt.Sprint(p))
	assert.NotContains(t, fmt.Sprintf("%v", User{Password: p}), "$2a$")
}

func TestPasswordHashScan(t *testing.T) {
	digest, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	var fromString, fromBytes, fromNil PasswordHash
	require.NoError(t, fromString.Scan(digest))
	require.NoError(t, fromBytes.Scan([]byte(digest)))
	require.NoError(t, fromNil.Scan(nil))

	assert.True(t, fromString.Verify("pw"))
	assert.True(t, fromBytes.Verify("pw"))
	assert.False(t, fromNil.IsSet())
	assert.Error(t, fromNil.Scan(42))
}

func TestUserViewOmitsPassword(t *testing.T) {
	u := User{ID: 3, Email: "a@x.com"}
	require.NoError(t, u.Password.Set("pw", bcrypt.MinCost))

	body, err := json.Marshal(u.View())
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.Contains(t, string(body), `"email":"a@x.com"`)
}

func TestParcelOwnedBy(t *testing.T) {
	p := Parcel{UserID: 7}
	assert.True(t, p.OwnedBy(UserIdentity(7)))
	assert.False(t, p.OwnedBy(UserIdentity(8)))
	assert.False(t, p.OwnedBy(AdminIdentity(7)))
}
