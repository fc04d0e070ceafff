package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/sendit-backend/internal/models"
)

func floatPtr(f float64) *float64 { return &f }
func uintPtr(u uint) *uint         { return &u }

func TestCreateParcel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")

	view := env.createParcel(t, owner)
	assert.Equal(t, owner.ID, view.UserID)
	assert.Equal(t, models.ParcelStatusPending, view.Status)
	assert.Nil(t, view.DestinationID)

	tests := []struct {
		name   string
		caller models.Identity
		input  CreateParcelInput
		kind   ErrorKind
	}{
		{"missing item", owner, CreateParcelInput{Weight: 1}, KindValidation},
		{"missing weight", owner, CreateParcelInput{Item: "box"}, KindValidation},
		{"negative weight", owner, CreateParcelInput{Item: "box", Weight: -1}, KindValidation},
		{"unknown destination", owner, CreateParcelInput{Item: "box", Weight: 1, DestinationID: uintPtr(77)}, KindValidation},
		{"admin caller", models.AdminIdentity(owner.ID), CreateParcelInput{Item: "box", Weight: 1}, KindForbidden},
		{"deleted user", models.UserIdentity(999), CreateParcelInput{Item: "box", Weight: 1}, KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.parcels.Create(ctx, tt.caller, tt.input)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestCreateParcelWithDestination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")

	dest, err := env.destinations.Create(ctx, CreateDestinationInput{Name: "Hub", Location: "Nairobi"})
	require.NoError(t, err)

	view, err := env.parcels.Create(ctx, owner, CreateParcelInput{
		Item: "box", Weight: 2, Cost: 150, Description: "fragile", DestinationID: &dest.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, view.DestinationID)
	assert.Equal(t, dest.ID, *view.DestinationID)
	assert.Equal(t, 150.0, view.Cost)
}

func TestUpdateParcelDetachDestination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")

	dest, err := env.destinations.Create(ctx, CreateDestinationInput{Name: "Hub", Location: "Nairobi"})
	require.NoError(t, err)
	parcel, err := env.parcels.Create(ctx, owner, CreateParcelInput{Item: "box", Weight: 2, DestinationID: &dest.ID})
	require.NoError(t, err)

	other := dest.ID + 50
	updated, err := env.parcels.Update(ctx, owner, parcel.ID, UpdateParcelInput{DestinationID: &other, DetachDestination: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DestinationID)

	stored, err := env.parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DestinationID)
}

func TestUpdateParcelOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")
	stranger := env.createUser(t, "b@x.com")
	admin := env.createAdmin(t, "root@x.com")
	parcel := env.createParcel(t, owner)

	for _, caller := range []models.Identity{stranger, admin} {
		_, err := env.parcels.Update(ctx, caller, parcel.ID, UpdateParcelInput{Item: strPtr("stolen"), Status: strPtr("Lost")})
		assert.True(t, IsKind(err, KindForbidden))
	}

	unchanged, err := env.parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)
	assert.Equal(t, parcel, unchanged)

	_, err = env.parcels.Update(ctx, owner, 999, UpdateParcelInput{Item: strPtr("x")})
	assert.True(t, IsKind(err, KindNotFound))

	updated, err := env.parcels.Update(ctx, owner, parcel.ID, UpdateParcelInput{Weight: floatPtr(3.5)})
	require.NoError(t, err)
	assert.Equal(t, 3.5, updated.Weight)
	assert.Equal(t, "box", updated.Item)
	assert.Empty(t, env.notifier.Events())
}

func TestOwnerStatusUpdateEmitsEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")
	parcel := env.createParcel(t, owner)

	updated, err := env.parcels.Update(ctx, owner, parcel.ID, UpdateParcelInput{Status: strPtr("Delivered")})
	require.NoError(t, err)
	assert.Equal(t, "Delivered", updated.Status)

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ParcelStatusEventType, events[0].Type)
	assert.Equal(t, "Pending", events[0].PreviousStatus)
	assert.Equal(t, "Delivered", events[0].Status)
	assert.Equal(t, "a@x.com", events[0].OwnerEmail)
	assert.Equal(t, owner.String(), events[0].ChangedBy)
}

func TestChangeStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")
	admin := env.createAdmin(t, "root@x.com")
	parcel := env.createParcel(t, owner)

	forbidden := []models.Identity{owner, models.AdminIdentity(admin.ID + 10)}
	for _, caller := range forbidden {
		_, err := env.parcels.ChangeStatus(ctx, caller, parcel.ID, "Delivered")
		assert.True(t, IsKind(err, KindForbidden), "caller %s", caller)
	}
	current, err := env.parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusPending, current.Status)

	_, err = env.parcels.ChangeStatus(ctx, admin, 999, "Delivered")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = env.parcels.ChangeStatus(ctx, admin, parcel.ID, " ")
	assert.True(t, IsKind(err, KindValidation))

	updated, err := env.parcels.ChangeStatus(ctx, admin, parcel.ID, "In Transit")
	require.NoError(t, err)
	assert.Equal(t, "In Transit", updated.Status)
	assert.Equal(t, owner.ID, updated.UserID)

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, admin.String(), events[0].ChangedBy)
}

func TestDeleteParcel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")
	stranger := env.createUser(t, "b@x.com")
	parcel := env.createParcel(t, owner)

	assert.True(t, IsKind(env.parcels.Delete(ctx, stranger, parcel.ID), KindForbidden))
	_, err := env.parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)

	require.NoError(t, env.parcels.Delete(ctx, owner, parcel.ID))
	for i := 0; i < 2; i++ {
		assert.True(t, IsKind(env.parcels.Delete(ctx, owner, parcel.ID), KindNotFound))
	}
}

func TestListParcels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createUser(t, "a@x.com")
	b := env.createUser(t, "b@x.com")
	admin := env.createAdmin(t, "root@x.com")
	env.createParcel(t, a)
	env.createParcel(t, a)
	env.createParcel(t, b)

	own, err := env.parcels.List(ctx, a)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	all, err := env.parcels.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAttachImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")
	stranger := env.createUser(t, "b@x.com")
	parcel := env.createParcel(t, owner)

	_, err := env.parcels.AttachImage(ctx, stranger, parcel.ID, imageHeader(t, "box.png", pngHeader))
	assert.True(t, IsKind(err, KindForbidden))

	_, err = env.parcels.AttachImage(ctx, owner, parcel.ID, imageHeader(t, "notes.txt", []byte("plain text")))
	assert.True(t, IsKind(err, KindValidation))

	_, err = env.parcels.AttachImage(ctx, owner, parcel.ID, nil)
	assert.True(t, IsKind(err, KindValidation))

	first, err := env.parcels.AttachImage(ctx, owner, parcel.ID, imageHeader(t, "box.png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Image, "http://localhost:8080/uploads/parcels/"))

	stored, err := env.store.Repositories().Parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)
	firstPath := filepath.Join(env.storage.Dir(), filepath.FromSlash(stored.Image))
	assert.FileExists(t, firstPath)

	_, err = env.parcels.AttachImage(ctx, owner, parcel.ID, imageHeader(t, "box2.png", pngHeader))
	require.NoError(t, err)
	assert.NoFileExists(t, firstPath)

	stored, err = env.store.Repositories().Parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)
	secondPath := filepath.Join(env.storage.Dir(), filepath.FromSlash(stored.Image))

	require.NoError(t, env.parcels.Delete(ctx, owner, parcel.ID))
	_, statErr := os.Stat(secondPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestParcelTimestamps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, "a@x.com")
	parcel := env.createParcel(t, owner)

	stored, err := env.store.Repositories().Parcels.Get(ctx, parcel.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stored.CreatedAt, time.Minute)
}
