package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/storage"
)

func TestPersistentMemoryStoreRestoresHiddenFields(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	js, err := storage.NewJSONStore(dir, "batchboard.json")
	require.NoError(t, err)
	store, err := NewPersistentMemoryStore(js)
	require.NoError(t, err)

	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "u1", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: now}))
	require.NoError(t, store.CreateMedia(ctx, &models.Media{ID: "m1", UserID: "u1", FileURL: "/uploads/u1/1.png", ObjectKey: "u1/1.png", UploadedAt: now}))
	require.NoError(t, store.AddView(ctx, &models.ProfileView{ID: "v1", ProfileID: "p1", VisitedAt: now}))

	js2, err := storage.NewJSONStore(dir, "batchboard.json")
	require.NoError(t, err)
	reopened, err := NewPersistentMemoryStore(js2)
	require.NoError(t, err)

	u, err := reopened.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	m, err := reopened.GetMedia(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "u1/1.png", m.ObjectKey)

	n, err := reopened.CountViews(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	bio := "original"
	require.NoError(t, store.CreateProfile(ctx, &models.Profile{ID: "p1", UserID: "u1", StudentID: "STU001", Bio: &bio, Skills: []string{"Go"}}))

	p, err := store.GetProfileByID(ctx, "p1")
	require.NoError(t, err)
	p.Skills[0] = "changed"
	*p.Bio = "changed"

	again, err := store.GetProfileByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, again.Skills)
	assert.Equal(t, "original", *again.Bio)
}
