package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
)

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	accounts := NewAccountService(env.store, env.comments, env.blobs, nil)
	ctx := context.Background()

	owner := env.signUp(t, "STU001", "Ada Lovelace")
	other := env.signUp(t, "STU002", "Bob Babbage")

	page, err := env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Notes", Content: "body"})
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, other.User.ID, &models.CreateCommentRequest{TargetType: models.TargetPage, TargetID: page.ID, Content: "on page"})
	require.NoError(t, err)
	elsewhere, err := env.comments.Create(ctx, owner.User.ID, &models.CreateCommentRequest{TargetType: models.TargetProfile, TargetID: other.Profile.ID, Content: "left elsewhere"})
	require.NoError(t, err)
	kept, err := env.comments.Create(ctx, other.User.ID, &models.CreateCommentRequest{TargetType: models.TargetProfile, TargetID: other.Profile.ID, Content: "stays"})
	require.NoError(t, err)

	m, err := env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "me.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	require.NoError(t, env.views.Track(ctx, owner.Profile.ID, other.User.ID))

	var streamed []models.CommentEvent
	env.hub.Subscribe(realtime.CommentTopic(models.TargetProfile, other.Profile.ID), func(b []byte) {
		var ev models.CommentEvent
		require.NoError(t, json.Unmarshal(b, &ev))
		streamed = append(streamed, ev)
	})

	res, err := accounts.DeleteAccount(ctx, owner.User.ID)
	require.NoError(t, err)
	assert.Equal(t, &DeleteAccountResult{Pages: 1, Comments: 2, Media: 1}, res)
	require.Len(t, streamed, 1)
	assert.Equal(t, models.ChangeDelete, streamed[0].Type)
	assert.Equal(t, elsewhere.ID, streamed[0].Comment.ID)

	_, err = env.store.GetUserByID(ctx, owner.User.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.store.GetProfileByStudentID(ctx, "STU001")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.store.GetPage(ctx, page.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.store.GetMedia(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(env.blobs.dir, filepath.FromSlash(m.ObjectKey)))
	assert.True(t, os.IsNotExist(err))

	views, err := env.store.CountViews(ctx, owner.Profile.ID)
	require.NoError(t, err)
	assert.Zero(t, views)

	remaining, err := env.comments.List(ctx, models.TargetProfile, other.Profile.ID)
	require.NoError(t, err)
	require.Len(t, remaining.Comments, 1)
	assert.Equal(t, kept.ID, remaining.Comments[0].ID)

	// Email and student id are free again.
	env.signUp(t, "STU001", "Ada Lovelace")
}
