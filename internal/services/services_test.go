package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/RehanEggSupplierdev/batchboard/internal/format"
	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/realtime"
)

type testEnv struct {
	store     *MemoryStore
	hub       *realtime.Hub
	auth      *AuthService
	views     *ViewService
	profiles  *ProfileService
	pages     *PageService
	comments  *CommentService
	media     *MediaService
	dashboard *DashboardService
	blobs     *LocalBlobStore
	moderator *stubModerator
}

type stubModerator struct {
	reject bool
	calls  int
}

func (m *stubModerator) Moderate(ctx context.Context, data []byte) error {
	m.calls++
	if m.reject {
		return ErrImageRejected
	}
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := NewMemoryStore()
	hub := realtime.NewHub()
	blobs, err := NewLocalBlobStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	env := &testEnv{store: store, hub: hub, blobs: blobs, moderator: &stubModerator{}}
	env.auth = NewAuthService(store, store, NewTokenIssuer("secret", "batchboard", "batchboard-web", time.Hour), nil, nil)
	env.auth.cost = bcrypt.MinCost
	env.views = NewViewService(store, nil)
	env.profiles = NewProfileService(store, store, env.views, nil, hub)
	env.comments = NewCommentService(store, store, store, hub, nil)
	env.pages = NewPageService(store, env.comments, env.profiles)
	env.media = NewMediaService(store, blobs, env.moderator, env.profiles, 10<<20)
	env.dashboard = NewDashboardService(env.profiles, store, store, env.views)
	return env
}

func (e *testEnv) signUp(t *testing.T, studentID, name string) *models.Session {
	t.Helper()
	req := &models.SignUpRequest{
		Email:     studentID + "@example.com",
		Password:  "secret1",
		FullName:  name,
		StudentID: studentID,
	}
	req.Normalize()
	session, err := e.auth.SignUp(context.Background(), req)
	require.NoError(t, err)
	return session
}

func TestSignUpCreatesPublicProfile(t *testing.T) {
	env := newTestEnv(t)

	session := env.signUp(t, "STU001", "Ada Lovelace")

	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "stu001@example.com", session.User.Email)
	require.NotNil(t, session.Profile)
	assert.True(t, session.Profile.Public)
	assert.True(t, session.Profile.FirstLogin)
	assert.Empty(t, session.Profile.Skills)
	assert.False(t, session.IsAdmin)
}

func TestSignUpDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "STU001", "Ada Lovelace")

	_, err := env.auth.SignUp(ctx, &models.SignUpRequest{Email: "other@example.com", Password: "secret1", FullName: "Other", StudentID: "STU001"})
	assert.ErrorIs(t, err, ErrStudentIDTaken)

	_, err = env.auth.SignUp(ctx, &models.SignUpRequest{Email: "stu001@example.com", Password: "secret1", FullName: "Other", StudentID: "STU002"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.store.GetProfileByStudentID(ctx, "STU002")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminStudentIDs(t *testing.T) {
	env := newTestEnv(t)

	session := env.signUp(t, "ADMIN001", "Site Admin")
	assert.True(t, session.IsAdmin)
}

func TestSignInAndSignOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signUp(t, "STU001", "Ada Lovelace")

	_, err := env.auth.SignIn(ctx, &models.SignInRequest{Email: "stu001@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.SignIn(ctx, &models.SignInRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := env.auth.SignIn(ctx, &models.SignInRequest{Email: "  STU001@Example.com ", Password: "secret1"})
	require.NoError(t, err)

	claims, err := env.auth.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	require.NoError(t, env.auth.SignOut(ctx, claims))
	_, err = env.auth.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestUpdatePasswordClearsFirstLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.signUp(t, "STU001", "Ada Lovelace")

	err := env.auth.UpdatePassword(ctx, session.User.ID, &models.UpdatePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass", ConfirmPassword: "newpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.auth.UpdatePassword(ctx, session.User.ID, &models.UpdatePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass", ConfirmPassword: "newpass"}))

	profile, err := env.profiles.GetMine(ctx, session.User.ID)
	require.NoError(t, err)
	assert.False(t, profile.FirstLogin)

	_, err = env.auth.SignIn(ctx, &models.SignInRequest{Email: "stu001@example.com", Password: "newpass"})
	assert.NoError(t, err)
}

func TestTokenIssuerRejectsForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", "batchboard", "batchboard-web", time.Hour)
	other := NewTokenIssuer("secret", "batchboard", "someone-else", time.Hour)

	token, _, err := other.Issue("u1")
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("secret", "batchboard", "batchboard-web", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Issue("u1")
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdateProfileAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.signUp(t, "STU001", "Ada Lovelace")

	var mu sync.Mutex
	var events []models.ProfileEvent
	env.hub.Subscribe(realtime.ProfileTopic(session.Profile.ID), func(b []byte) {
		var ev models.ProfileEvent
		require.NoError(t, json.Unmarshal(b, &ev))
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	bio := "Loves engines"
	empty := ""
	skills := []string{"Go", "Math"}
	p, err := env.profiles.UpdateMine(ctx, session.User.ID, &models.UpdateProfileRequest{Bio: &bio, Quote: &empty, Skills: &skills})
	require.NoError(t, err)

	require.NotNil(t, p.Bio)
	assert.Equal(t, "Loves engines", *p.Bio)
	assert.Nil(t, p.Quote)
	assert.Equal(t, []string{"Go", "Math"}, p.Skills)
	require.Len(t, events, 1)
	assert.Equal(t, models.ChangeUpdate, events[0].Type)
}

func TestDirectory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.signUp(t, "STU001", "Zed Alpha")
	b := env.signUp(t, "STU002", "Amy Beta")
	c := env.signUp(t, "STU003", "Carl Gamma")
	env.signUp(t, "STU004", "Dora Delta")

	goSkills := []string{"Go", "Docker"}
	_, err := env.profiles.UpdateMine(ctx, a.User.ID, &models.UpdateProfileRequest{Skills: &goSkills})
	require.NoError(t, err)
	pySkills := []string{"Python"}
	bio := "I write go every day"
	_, err = env.profiles.UpdateMine(ctx, b.User.ID, &models.UpdateProfileRequest{Skills: &pySkills, Bio: &bio})
	require.NoError(t, err)
	hidden := false
	_, err = env.profiles.UpdateMine(ctx, c.User.ID, &models.UpdateProfileRequest{Public: &hidden})
	require.NoError(t, err)

	all, err := env.profiles.ListStudents(ctx, models.StudentsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, "Amy Beta", all.Students[0].FullName)
	assert.Equal(t, []string{"Docker", "Go", "Python"}, all.Skills)

	search, err := env.profiles.ListStudents(ctx, models.StudentsQuery{Search: "GO"})
	require.NoError(t, err)
	assert.Equal(t, 2, search.Showing)

	skill, err := env.profiles.ListStudents(ctx, models.StudentsQuery{Skill: "Go"})
	require.NoError(t, err)
	require.Len(t, skill.Students, 1)
	assert.Equal(t, "STU001", skill.Students[0].StudentID)

	featured, err := env.profiles.Featured(ctx)
	require.NoError(t, err)
	assert.Len(t, featured.Students, 3)
	assert.Equal(t, int64(3), featured.Total)

	_, err = env.profiles.GetStudent(ctx, "STU003", "")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	_, err = env.profiles.GetStudent(ctx, "NOPE", "")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGetStudentTracksViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")
	visitor := env.signUp(t, "STU002", "Bob Babbage")

	_, err := env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Draft", Content: "x"})
	require.NoError(t, err)
	_, err = env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Live", Content: "y", Published: true})
	require.NoError(t, err)

	_, err = env.profiles.GetStudent(ctx, "STU001", "")
	require.NoError(t, err)
	resp, err := env.profiles.GetStudent(ctx, "STU001", visitor.User.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.ViewCount)
	assert.Equal(t, "AL", resp.Initials)
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "Live", resp.Pages[0].Title)
}

func TestPagesLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")
	other := env.signUp(t, "STU002", "Bob Babbage")

	page, err := env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Notes", Content: "# Heading\n\nbody"})
	require.NoError(t, err)
	assert.False(t, page.Published)

	_, err = env.pages.GetMine(ctx, other.User.ID, page.ID)
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = env.pages.Update(ctx, other.User.ID, page.ID, &models.PageRequest{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.pages.ViewPublished(ctx, "STU001", page.ID)
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = env.pages.SetPublished(ctx, owner.User.ID, page.ID, true)
	require.NoError(t, err)

	view, err := env.pages.ViewPublished(ctx, "STU001", page.ID)
	require.NoError(t, err)
	assert.Contains(t, view.HTML, "<h1")
	assert.Equal(t, format.FormatDateTime(view.Page.UpdatedAt), view.UpdatedText)
	assert.Equal(t, "Ada Lovelace", view.Author.FullName)

	_, err = env.pages.ViewPublished(ctx, "STU002", page.ID)
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = env.comments.Create(ctx, other.User.ID, &models.CreateCommentRequest{TargetType: models.TargetPage, TargetID: page.ID, Content: "nice"})
	require.NoError(t, err)

	require.NoError(t, env.pages.Delete(ctx, owner.User.ID, page.ID))
	remaining, err := env.comments.List(ctx, models.TargetPage, page.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining.Comments)
}

func TestListMyPagesFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")

	_, err := env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Go tips", Content: "**channels**"})
	require.NoError(t, err)
	_, err = env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Recipes", Content: "pasta with go-faster sauce", Published: true})
	require.NoError(t, err)
	_, err = env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Travel", Content: "Rome", Published: true})
	require.NoError(t, err)

	res, err := env.pages.ListMine(ctx, owner.User.ID, models.PagesQuery{Search: "go", Status: models.PageStatusAll})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Showing)

	res, err = env.pages.ListMine(ctx, owner.User.ID, models.PagesQuery{Status: models.PageStatusDraft})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "channels", res.Pages[0].Preview)

	res, err = env.pages.ListMine(ctx, owner.User.ID, models.PagesQuery{Status: models.PageStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Showing)
}

func TestCommentsWithRealtimeEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")
	visitor := env.signUp(t, "STU002", "Bob Babbage")

	var mu sync.Mutex
	var events []models.CommentEvent
	env.hub.Subscribe(realtime.CommentTopic(models.TargetProfile, owner.Profile.ID), func(b []byte) {
		var ev models.CommentEvent
		require.NoError(t, json.Unmarshal(b, &ev))
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	_, err := env.comments.Create(ctx, visitor.User.ID, &models.CreateCommentRequest{TargetType: models.TargetProfile, TargetID: "missing", Content: "hi"})
	assert.ErrorIs(t, err, ErrTargetNotFound)

	c, err := env.comments.Create(ctx, visitor.User.ID, &models.CreateCommentRequest{TargetType: models.TargetProfile, TargetID: owner.Profile.ID, Content: "hello"})
	require.NoError(t, err)
	require.NotNil(t, c.Author)
	assert.Equal(t, "STU002", c.Author.StudentID)
	assert.Equal(t, "Just now", c.CreatedAgo)

	_, err = env.comments.Update(ctx, owner.User.ID, c.ID, &models.UpdateCommentRequest{Content: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.comments.Delete(ctx, owner.User.ID, c.ID), ErrForbidden)

	_, err = env.comments.Update(ctx, visitor.User.ID, c.ID, &models.UpdateCommentRequest{Content: "hello again"})
	require.NoError(t, err)

	list, err := env.comments.List(ctx, models.TargetProfile, owner.Profile.ID)
	require.NoError(t, err)
	require.Len(t, list.Comments, 1)
	assert.Equal(t, "hello again", list.Comments[0].Content)
	assert.Equal(t, int64(2), list.Seq)

	require.NoError(t, env.comments.Delete(ctx, visitor.User.ID, c.ID))
	assert.ErrorIs(t, env.comments.Delete(ctx, visitor.User.ID, c.ID), ErrCommentNotFound)

	require.Len(t, events, 3)
	assert.Equal(t, models.ChangeInsert, events[0].Type)
	assert.Equal(t, models.ChangeUpdate, events[1].Type)
	assert.Equal(t, models.ChangeDelete, events[2].Type)
	assert.Equal(t, []int64{1, 2, 3}, []int64{events[0].Seq, events[1].Seq, events[2].Seq})
	assert.Equal(t, c.ID, events[2].Comment.ID)
}

func TestMediaUploadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")

	_, err := env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF"), Purpose: models.PurposeAvatar})
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	m, err := env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "me.PNG", ContentType: "image/png", Data: []byte("png-bytes"), Purpose: models.PurposeAvatar})
	require.NoError(t, err)
	assert.Equal(t, models.FileTypeImage, m.FileType)
	assert.Equal(t, int64(9), m.FileSize)
	assert.Contains(t, m.FileURL, "http://localhost:8080/uploads/"+owner.User.ID+"/")
	assert.Regexp(t, `^`+owner.User.ID+`/\d+\.png$`, m.ObjectKey)
	assert.Equal(t, 1, env.moderator.calls)

	doc, err := env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, models.FileTypeDocument, doc.FileType)
	assert.Equal(t, 1, env.moderator.calls)

	pic := m.FileURL
	_, err = env.profiles.UpdateMine(ctx, owner.User.ID, &models.UpdateProfileRequest{ProfilePic: &pic})
	require.NoError(t, err)

	require.NoError(t, env.media.Delete(ctx, owner.User.ID, m.ID))
	profile, err := env.profiles.GetMine(ctx, owner.User.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.ProfilePic)

	list, err := env.media.ListMine(ctx, owner.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, doc.ID, list[0].ID)
}

func TestMediaRejectedByModeration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")
	env.moderator.reject = true

	_, err := env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "bad.jpg", ContentType: "image/jpeg", Data: []byte("jpg")})
	assert.ErrorIs(t, err, ErrImageRejected)

	n, err := env.media.CountMine(ctx, owner.User.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMediaSizeLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")

	big := make([]byte, models.MaxAvatarSize+1)
	_, err := env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "big.png", ContentType: "image/png", Data: big, Purpose: models.PurposeAvatar})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = env.media.Upload(ctx, owner.User.ID, &Upload{FileName: "big.png", ContentType: "image/png", Data: big})
	assert.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "STU001", "Ada Lovelace")

	for i := 0; i < 7; i++ {
		_, err := env.pages.Create(ctx, owner.User.ID, &models.PageRequest{Title: "Page", Content: "c", Published: i%2 == 0})
		require.NoError(t, err)
	}
	require.NoError(t, env.views.Track(ctx, owner.Profile.ID, ""))

	d, err := env.dashboard.Get(ctx, owner.User.ID)
	require.NoError(t, err)

	assert.Equal(t, 7, d.Stats.TotalPages)
	assert.Equal(t, 4, d.Stats.PublishedPages)
	assert.Equal(t, int64(1), d.Stats.ProfileViews)
	assert.Len(t, d.RecentPages, 5)
	assert.True(t, d.Completeness.BasicInfo)
	assert.False(t, d.Completeness.Bio)
	assert.False(t, d.Complete)
}

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)

	assert.Equal(t, "u1/1700000000123.jpg", ObjectKey("u1", "Photo.JPG", "image/jpeg", at))
	assert.Equal(t, "u1/1700000000123.bin", ObjectKey("u1", "noext", "application/x-unknown-thing", at))
}

type recordingPublisher struct {
	err    error
	events []models.ProfileViewedEvent
}

func (p *recordingPublisher) PublishProfileViewed(ctx context.Context, ev models.ProfileViewedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func TestViewServicePublishesOrFallsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	pub := &recordingPublisher{}
	views := NewViewService(store, pub)
	require.NoError(t, views.Track(ctx, "p1", "u2"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "u2", pub.events[0].VisitorID)

	n, _ := views.Count(ctx, "p1")
	assert.Zero(t, n, "published views are written by the worker")

	require.NoError(t, views.Apply(ctx, pub.events[0]))
	n, _ = views.Count(ctx, "p1")
	assert.Equal(t, int64(1), n)

	pub.err = assert.AnError
	require.NoError(t, views.Track(ctx, "p1", ""))
	n, _ = views.Count(ctx, "p1")
	assert.Equal(t, int64(2), n)
}
