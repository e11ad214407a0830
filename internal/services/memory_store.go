package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
	"github.com/RehanEggSupplierdev/batchboard/internal/storage"
)

// MemoryStore keeps every collection in maps guarded by one RWMutex. When a
// JSONStore is attached, the whole state is snapshotted after each write.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	byEmail  map[string]string // email -> user id
	profiles map[string]*models.Profile
	pages    map[string]*models.Page
	comments map[string]*models.Comment
	media    map[string]*models.Media
	views    []*models.ProfileView

	snapshot *storage.JSONStore
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		byEmail:  make(map[string]string),
		profiles: make(map[string]*models.Profile),
		pages:    make(map[string]*models.Page),
		comments: make(map[string]*models.Comment),
		media:    make(map[string]*models.Media),
	}
}

// NewPersistentMemoryStore restores state from js and keeps it updated.
func NewPersistentMemoryStore(js *storage.JSONStore) (*MemoryStore, error) {
	s := NewMemoryStore()
	s.snapshot = js

	var snap memorySnapshot
	found, err := js.Load(&snap)
	if err != nil {
		return nil, err
	}
	if found {
		s.restore(&snap)
	}
	return s, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save()
}

// --- users ---

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return ErrEmailTaken
	}
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	s.persist()
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	s.persist()
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	s.persist()
	return nil
}

// --- profiles ---

func (s *MemoryStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if existing.StudentID == p.StudentID {
			return ErrStudentIDTaken
		}
		if existing.UserID == p.UserID {
			return ErrProfileExists
		}
	}
	s.profiles[p.ID] = cloneProfile(p)
	s.persist()
	return nil
}

func (s *MemoryStore) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return s.findProfile(func(p *models.Profile) bool { return p.UserID == userID })
}

func (s *MemoryStore) GetProfileByStudentID(ctx context.Context, studentID string) (*models.Profile, error) {
	return s.findProfile(func(p *models.Profile) bool { return p.StudentID == studentID })
}

func (s *MemoryStore) findProfile(match func(*models.Profile) bool) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if match(p) {
			return cloneProfile(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	s.profiles[p.ID] = cloneProfile(p)
	s.persist()
	return nil
}

func (s *MemoryStore) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	s.persist()
	return nil
}

func (s *MemoryStore) ListPublicProfiles(ctx context.Context, limit int) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.Public {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountPublicProfiles(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.profiles {
		if p.Public {
			n++
		}
	}
	return n, nil
}

// --- pages ---

func (s *MemoryStore) CreatePage(ctx context.Context, p *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.pages[p.ID] = &cp
	s.persist()
	return nil
}

func (s *MemoryStore) GetPage(ctx context.Context, id string) (*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdatePage(ctx context.Context, p *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	s.pages[p.ID] = &cp
	s.persist()
	return nil
}

func (s *MemoryStore) DeletePage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pages[id]; !ok {
		return ErrNotFound
	}
	delete(s.pages, id)
	s.persist()
	return nil
}

func (s *MemoryStore) ListPagesByUser(ctx context.Context, userID string, publishedOnly bool) ([]*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Page, 0)
	for _, p := range s.pages {
		if p.UserID != userID || (publishedOnly && !p.Published) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// --- comments ---

func (s *MemoryStore) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.comments[c.ID] = &cp
	s.persist()
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	s.comments[c.ID] = &cp
	s.persist()
	return nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	s.persist()
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context, targetType models.TargetType, targetID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if c.TargetType == targetType && c.TargetID == targetID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteCommentsForTarget(ctx context.Context, targetType models.TargetType, targetID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.comments {
		if c.TargetType == targetType && c.TargetID == targetID {
			delete(s.comments, id)
			n++
		}
	}
	if n > 0 {
		s.persist()
	}
	return n, nil
}

func (s *MemoryStore) ListCommentsByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// --- media ---

func (s *MemoryStore) CreateMedia(ctx context.Context, m *models.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.media[m.ID] = &cp
	s.persist()
	return nil
}

func (s *MemoryStore) GetMedia(ctx context.Context, id string) (*models.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.media[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) DeleteMedia(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.media[id]; !ok {
		return ErrNotFound
	}
	delete(s.media, id)
	s.persist()
	return nil
}

func (s *MemoryStore) ListMediaByUser(ctx context.Context, userID string) ([]*models.Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Media, 0)
	for _, m := range s.media {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountMediaByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.media {
		if m.UserID == userID {
			n++
		}
	}
	return n, nil
}

// --- views ---

func (s *MemoryStore) AddView(ctx context.Context, v *models.ProfileView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *v
	s.views = append(s.views, &cp)
	s.persist()
	return nil
}

func (s *MemoryStore) DeleteViewsForProfile(ctx context.Context, profileID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.views[:0]
	for _, v := range s.views {
		if v.ProfileID != profileID {
			kept = append(kept, v)
		}
	}
	n := int64(len(s.views) - len(kept))
	for i := len(kept); i < len(s.views); i++ {
		s.views[i] = nil
	}
	s.views = kept
	if n > 0 {
		s.persist()
	}
	return n, nil
}

func (s *MemoryStore) CountViews(ctx context.Context, profileID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, v := range s.views {
		if v.ProfileID == profileID {
			n++
		}
	}
	return n, nil
}

// --- snapshot ---

// storedUser and storedMedia carry the fields the API models hide from JSON.
type storedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type storedMedia struct {
	*models.Media
	ObjectKey string `json:"object_key"`
}

type memorySnapshot struct {
	Users    []storedUser          `json:"users"`
	Profiles []*models.Profile     `json:"profiles"`
	Pages    []*models.Page        `json:"pages"`
	Comments []*models.Comment     `json:"comments"`
	Media    []storedMedia         `json:"media"`
	Views    []*models.ProfileView `json:"profile_views"`
}

// persist must be called with s.mu held.
func (s *MemoryStore) persist() {
	if err := s.save(); err != nil {
		observability.Log.Warn("memory store: snapshot failed", zap.Error(err))
	}
}

func (s *MemoryStore) save() error {
	if s.snapshot == nil {
		return nil
	}

	snap := memorySnapshot{Views: s.views}
	for _, u := range s.users {
		snap.Users = append(snap.Users, storedUser{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt})
	}
	for _, p := range s.profiles {
		snap.Profiles = append(snap.Profiles, p)
	}
	for _, p := range s.pages {
		snap.Pages = append(snap.Pages, p)
	}
	for _, c := range s.comments {
		snap.Comments = append(snap.Comments, c)
	}
	for _, m := range s.media {
		snap.Media = append(snap.Media, storedMedia{Media: m, ObjectKey: m.ObjectKey})
	}
	return s.snapshot.Save(snap)
}

func (s *MemoryStore) restore(snap *memorySnapshot) {
	for _, u := range snap.Users {
		s.users[u.ID] = &models.User{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
		s.byEmail[u.Email] = u.ID
	}
	for _, p := range snap.Profiles {
		s.profiles[p.ID] = p
	}
	for _, p := range snap.Pages {
		s.pages[p.ID] = p
	}
	for _, c := range snap.Comments {
		s.comments[c.ID] = c
	}
	for _, m := range snap.Media {
		if m.Media == nil {
			continue
		}
		m.Media.ObjectKey = m.ObjectKey
		s.media[m.ID] = m.Media
	}
	s.views = snap.Views
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.Bio = cloneString(p.Bio)
	cp.Quote = cloneString(p.Quote)
	cp.ProfilePic = cloneString(p.ProfilePic)
	if p.Skills != nil {
		cp.Skills = append([]string(nil), p.Skills...)
	}
	if p.SocialLinks != nil {
		cp.SocialLinks = make(map[string]string, len(p.SocialLinks))
		for k, v := range p.SocialLinks {
			cp.SocialLinks[k] = v
		}
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
