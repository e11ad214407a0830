package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
)

// MongoStore persists every collection in one MongoDB database.
type MongoStore struct {
	client      *mongo.Client
	db          *mongo.Database
	usersCol    *mongo.Collection
	profilesCol *mongo.Collection
	pagesCol    *mongo.Collection
	commentsCol *mongo.Collection
	mediaCol    *mongo.Collection
	viewsCol    *mongo.Collection
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string) (*MongoStore, error) {
	opts := options.Client().ApplyURI(mongoURI)
	if strings.HasPrefix(mongoURI, "mongodb+srv://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:      client,
		db:          db,
		usersCol:    db.Collection("users"),
		profilesCol: db.Collection("profiles"),
		pagesCol:    db.Collection("pages"),
		commentsCol: db.Collection("comments"),
		mediaCol:    db.Collection("media"),
		viewsCol:    db.Collection("profile_views"),
	}
	s.ensureIndexes(ctx)
	return s, nil
}

// Best-effort indexes.
func (s *MongoStore) ensureIndexes(ctx context.Context) {
	unique := options.Index().SetUnique(true)

	_, _ = s.usersCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	})
	_, _ = s.profilesCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "student_id", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "public", Value: 1}, {Key: "full_name", Value: 1}}},
	})
	_, _ = s.pagesCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	_, _ = s.commentsCol.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	_, _ = s.mediaCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "uploaded_at", Value: -1}},
	})
	_, _ = s.viewsCol.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "profile_id", Value: 1}},
	})
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func matchedOrNotFound(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deletedOrNotFound(res *mongo.DeleteResult, err error) error {
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- users ---

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.usersCol.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	return deletedOrNotFound(s.usersCol.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.usersCol.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *MongoStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return matchedOrNotFound(s.usersCol.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password_hash": hash},
	}))
}

// --- profiles ---

func (s *MongoStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	if _, err := s.profilesCol.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "user_id") {
				return ErrProfileExists
			}
			return ErrStudentIDTaken
		}
		return err
	}
	return nil
}

func (s *MongoStore) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"user_id": userID})
}

func (s *MongoStore) GetProfileByStudentID(ctx context.Context, studentID string) (*models.Profile, error) {
	return s.findProfile(ctx, bson.M{"student_id": studentID})
}

func (s *MongoStore) findProfile(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var p models.Profile
	if err := s.profilesCol.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	return matchedOrNotFound(s.profilesCol.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{
		"$set": bson.M{
			"full_name":    p.FullName,
			"bio":          p.Bio,
			"quote":        p.Quote,
			"skills":       p.Skills,
			"social_links": p.SocialLinks,
			"profile_pic":  p.ProfilePic,
			"public":       p.Public,
			"first_login":  p.FirstLogin,
			"updated_at":   p.UpdatedAt,
		},
	}))
}

func (s *MongoStore) DeleteProfile(ctx context.Context, id string) error {
	return deletedOrNotFound(s.profilesCol.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) ListPublicProfiles(ctx context.Context, limit int) ([]*models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.profilesCol.Find(ctx, bson.M{"public": true}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Profile, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) CountPublicProfiles(ctx context.Context) (int64, error) {
	return s.profilesCol.CountDocuments(ctx, bson.M{"public": true})
}

// --- pages ---

func (s *MongoStore) CreatePage(ctx context.Context, p *models.Page) error {
	_, err := s.pagesCol.InsertOne(ctx, p)
	return err
}

func (s *MongoStore) GetPage(ctx context.Context, id string) (*models.Page, error) {
	var p models.Page
	if err := s.pagesCol.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *MongoStore) UpdatePage(ctx context.Context, p *models.Page) error {
	return matchedOrNotFound(s.pagesCol.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{
		"$set": bson.M{
			"title":      p.Title,
			"content":    p.Content,
			"published":  p.Published,
			"updated_at": p.UpdatedAt,
		},
	}))
}

func (s *MongoStore) DeletePage(ctx context.Context, id string) error {
	return deletedOrNotFound(s.pagesCol.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) ListPagesByUser(ctx context.Context, userID string, publishedOnly bool) ([]*models.Page, error) {
	filter := bson.M{"user_id": userID}
	if publishedOnly {
		filter["published"] = true
	}

	cur, err := s.pagesCol.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*models.Page, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- comments ---

func (s *MongoStore) CreateComment(ctx context.Context, c *models.Comment) error {
	_, err := s.commentsCol.InsertOne(ctx, c)
	return err
}

func (s *MongoStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.commentsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *MongoStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	return matchedOrNotFound(s.commentsCol.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{
		"$set": bson.M{"content": c.Content, "updated_at": c.UpdatedAt},
	}))
}

func (s *MongoStore) DeleteComment(ctx context.Context, id string) error {
	return deletedOrNotFound(s.commentsCol.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) ListComments(ctx context.Context, targetType models.TargetType, targetID string) ([]*models.Comment, error) {
	cur, err := s.commentsCol.Find(ctx,
		bson.M{"target_type": targetType, "target_id": targetID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Comment, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) DeleteCommentsForTarget(ctx context.Context, targetType models.TargetType, targetID string) (int64, error) {
	res, err := s.commentsCol.DeleteMany(ctx, bson.M{"target_type": targetType, "target_id": targetID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) ListCommentsByUser(ctx context.Context, userID string) ([]*models.Comment, error) {
	cur, err := s.commentsCol.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Comment, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- media ---

func (s *MongoStore) CreateMedia(ctx context.Context, m *models.Media) error {
	_, err := s.mediaCol.InsertOne(ctx, m)
	return err
}

func (s *MongoStore) GetMedia(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	if err := s.mediaCol.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *MongoStore) DeleteMedia(ctx context.Context, id string) error {
	return deletedOrNotFound(s.mediaCol.DeleteOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) ListMediaByUser(ctx context.Context, userID string) ([]*models.Media, error) {
	cur, err := s.mediaCol.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*models.Media, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) CountMediaByUser(ctx context.Context, userID string) (int64, error) {
	return s.mediaCol.CountDocuments(ctx, bson.M{"user_id": userID})
}

// --- views ---

func (s *MongoStore) AddView(ctx context.Context, v *models.ProfileView) error {
	_, err := s.viewsCol.InsertOne(ctx, v)
	return err
}

func (s *MongoStore) CountViews(ctx context.Context, profileID string) (int64, error) {
	return s.viewsCol.CountDocuments(ctx, bson.M{"profile_id": profileID})
}

func (s *MongoStore) DeleteViewsForProfile(ctx context.Context, profileID string) (int64, error) {
	res, err := s.viewsCol.DeleteMany(ctx, bson.M{"profile_id": profileID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
