// Package mongo implements repository.Store on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Ayushbunkar/Meditrack/internal/model"
	"github.com/Ayushbunkar/Meditrack/internal/repository"
)

// DefaultDatabase is used when the caller does not name one.
const DefaultDatabase = "meditrack"

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, verifies the connection and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetMaxPoolSize(10).SetMinPoolSize(2))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	collections := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"medicines": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "time", Value: 1}}},
		},
		"alerts": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "triggered_at", Value: 1}}},
		},
	}

	for name, indexes := range collections {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) users() *mongo.Collection     { return s.db.Collection("users") }
func (s *Store) medicines() *mongo.Collection { return s.db.Collection("medicines") }
func (s *Store) alerts() *mongo.Collection    { return s.db.Collection("alerts") }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if _, err := s.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	if err := s.users().FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err))
	}
	return &u, nil
}

// UpdateUserPassword replaces a user's password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password_hash": passwordHash}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateMedicine inserts a new medicine.
func (s *Store) CreateMedicine(ctx context.Context, med *model.Medicine) error {
	if _, err := s.medicines().InsertOne(ctx, med); err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

// GetMedicine retrieves a medicine by ID.
func (s *Store) GetMedicine(ctx context.Context, id string) (*model.Medicine, error) {
	var m model.Medicine
	if err := s.medicines().FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", notFound(err))
	}
	return &m, nil
}

// ListMedicines returns the user's medicines ordered by time of day.
func (s *Store) ListMedicines(ctx context.Context, userID string) ([]*model.Medicine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := s.medicines().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}

	meds := []*model.Medicine{}
	if err := cursor.All(ctx, &meds); err != nil {
		return nil, fmt.Errorf("failed to decode medicines: %w", err)
	}
	return meds, nil
}

// UpdateMedicine sets only the fields present in patch.
func (s *Store) UpdateMedicine(ctx context.Context, id string, patch model.MedicinePatch, updatedAt time.Time) (*model.Medicine, error) {
	var applied model.Medicine
	patch.Apply(&applied)

	set := bson.M{"updated_at": updatedAt}
	if patch.Name != nil {
		set["name"] = applied.Name
	}
	if patch.Time != nil {
		set["time"] = applied.Time
	}
	if patch.Dosage != nil {
		set["dosage"] = applied.Dosage
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m model.Medicine
	err := s.medicines().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", notFound(err))
	}
	return &m, nil
}

// DeleteMedicine removes a medicine. Its alerts are kept.
func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	res, err := s.medicines().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CreateAlert inserts a new alert.
func (s *Store) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if _, err := s.alerts().InsertOne(ctx, alert); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlert retrieves an alert by ID.
func (s *Store) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	var a model.Alert
	if err := s.alerts().FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", notFound(err))
	}
	return &a, nil
}

// UpdateAlertStatus records the user's answer on an alert.
func (s *Store) UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus, at time.Time) (*model.Alert, error) {
	update := bson.M{"$set": bson.M{
		"status":       status,
		"timestamp":    at,
		"confirmed_at": at,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var a model.Alert
	if err := s.alerts().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", notFound(err))
	}
	return &a, nil
}

type alertDetailDoc struct {
	model.Alert `bson:",inline"`
	Medicine    *model.Medicine `bson:"medicine,omitempty"`
}

// ListAlertDetails returns the user's alerts with their medicines, oldest first.
func (s *Store) ListAlertDetails(ctx context.Context, userID string) ([]*model.AlertDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "triggered_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "medicines",
			"localField":   "medicine_id",
			"foreignField": "_id",
			"as":           "medicine",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$medicine", "preserveNullAndEmptyArrays": true}}},
	}

	cursor, err := s.alerts().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	var docs []alertDetailDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}

	details := make([]*model.AlertDetail, 0, len(docs))
	for _, d := range docs {
		details = append(details, &model.AlertDetail{Alert: d.Alert, Medicine: d.Medicine})
	}
	return details, nil
}
