package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event_service/internal/config"
	"event_service/internal/models"
	"event_service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	eventsCollection = "events"
)

type MongoRepo struct {
	client *mongo.Client
	users  *mongo.Collection
	events *mongo.Collection
}

func New(ctx context.Context, cfg *config.Config) (*MongoRepo, error) {
	const op = "storage.mongo.New"

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetMaxPoolSize(cfg.Mongo.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	db := client.Database(cfg.Mongo.Database)

	r := &MongoRepo{
		client: client,
		users:  db.Collection(usersCollection),
		events: db.Collection(eventsCollection),
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: failed to create indexes: %w", op, err)
	}

	return r, nil
}

func (r *MongoRepo) ensureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "otp.code", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(
				bson.D{{Key: "otp.used", Value: false}},
			),
		},
		{
			Keys: bson.D{{Key: "tokens.value", Value: 1}},
		},
	})

	return err
}

func (r *MongoRepo) SaveUser(ctx context.Context, user models.User) (primitive.ObjectID, error) {
	const op = "storage.mongo.SaveUser"

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()

	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, storage.ErrUserExists
		}

		return primitive.NilObjectID, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return user.ID, nil
}

// SaveOTP writes a fresh one-time code onto the user with the given email,
// replacing any prior code in the same write. The user document is created
// if it does not exist yet.
func (r *MongoRepo) SaveOTP(ctx context.Context, email string, code models.OTP) (models.User, error) {
	const op = "storage.mongo.SaveOTP"

	filter := bson.M{"email": email}
	update := bson.M{
		"$set": bson.M{"otp": code},
		"$setOnInsert": bson.M{
			"email":      email,
			"recruiter":  false,
			"created_at": time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var u models.User
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		return models.User{}, fmt.Errorf("%s: failed to save otp: %w", op, err)
	}

	return u, nil
}

// UserByCode looks up the owner of an unused one-time code.
// Used codes never match, a consumed code behaves as if it never existed.
func (r *MongoRepo) UserByCode(ctx context.Context, code string) (models.User, error) {
	filter := bson.M{
		"otp.code": code,
		"otp.used": false,
	}

	var u models.User

	err := r.users.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrCodeNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

// ConsumeCode marks the code used and appends the session token in one
// document write. The unused-code filter makes the consume atomic: a
// concurrent verify of the same code loses the race and gets ErrCodeNotFound.
func (r *MongoRepo) ConsumeCode(ctx context.Context, code string, token models.SessionToken) (models.User, error) {
	const op = "storage.mongo.ConsumeCode"

	filter := bson.M{
		"otp.code": code,
		"otp.used": false,
	}
	update := bson.M{
		"$set":  bson.M{"otp.used": true},
		"$push": bson.M{"tokens": token},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrCodeNotFound
		}

		return models.User{}, fmt.Errorf("%s: failed to consume code: %w", op, err)
	}

	return u, nil
}

// UserByToken resolves an unexpired session token to its owner.
func (r *MongoRepo) UserByToken(ctx context.Context, value string, now time.Time) (models.User, error) {
	filter := bson.M{
		"tokens": bson.M{
			"$elemMatch": bson.M{
				"value":      value,
				"expires_at": bson.M{"$gt": now},
			},
		},
	}

	var u models.User

	err := r.users.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrTokenNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

// RemoveToken pulls the token out of its owner's token sequence.
func (r *MongoRepo) RemoveToken(ctx context.Context, value string) error {
	const op = "storage.mongo.RemoveToken"

	res, err := r.users.UpdateOne(ctx,
		bson.M{"tokens.value": value},
		bson.M{"$pull": bson.M{"tokens": bson.M{"value": value}}},
	)
	if err != nil {
		return fmt.Errorf("%s: failed to remove token: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return storage.ErrTokenNotFound
	}

	return nil
}

func (r *MongoRepo) Users(ctx context.Context) ([]models.User, error) {
	const op = "storage.mongo.Users"

	cur, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

func (r *MongoRepo) SaveEvent(ctx context.Context, event models.Event) (primitive.ObjectID, error) {
	const op = "storage.mongo.SaveEvent"

	event.ID = primitive.NewObjectID()

	_, err := r.events.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s: failed to save event: %w", op, err)
	}

	return event.ID, nil
}

func (r *MongoRepo) Events(ctx context.Context) ([]models.Event, error) {
	const op = "storage.mongo.Events"

	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: 1}})

	cur, err := r.events.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (r *MongoRepo) EventByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event

	err := r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, storage.ErrEventNotFound
		}

		return models.Event{}, err
	}

	return e, nil
}

func (r *MongoRepo) UpdateEvent(ctx context.Context, id primitive.ObjectID, patch models.EventPatch) (models.Event, error) {
	const op = "storage.mongo.UpdateEvent"

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.StartsAt != nil {
		set["starts_at"] = *patch.StartsAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.Event
	err := r.events.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, storage.ErrEventNotFound
		}

		return models.Event{}, fmt.Errorf("%s: failed to update event: %w", op, err)
	}

	return e, nil
}

func (r *MongoRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	const op = "storage.mongo.DeleteEvent"

	res, err := r.events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s: failed to delete event: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return storage.ErrEventNotFound
	}

	return nil
}

func (r *MongoRepo) Close(ctx context.Context) {
	_ = r.client.Disconnect(ctx)
}
