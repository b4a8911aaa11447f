package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type otpDocument struct {
	Key       string    `bson:"_id"`
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"expires_at"`
	Attempts  int       `bson:"attempts"`
}

// MongoOTPStore shares OTP codes between instances. Expired documents are
// removed by a TTL index.
type MongoOTPStore struct {
	col *mongo.Collection
}

// NewMongoOTPStore prepares the otp_codes collection and its TTL index.
func NewMongoOTPStore(ctx context.Context, db *mongo.Database) (*MongoOTPStore, error) {
	col := db.Collection("otp_codes")
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("otp_codes_expires_ttl"),
	})
	if err != nil {
		return nil, fmt.Errorf("otp_codes indexes: %w", err)
	}
	return &MongoOTPStore{col: col}, nil
}

func (s *MongoOTPStore) Save(ctx context.Context, key string, entry OTPEntry) error {
	doc := otpDocument{Key: key, Code: entry.Code, ExpiresAt: entry.ExpiresAt.UTC(), Attempts: entry.Attempts}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *MongoOTPStore) Get(ctx context.Context, key string) (OTPEntry, error) {
	var doc otpDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return OTPEntry{}, ErrOTPNotFound
		}
		return OTPEntry{}, fmt.Errorf("load otp: %w", err)
	}
	return OTPEntry{Code: doc.Code, ExpiresAt: doc.ExpiresAt, Attempts: doc.Attempts}, nil
}

func (s *MongoOTPStore) Delete(ctx context.Context, key string) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return false, fmt.Errorf("delete otp: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// RecordFailure increments the attempt counter atomically so concurrent
// guesses against one code are all counted.
func (s *MongoOTPStore) RecordFailure(ctx context.Context, key string) (int, error) {
	var doc otpDocument
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrOTPNotFound
		}
		return 0, fmt.Errorf("record otp failure: %w", err)
	}
	return doc.Attempts, nil
}
