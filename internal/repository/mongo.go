package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/infofoot/nexo-backend/internal/models"
)

const (
	recordsCollection = "mining_records"
	startCollection   = "mining_start"
	cardsCollection   = "cards"
)

// EnsureMiningIndexes configures indexes for the mining collections.
// Called on startup from main after Mongo has connected.
func EnsureMiningIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	specs := []struct {
		col   string
		model mongo.IndexModel
	}{
		{recordsCollection, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique}},
		{startCollection, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique}},
		{cardsCollection, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}},
	}

	for _, s := range specs {
		if _, err := db.Collection(s.col).Indexes().CreateOne(ctx, s.model); err != nil {
			return err
		}
	}
	return nil
}

// MongoMiningRepository implements MiningRepository on MongoDB.
type MongoMiningRepository struct {
	db *mongo.Database
}

func NewMongoMiningRepository(db *mongo.Database) *MongoMiningRepository {
	return &MongoMiningRepository{db: db}
}

func (r *MongoMiningRepository) records() *mongo.Collection {
	return r.db.Collection(recordsCollection)
}

func (r *MongoMiningRepository) start() *mongo.Collection {
	return r.db.Collection(startCollection)
}

func (r *MongoMiningRepository) Record(ctx context.Context, userID string) (*models.MiningRecord, error) {
	var rec models.MiningRecord
	err := r.records().FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *MongoMiningRepository) SaveRecord(ctx context.Context, rec *models.MiningRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.records().ReplaceOne(ctx, bson.M{"user_id": rec.UserID}, rec, opts)
	return err
}

func (r *MongoMiningRepository) SetAccrued(ctx context.Context, userID string, nxo float64) error {
	_, err := r.records().UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"nxo": nxo}},
	)
	return err
}

func (r *MongoMiningRepository) SetRateSnapshot(ctx context.Context, userID string, puissance, bonus float64) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.records().UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set":         bson.M{"puissance_mining": puissance, "bonus": bonus},
			"$setOnInsert": bson.M{"nxo": 0.0, "last_mining": int64(0), "next_mining": int64(0)},
		},
		opts,
	)
	return err
}

func (r *MongoMiningRepository) ActiveSessions(ctx context.Context) ([]models.MiningStart, error) {
	cur, err := r.start().Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []models.MiningStart
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoMiningRepository) ActiveSession(ctx context.Context, userID string) (*models.MiningStart, error) {
	var entry models.MiningStart
	err := r.start().FindOne(ctx, bson.M{"user_id": userID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *MongoMiningRepository) PutActiveSession(ctx context.Context, entry *models.MiningStart) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.start().ReplaceOne(ctx, bson.M{"user_id": entry.UserID}, entry, opts)
	return err
}

func (r *MongoMiningRepository) RemoveActiveSession(ctx context.Context, userID string) error {
	_, err := r.start().DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// MongoCardRepository implements CardRepository on MongoDB.
type MongoCardRepository struct {
	db *mongo.Database
}

func NewMongoCardRepository(db *mongo.Database) *MongoCardRepository {
	return &MongoCardRepository{db: db}
}

func (r *MongoCardRepository) ActiveCards(ctx context.Context, userID string) ([]models.Card, error) {
	cur, err := r.db.Collection(cardsCollection).Find(ctx, bson.M{"user_id": userID, "active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cards []models.Card
	if err := cur.All(ctx, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *MongoCardRepository) Insert(ctx context.Context, card *models.Card) error {
	_, err := r.db.Collection(cardsCollection).InsertOne(ctx, card)
	return err
}
