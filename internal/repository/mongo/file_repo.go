package mongo

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const DefaultFileCollection = "files"

// mongoFileRepository implements repository.FileRepository
type mongoFileRepository struct {
	collection *mongo.Collection
}

// NewMongoFileRepository creates a new file repository backed by MongoDB.
func NewMongoFileRepository(db *mongo.Database, collection string) repository.FileRepository {
	if collection == "" {
		collection = DefaultFileCollection
	}
	return &mongoFileRepository{
		collection: db.Collection(collection),
	}
}

// Create inserts a new file record. The caller assigns ID and ExpiresAt.
func (r *mongoFileRepository) Create(ctx context.Context, rec *domain.FileRecord) error {
	if rec.ID == "" || rec.FilePath == "" {
		return errors.New("file record requires id and filePath")
	}

	rec.ExpiresAt = rec.ExpiresAt.UTC()
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID retrieves a file record by its public ID.
func (r *mongoFileRepository) GetByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	rec.ExpiresAt = rec.ExpiresAt.UTC()
	return &rec, nil
}

// Delete removes the record; a second delete of the same ID reports AlreadyAbsent.
func (r *mongoFileRepository) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if result.DeletedCount == 0 {
		return domain.AlreadyAbsent, nil
	}
	return domain.Deleted, nil
}

// ListExpired returns the oldest expired records first.
func (r *mongoFileRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.FileRecord, error) {
	filter := bson.M{"expiresAt": bson.M{"$lte": now.UTC()}}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "expiresAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.FileRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode expired records: %w", err)
	}
	return records, nil
}

func (r *mongoFileRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

// EnsureFileIndexes creates necessary indexes for the files collection.
func EnsureFileIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Used by the sweeper's range scan on expiry.
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "filePath", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
