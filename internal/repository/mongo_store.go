package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"hackathon-assistant/internal/domain"
)

// mongoCollection is the subset of *mongo.Collection used by MongoStore.
type mongoCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// MongoStore keeps hackathon documents verbatim in one collection. Records
// are read back through relaxed Extended JSON so the typed decoder sees the
// same shape the importer wrote.
type MongoStore struct {
	coll   mongoCollection
	logger *slog.Logger
}

func NewMongoStore(coll mongoCollection, logger *slog.Logger) (*MongoStore, error) {
	if coll == nil {
		return nil, errors.New("repository: collection must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoStore{coll: coll, logger: logger.With(slog.String("module", "mongo_store"))}, nil
}

// ConnectMongo opens a pooled client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("repository: connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("repository: ping mongodb: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique sparse slug index.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: domain.FieldSlug, Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true).SetName("slug_unique"),
	})
	if err != nil {
		return fmt.Errorf("repository: create slug index: %w", err)
	}
	return nil
}

// idFilter matches id as a string and, when it is valid hex, as an
// ObjectID too.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func (s *MongoStore) Get(ctx context.Context, id string) (domain.Hackathon, bool) {
	return s.findOne(ctx, idFilter(id), slog.String("hackathon_id", id))
}

func (s *MongoStore) GetBySlug(ctx context.Context, slug string) (domain.Hackathon, bool) {
	return s.findOne(ctx, bson.M{domain.FieldSlug: slug}, slog.String("slug", slug))
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, attr slog.Attr) (domain.Hackathon, bool) {
	raw, err := s.coll.FindOne(ctx, filter).Raw()
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			s.logger.Warn("find hackathon failed", attr, slog.Any("error", err))
		}
		return domain.Hackathon{}, false
	}
	h, err := rawToHackathon(raw)
	if err != nil {
		s.logger.Warn("decode hackathon failed", attr, slog.Any("error", err))
		return domain.Hackathon{}, false
	}
	return h, true
}

func (s *MongoStore) ListAll(ctx context.Context) []domain.Hackathon {
	out := []domain.Hackathon{}
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		s.logger.Warn("list hackathons failed", slog.Any("error", err))
		return out
	}
	defer func() { _ = cursor.Close(ctx) }()

	for cursor.Next(ctx) {
		h, err := rawToHackathon(cursor.Current)
		if err != nil {
			s.logger.Warn("skipping undecodable hackathon", slog.Any("error", err))
			continue
		}
		out = append(out, h)
	}
	if err := cursor.Err(); err != nil {
		s.logger.Warn("list hackathons cursor failed", slog.Any("error", err))
	}
	return out
}

func (s *MongoStore) Insert(ctx context.Context, doc domain.Document) bool {
	if doc.ID() == "" {
		s.logger.Warn("insert hackathon without id")
		return false
	}
	d, err := documentToBSON(doc)
	if err != nil {
		s.logger.Warn("encode hackathon failed", slog.String("hackathon_id", doc.ID()), slog.Any("error", err))
		return false
	}
	if _, err := s.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.Info("duplicate hackathon rejected", slog.String("hackathon_id", doc.ID()))
			return false
		}
		s.logger.Warn("insert hackathon failed", slog.String("hackathon_id", doc.ID()), slog.Any("error", err))
		return false
	}
	return true
}

func (s *MongoStore) Update(ctx context.Context, id string, partial domain.Document) bool {
	d, err := documentToBSON(partial)
	if err != nil {
		s.logger.Warn("encode hackathon update failed", slog.String("hackathon_id", id), slog.Any("error", err))
		return false
	}
	res, err := s.coll.UpdateOne(ctx, idFilter(id), bson.D{{Key: "$set", Value: d}})
	if err != nil {
		s.logger.Warn("update hackathon failed", slog.String("hackathon_id", id), slog.Any("error", err))
		return false
	}
	return res.MatchedCount > 0
}

func documentToBSON(doc domain.Document) (bson.D, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("repository: marshal document: %w", err)
	}
	var d bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &d); err != nil {
		return nil, fmt.Errorf("repository: convert document to bson: %w", err)
	}
	return d, nil
}

func rawToHackathon(raw bson.Raw) (domain.Hackathon, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return domain.Hackathon{}, fmt.Errorf("repository: convert bson to json: %w", err)
	}
	h, err := domain.DecodeHackathon(data)
	if err != nil {
		return domain.Hackathon{}, fmt.Errorf("repository: decode hackathon: %w", err)
	}
	if oid, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		h.ID = domain.Text(oid.Hex())
	}
	return h, nil
}
