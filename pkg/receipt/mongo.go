package receipt

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
)

// Defaults for MongoOptions.
const (
	DefaultDatabase   = "splicer"
	DefaultCollection = "receipts"
)

const connectTimeout = 10 * time.Second

// MongoOptions configures a MongoStore.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore stores receipts in a MongoDB collection keyed by receipt id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to opts.URI, pings the server and ensures the
// collection's indexes.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri is required")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}

	s := NewMongoStoreFromClient(client, opts.Database, opts.Collection)
	s.owned = true
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close does not
// disconnect it.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "claim.job_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create receipt indexes")
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, res *gate.Result) error {
	r := FromResult(res)
	_, err := s.coll.InsertOne(ctx, r)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save receipt %s", r.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Receipt, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var r Receipt
	err = s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "get receipt %s", id)
	}
	return &r, nil
}

func (s *MongoStore) List(ctx context.Context, q Query) ([]*Receipt, error) {
	cur, err := s.coll.Find(ctx, mongoFilter(q), mongoFindOptions(q))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list receipts")
	}
	out := []*Receipt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode receipts")
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func mongoFilter(q Query) bson.D {
	f := bson.D{}
	if q.JobID != nil {
		f = append(f, bson.E{Key: "claim.job_id", Value: *q.JobID})
	}
	if q.Network != 0 {
		f = append(f, bson.E{Key: "claim.network", Value: q.Network})
	}
	if q.Accepted != nil {
		f = append(f, bson.E{Key: "accepted", Value: *q.Accepted})
	}
	return f
}

func mongoFindOptions(q Query) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(q.limit()))
}
