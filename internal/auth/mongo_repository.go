package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB user repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. game_gallery
	Collection string // e.g. users
	Counters   string // e.g. counters (for auto-increment)
}

// MongoUserRepo implements UserRepository on a MongoDB backend.
// Uniqueness of username and email is enforced by unique indexes, so a
// racing duplicate insert surfaces as a duplicate-key error rather than a
// second record.
type MongoUserRepo struct {
	client      *mongo.Client
	collection  *mongo.Collection
	counterColl *mongo.Collection
	ctxTimeout  time.Duration
}

// NewMongoUserRepo establishes the connection and returns the repository.
func NewMongoUserRepo(cfg MongoConfig) (*MongoUserRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "game_gallery"
	}
	if cfg.Collection == "" {
		cfg.Collection = "users"
	}
	if cfg.Counters == "" {
		cfg.Counters = "counters"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	repo := &MongoUserRepo{
		client:      client,
		collection:  db.Collection(cfg.Collection),
		counterColl: db.Collection(cfg.Counters),
		ctxTimeout:  5 * time.Second,
	}

	// Ensure indexes
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	// Uniqueness is case-insensitive: the index covers the folded form,
	// the display form stays as the user typed it.
	usernameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "username_lower", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	}
	emailIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}
	userIDIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userid_unique"),
	}
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{usernameIdx, emailIdx, userIDIdx})
	return err
}

type mongoUserDoc struct {
	UserID       uint64    `bson:"user_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// newUserDoc builds the insert document. username_lower carries the
// folded form the unique index is built on.
func newUserDoc(u *User) bson.M {
	return bson.M{
		"user_id":        u.ID,
		"username":       u.Username,
		"username_lower": normalize(u.Username),
		"email":          u.Email,
		"password_hash":  u.PasswordHash,
		"created_at":     u.CreatedAt,
	}
}

func (d *mongoUserDoc) toUser() *User {
	return &User{
		ID:           d.UserID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// GetUserByEmail implements UserRepository.
func (m *MongoUserRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	var doc mongoUserDoc
	err := m.collection.FindOne(ctx, bson.M{"email": normalize(email)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

// GetUserByID implements UserRepository.
func (m *MongoUserRepo) GetUserByID(ctx context.Context, id uint64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	var doc mongoUserDoc
	err := m.collection.FindOne(ctx, bson.M{"user_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

// CreateUser inserts a new document and returns the created user.
func (m *MongoUserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	// generate next id
	nextID, err := m.nextSequence(ctx, "userid")
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           nextID,
		Username:     username,
		Email:        normalize(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	_, err = m.collection.InsertOne(ctx, newUserDoc(user))
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUserByID removes the user document. A delete that matches nothing
// still succeeds: the record is gone either way.
func (m *MongoUserRepo) DeleteUserByID(ctx context.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	_, err := m.collection.DeleteOne(ctx, bson.M{"user_id": id})
	return err
}

// nextSequence atomically increments a counter and returns the new value.
func (m *MongoUserRepo) nextSequence(ctx context.Context, name string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	res := m.counterColl.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := res.Decode(&doc)
	if err != nil {
		return 0, err
	}
	return uint64(doc.Seq), nil
}

// Close terminates the connection.
func (m *MongoUserRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
