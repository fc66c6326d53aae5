package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/ports"
)

const userCollection = "users"

// MongoUserRepository persists account records. Uniqueness of username and
// email is enforced by the indexes created in EnsureIndexes; duplicate-key
// violations surface as domain.ErrUserExists.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

type mongoUser struct {
	ID           string  `bson:"_id"`
	Username     string  `bson:"username"`
	Name         string  `bson:"name"`
	Email        string  `bson:"email"`
	PasswordHash string  `bson:"password_hash"`
	Role         string  `bson:"role"`
	RefreshToken *string `bson:"refresh_token"`
	IsVerified   bool    `bson:"is_verified"`
	CreatedAt    int64   `bson:"created_at"`
	UpdatedAt    int64   `bson:"updated_at"`
}

// EnsureIndexes creates the unique username/email indexes and the
// refresh-token lookup index. Called once at startup.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "refresh_token", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	doc := mongoUser{
		ID:           user.ID,
		Username:     user.Username,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		IsVerified:   user.IsVerified,
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"refresh_token": token})
}

func (r *MongoUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"refresh_token": token, "updated_at": time.Now().UTC().Unix()},
	})
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) ClearRefreshToken(ctx context.Context, token string) error {
	// Matching zero documents is fine: logout is idempotent.
	_, err := r.coll.UpdateOne(ctx, bson.M{"refresh_token": token}, bson.M{
		"$set": bson.M{"refresh_token": nil, "updated_at": time.Now().UTC().Unix()},
	})
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindSafeByID(ctx context.Context, id string) (*domain.SafeUser, error) {
	opts := options.FindOne().SetProjection(bson.M{"username": 1, "name": 1, "role": 1})

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user view: %w", err)
	}

	return &domain.SafeUser{ID: mu.ID, Username: mu.Username, Name: mu.Name, Role: mu.Role}, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, id string, in ports.UpdateUserInput) error {
	set := bson.M{"updated_at": time.Now().UTC().Unix()}
	if in.Name != "" {
		set["name"] = in.Name
	}
	if in.Email != "" {
		set["email"] = in.Email
	}
	if in.Role != "" {
		set["role"] = in.Role
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Search(ctx context.Context, name, email string) ([]*domain.User, error) {
	filter := bson.M{}
	if name != "" {
		filter["name"] = name
	}
	if email != "" {
		filter["email"] = email
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, toDomain(&mu))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomain(&mu), nil
}

func toDomain(mu *mongoUser) *domain.User {
	u := &domain.User{
		ID:           mu.ID,
		Username:     mu.Username,
		Name:         mu.Name,
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Role:         mu.Role,
		IsVerified:   mu.IsVerified,
		CreatedAt:    unixToTime(mu.CreatedAt),
		UpdatedAt:    unixToTime(mu.UpdatedAt),
	}
	if mu.RefreshToken != nil {
		u.RefreshToken = *mu.RefreshToken
	}
	return u
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
