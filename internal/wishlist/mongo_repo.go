package wishlist

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/angelmondragon/aura-storefront/pkg/mongodb"
)

// MongoRepository keeps the wishlist as an array on the user document.
type MongoRepository struct {
	users *mongo.Collection
}

// NewMongoRepository binds the users collection.
func NewMongoRepository(client *mongodb.Client) *MongoRepository {
	return &MongoRepository{users: client.Collection(mongodb.UsersCollection)}
}

func (r *MongoRepository) Add(ctx context.Context, userID, productID string) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"wishlist": productID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "wishlist": productID},
		bson.M{"$pull": bson.M{"wishlist": productID}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoRepository) ListProductIDs(ctx context.Context, userID string) ([]string, error) {
	var doc struct {
		Wishlist []string `bson:"wishlist"`
	}
	opts := options.FindOne().SetProjection(bson.M{"wishlist": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Wishlist == nil {
		return []string{}, nil
	}
	return doc.Wishlist, nil
}
