package products

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/mongodb"
)

type productDocument struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Image        string               `bson:"image"`
	Brand        string               `bson:"brand"`
	Category     string               `bson:"category"`
	Description  string               `bson:"description"`
	Price        primitive.Decimal128 `bson:"price"`
	CountInStock int                  `bson:"countInStock"`
	Rating       primitive.Decimal128 `bson:"rating"`
	NumReviews   int                  `bson:"numReviews"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func toProductDocument(p *models.Product) (productDocument, error) {
	price, err := mongodb.Decimal128(p.Price)
	if err != nil {
		return productDocument{}, err
	}
	rating, err := mongodb.Decimal128(p.Rating)
	if err != nil {
		return productDocument{}, err
	}
	return productDocument{
		ID:           p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Brand:        p.Brand,
		Category:     p.Category,
		Description:  p.Description,
		Price:        price,
		CountInStock: p.CountInStock,
		Rating:       rating,
		NumReviews:   p.NumReviews,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

func (d productDocument) toModel() (*models.Product, error) {
	price, err := mongodb.Decimal(d.Price)
	if err != nil {
		return nil, err
	}
	rating, err := mongodb.Decimal(d.Rating)
	if err != nil {
		return nil, err
	}
	return &models.Product{
		ID:           d.ID,
		Name:         d.Name,
		Image:        d.Image,
		Brand:        d.Brand,
		Category:     d.Category,
		Description:  d.Description,
		Price:        price,
		CountInStock: d.CountInStock,
		Rating:       rating,
		NumReviews:   d.NumReviews,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// MongoRepository exposes product persistence over MongoDB.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository binds the products collection.
func NewMongoRepository(client *mongodb.Client) *MongoRepository {
	return &MongoRepository{coll: client.Collection(mongodb.ProductsCollection)}
}

// keywordFilter matches names containing keyword, ignoring case.
func keywordFilter(keyword string) bson.M {
	kw := normalizeKeyword(keyword)
	if kw == "" {
		return bson.M{}
	}
	return bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(kw), Options: "i"}}
}

func (r *MongoRepository) List(ctx context.Context, keyword string) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, keywordFilter(keyword), opts)
	if err != nil {
		return nil, err
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *product)
	}
	return out, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []productDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		product, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out[product.ID] = product
	}
	return out, nil
}

func (r *MongoRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	doc, err := toProductDocument(product)
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *MongoRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.UpdatedAt = time.Now().UTC()
	doc, err := toProductDocument(product)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"name":         doc.Name,
		"image":        doc.Image,
		"brand":        doc.Brand,
		"category":     doc.Category,
		"description":  doc.Description,
		"price":        doc.Price,
		"countInStock": doc.CountInStock,
		"rating":       doc.Rating,
		"numReviews":   doc.NumReviews,
		"updatedAt":    doc.UpdatedAt,
	}}
	var updated productDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": product.ID}, update, opts).Decode(&updated); err != nil {
		return nil, err
	}
	return updated.toModel()
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

