package orders

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/mongodb"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
)

type eventPublisher interface {
	Publish(ctx context.Context, event outbox.DomainEvent) error
}

type orderItemDocument struct {
	Name    string               `bson:"name"`
	Qty     int                  `bson:"qty"`
	Image   string               `bson:"image"`
	Price   primitive.Decimal128 `bson:"price"`
	Product string               `bson:"product"`
}

type shippingDocument struct {
	Address    string `bson:"address"`
	City       string `bson:"city"`
	PostalCode string `bson:"postalCode"`
	Country    string `bson:"country"`
}

type orderDocument struct {
	ID              string               `bson:"_id"`
	User            string               `bson:"user"`
	OrderItems      []orderItemDocument  `bson:"orderItems"`
	ShippingAddress shippingDocument     `bson:"shippingAddress"`
	PaymentMethod   string               `bson:"paymentMethod"`
	ItemsPrice      primitive.Decimal128 `bson:"itemsPrice"`
	ShippingPrice   primitive.Decimal128 `bson:"shippingPrice"`
	TotalPrice      primitive.Decimal128 `bson:"totalPrice"`
	IsPaid          bool                 `bson:"isPaid"`
	PaidAt          *time.Time           `bson:"paidAt,omitempty"`
	IsDelivered     bool                 `bson:"isDelivered"`
	DeliveredAt     *time.Time           `bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func toOrderDocument(o *models.Order) (orderDocument, error) {
	doc := orderDocument{
		ID:   o.ID,
		User: o.UserID,
		ShippingAddress: shippingDocument{
			Address:    o.ShippingAddress,
			City:       o.ShippingCity,
			PostalCode: o.ShippingPostalCode,
			Country:    o.ShippingCountry,
		},
		PaymentMethod: string(o.PaymentMethod),
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	var err error
	if doc.ItemsPrice, err = mongodb.Decimal128(o.ItemsPrice); err != nil {
		return orderDocument{}, err
	}
	if doc.ShippingPrice, err = mongodb.Decimal128(o.ShippingPrice); err != nil {
		return orderDocument{}, err
	}
	if doc.TotalPrice, err = mongodb.Decimal128(o.TotalPrice); err != nil {
		return orderDocument{}, err
	}
	doc.OrderItems = make([]orderItemDocument, 0, len(o.Items))
	for _, item := range o.Items {
		price, err := mongodb.Decimal128(item.Price)
		if err != nil {
			return orderDocument{}, err
		}
		doc.OrderItems = append(doc.OrderItems, orderItemDocument{
			Name:    item.Name,
			Qty:     item.Qty,
			Image:   item.Image,
			Price:   price,
			Product: item.ProductID,
		})
	}
	return doc, nil
}

func (d orderDocument) toModel() (*models.Order, error) {
	order := &models.Order{
		ID:                 d.ID,
		UserID:             d.User,
		ShippingAddress:    d.ShippingAddress.Address,
		ShippingCity:       d.ShippingAddress.City,
		ShippingPostalCode: d.ShippingAddress.PostalCode,
		ShippingCountry:    d.ShippingAddress.Country,
		PaymentMethod:      enums.PaymentMethod(d.PaymentMethod),
		IsPaid:             d.IsPaid,
		PaidAt:             d.PaidAt,
		IsDelivered:        d.IsDelivered,
		DeliveredAt:        d.DeliveredAt,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	var err error
	if order.ItemsPrice, err = mongodb.Decimal(d.ItemsPrice); err != nil {
		return nil, err
	}
	if order.ShippingPrice, err = mongodb.Decimal(d.ShippingPrice); err != nil {
		return nil, err
	}
	if order.TotalPrice, err = mongodb.Decimal(d.TotalPrice); err != nil {
		return nil, err
	}
	order.Items = make([]models.OrderItem, 0, len(d.OrderItems))
	for i, item := range d.OrderItems {
		price, err := mongodb.Decimal(item.Price)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, models.OrderItem{
			OrderID:   d.ID,
			Position:  i,
			ProductID: item.Product,
			Name:      item.Name,
			Qty:       item.Qty,
			Image:     item.Image,
			Price:     price,
		})
	}
	return order, nil
}

// MongoRepository persists orders in MongoDB. There is no outbox collection;
// events go straight to the sink after the write and a publish failure is
// only logged.
type MongoRepository struct {
	coll   *mongo.Collection
	events eventPublisher
	logg   *logger.Logger
}

// NewMongoRepository binds the orders collection.
func NewMongoRepository(client *mongodb.Client, events eventPublisher, logg *logger.Logger) (*MongoRepository, error) {
	if client == nil {
		return nil, errors.New("mongo client required")
	}
	if events == nil {
		return nil, errors.New("event publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &MongoRepository{coll: client.Collection(mongodb.OrdersCollection), events: events, logg: logg}, nil
}

func (r *MongoRepository) Create(ctx context.Context, order *models.Order, event outbox.DomainEvent) (*models.Order, error) {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	doc, err := toOrderDocument(order)
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	r.publish(ctx, event)
	sortItems(order)
	return order, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var doc orderDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *MongoRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) MarkPaid(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error) {
	return r.transition(ctx, id, "isPaid", bson.M{"isPaid": true, "paidAt": at, "updatedAt": at}, event)
}

func (r *MongoRepository) MarkDelivered(ctx context.Context, id string, at time.Time, event outbox.DomainEvent) (*models.Order, error) {
	return r.transition(ctx, id, "isDelivered", bson.M{"isDelivered": true, "deliveredAt": at, "updatedAt": at}, event)
}

func (r *MongoRepository) transition(ctx context.Context, id, flag string, set bson.M, event outbox.DomainEvent) (*models.Order, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, flag: false}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 1 {
		r.publish(ctx, event)
	}
	return r.FindByID(ctx, id)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, nil
}

func (r *MongoRepository) publish(ctx context.Context, event outbox.DomainEvent) {
	if err := r.events.Publish(ctx, event); err != nil {
		r.logg.Error(r.logg.WithFields(ctx, map[string]any{
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID,
		}), "publish order event", err)
	}
}
