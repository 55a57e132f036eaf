package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/retail-platform/sales-service/internal/domain"
	"github.com/retail-platform/sales-service/pkg/logging"
	"github.com/retail-platform/sales-service/pkg/metrics"
)

const salesCollection = "sales"

// saleDocument is the persistence shape of a sale. Monetary values are
// stored as Decimal128 so aggregation keeps exact arithmetic.
type saleDocument struct {
	ID                        string               `bson:"_id"`
	SaleNumber                string               `bson:"saleNumber"`
	SaleDate                  time.Time            `bson:"saleDate"`
	CustomerID                int64                `bson:"customerId"`
	CustomerName              string               `bson:"customerName"`
	BranchID                  int64                `bson:"branchId"`
	BranchName                string               `bson:"branchName"`
	Items                     []saleItemDocument   `bson:"items"`
	TotalAmountBeforeDiscount primitive.Decimal128 `bson:"totalAmountBeforeDiscount"`
	TotalAmount               primitive.Decimal128 `bson:"totalAmount"`
	IsCancelled               bool                 `bson:"isCancelled"`
	CreatedAt                 time.Time            `bson:"createdAt"`
	UpdatedAt                 *time.Time           `bson:"updatedAt,omitempty"`
}

type saleItemDocument struct {
	ID          string               `bson:"itemId"`
	ProductID   int64                `bson:"productId"`
	ProductName string               `bson:"productName"`
	Quantity    int                  `bson:"quantity"`
	UnitPrice   primitive.Decimal128 `bson:"unitPrice"`
	Discount    primitive.Decimal128 `bson:"discount"`
	TotalAmount primitive.Decimal128 `bson:"totalAmount"`
}

// SaleRepository implements domain.SaleRepository
type SaleRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(db *mongo.Database, logger *logging.Logger, m *metrics.Metrics) *SaleRepository {
	collection := db.Collection(salesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "saleNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "saleDate", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "customerName", Value: 1},
				{Key: "saleDate", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "branchName", Value: 1},
				{Key: "saleDate", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "isCancelled", Value: 1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)

	return &SaleRepository{
		collection: collection,
		logger:     logger,
		metrics:    m,
	}
}

// Create inserts a new sale
func (r *SaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	start := time.Now()

	doc, err := toDocument(sale)
	if err != nil {
		return err
	}

	_, err = r.collection.InsertOne(ctx, doc)
	r.observe(ctx, "insert", start, err, 1)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

// GetByID retrieves a sale by ID. Returns nil without error when the
// sale does not exist.
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	start := time.Now()

	var doc saleDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	r.observe(ctx, "findOne", start, err, 1)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return toDomain(&doc)
}

// GetAll retrieves sales matching the query, ordered by sale date
func (r *SaleRepository) GetAll(ctx context.Context, query domain.SaleQuery) ([]*domain.Sale, error) {
	start := time.Now()

	filter := buildFilter(query.Filter)
	sortDir := 1
	if query.Order == domain.SortDescending {
		sortDir = -1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "saleDate", Value: sortDir}}).
		SetSkip(query.Skip()).
		SetLimit(query.Limit())

	cursor, err := r.collection.Find(ctx, filter, opts)
	r.observe(ctx, "find", start, err, query.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []saleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sales: %w", err)
	}

	sales := make([]*domain.Sale, 0, len(docs))
	for i := range docs {
		sale, err := toDomain(&docs[i])
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

// Count returns the number of sales matching the filter
func (r *SaleRepository) Count(ctx context.Context, filter *domain.SaleFilter) (int64, error) {
	start := time.Now()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	r.observe(ctx, "count", start, err, count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// Update replaces an existing sale. Returns false when no sale with
// that ID exists.
func (r *SaleRepository) Update(ctx context.Context, sale *domain.Sale) (bool, error) {
	start := time.Now()

	doc, err := toDocument(sale)
	if err != nil {
		return false, err
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": sale.ID}, doc)
	if err != nil {
		r.observe(ctx, "replace", start, err, 0)
		return false, fmt.Errorf("failed to update sale: %w", err)
	}
	r.observe(ctx, "replace", start, nil, result.ModifiedCount)
	return result.MatchedCount > 0, nil
}

// Delete cancels a sale in place. The record is kept with the
// cancelled flag set.
func (r *SaleRepository) Delete(ctx context.Context, id string) (bool, error) {
	start := time.Now()

	update := bson.M{
		"$set": bson.M{
			"isCancelled": true,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		r.observe(ctx, "update", start, err, 0)
		return false, fmt.Errorf("failed to cancel sale: %w", err)
	}
	r.observe(ctx, "update", start, nil, result.ModifiedCount)
	return result.MatchedCount > 0, nil
}

// ExistsAndNotCancelled reports whether an active sale with the given
// ID exists.
func (r *SaleRepository) ExistsAndNotCancelled(ctx context.Context, id string) (bool, error) {
	start := time.Now()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"_id":         id,
		"isCancelled": false,
	}, options.Count().SetLimit(1))
	r.observe(ctx, "count", start, err, count)
	if err != nil {
		return false, fmt.Errorf("failed to check sale: %w", err)
	}
	return count > 0, nil
}

func (r *SaleRepository) observe(ctx context.Context, operation string, start time.Time, err error, rowsAffected int64) {
	duration := time.Since(start)
	success := err == nil || errors.Is(err, mongo.ErrNoDocuments)
	if r.metrics != nil {
		r.metrics.RecordMongoDBOperation(salesCollection, operation, success, duration)
	}
	if r.logger != nil {
		r.logger.DatabaseQuery(ctx, salesCollection, operation, duration, success, rowsAffected)
	}
}

// buildFilter translates a domain filter into a Mongo query. Name
// filters match as case-insensitive substrings; a plain sale date
// matches the whole calendar day.
func buildFilter(filter *domain.SaleFilter) bson.M {
	mongoFilter := bson.M{}
	if filter == nil {
		return mongoFilter
	}

	if filter.CustomerName != "" {
		mongoFilter["customerName"] = bson.M{
			"$regex":   regexQuote(filter.CustomerName),
			"$options": "i",
		}
	}
	if filter.BranchName != "" {
		mongoFilter["branchName"] = bson.M{
			"$regex":   regexQuote(filter.BranchName),
			"$options": "i",
		}
	}

	if filter.SaleDate != nil {
		day := filter.SaleDate.UTC()
		mongoFilter["saleDate"] = bson.M{
			"$gte": day,
			"$lt":  day.AddDate(0, 0, 1),
		}
	} else {
		dateRange := bson.M{}
		if filter.SaleDateStart != nil {
			dateRange["$gte"] = filter.SaleDateStart.UTC()
		}
		if filter.SaleDateEnd != nil {
			dateRange["$lt"] = filter.SaleDateEnd.UTC().AddDate(0, 0, 1)
		}
		if len(dateRange) > 0 {
			mongoFilter["saleDate"] = dateRange
		}
	}

	if filter.IsCancelled != nil {
		mongoFilter["isCancelled"] = *filter.IsCancelled
	}

	return mongoFilter
}

var regexMeta = map[rune]struct{}{
	'\\': {}, '.': {}, '+': {}, '*': {}, '?': {}, '(': {}, ')': {},
	'[': {}, ']': {}, '{': {}, '}': {}, '^': {}, '$': {}, '|': {},
}

func regexQuote(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if _, meta := regexMeta[r]; meta {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func toDocument(sale *domain.Sale) (*saleDocument, error) {
	items := make([]saleItemDocument, len(sale.Items))
	for i, item := range sale.Items {
		unitPrice, err := toDecimal128(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		discount, err := toDecimal128(item.Discount)
		if err != nil {
			return nil, err
		}
		totalAmount, err := toDecimal128(item.TotalAmount)
		if err != nil {
			return nil, err
		}
		items[i] = saleItemDocument{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Discount:    discount,
			TotalAmount: totalAmount,
		}
	}

	beforeDiscount, err := toDecimal128(sale.TotalAmountBeforeDiscount)
	if err != nil {
		return nil, err
	}
	totalAmount, err := toDecimal128(sale.TotalAmount)
	if err != nil {
		return nil, err
	}

	return &saleDocument{
		ID:                        sale.ID,
		SaleNumber:                sale.SaleNumber,
		SaleDate:                  sale.SaleDate.UTC(),
		CustomerID:                sale.CustomerID,
		CustomerName:              sale.CustomerName,
		BranchID:                  sale.BranchID,
		BranchName:                sale.BranchName,
		Items:                     items,
		TotalAmountBeforeDiscount: beforeDiscount,
		TotalAmount:               totalAmount,
		IsCancelled:               sale.IsCancelled,
		CreatedAt:                 sale.CreatedAt.UTC(),
		UpdatedAt:                 sale.UpdatedAt,
	}, nil
}

func toDomain(doc *saleDocument) (*domain.Sale, error) {
	items := make([]*domain.SaleItem, len(doc.Items))
	for i, item := range doc.Items {
		unitPrice, err := fromDecimal128(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		discount, err := fromDecimal128(item.Discount)
		if err != nil {
			return nil, err
		}
		totalAmount, err := fromDecimal128(item.TotalAmount)
		if err != nil {
			return nil, err
		}
		items[i] = &domain.SaleItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Discount:    discount,
			TotalAmount: totalAmount,
		}
	}

	beforeDiscount, err := fromDecimal128(doc.TotalAmountBeforeDiscount)
	if err != nil {
		return nil, err
	}
	totalAmount, err := fromDecimal128(doc.TotalAmount)
	if err != nil {
		return nil, err
	}

	return &domain.Sale{
		ID:                        doc.ID,
		SaleNumber:                doc.SaleNumber,
		SaleDate:                  doc.SaleDate.UTC(),
		CustomerID:                doc.CustomerID,
		CustomerName:              doc.CustomerName,
		BranchID:                  doc.BranchID,
		BranchName:                doc.BranchName,
		Items:                     items,
		TotalAmountBeforeDiscount: beforeDiscount,
		TotalAmount:               totalAmount,
		IsCancelled:               doc.IsCancelled,
		CreatedAt:                 doc.CreatedAt.UTC(),
		UpdatedAt:                 doc.UpdatedAt,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode decimal %q: %w", d.String(), err)
	}
	return out, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode decimal %q: %w", d.String(), err)
	}
	return out, nil
}
