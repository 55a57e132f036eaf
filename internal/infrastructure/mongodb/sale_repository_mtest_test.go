package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/retail-platform/sales-service/internal/domain"
)

func dec128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func mockSaleDoc(t *testing.T, id string) bson.D {
	t.Helper()
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "saleNumber", Value: "SALE-20240315-AB12CD34"},
		{Key: "saleDate", Value: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{Key: "customerId", Value: int64(1)},
		{Key: "customerName", Value: "Acme Corp"},
		{Key: "branchId", Value: int64(2)},
		{Key: "branchName", Value: "Main Branch"},
		{Key: "items", Value: bson.A{bson.D{
			{Key: "itemId", Value: "item-1"},
			{Key: "productId", Value: int64(1)},
			{Key: "productName", Value: "Widget Standard"},
			{Key: "quantity", Value: 5},
			{Key: "unitPrice", Value: dec128(t, "10")},
			{Key: "discount", Value: dec128(t, "5")},
			{Key: "totalAmount", Value: dec128(t, "45")},
		}}},
		{Key: "totalAmountBeforeDiscount", Value: dec128(t, "50")},
		{Key: "totalAmount", Value: dec128(t, "45")},
		{Key: "isCancelled", Value: false},
		{Key: "createdAt", Value: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
	}
}

func TestSaleRepositoryConstructor(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewSaleRepository(mt.DB, nil, nil)
		require.NotNil(t, repo)
	})
}

func TestSaleRepositoryMockOps(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("crud round trip", func(mt *mtest.T) {
		coll := mt.DB.Collection(salesCollection)
		repo := &SaleRepository{collection: coll}
		ctx := context.Background()
		ns := coll.Database().Name() + "." + coll.Name()

		sale, err := domain.NewSale(
			time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
			1, "Acme Corp", 2, "Main Branch",
			[]*domain.SaleItem{domain.NewSaleItem(1, "Widget Standard", 5, decimal.NewFromInt(10))},
		)
		require.NoError(t, err)
		require.NoError(t, sale.ApplyDiscounts(domain.DefaultDiscountPolicy()))
		sale.CalculateTotalAmount()

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, repo.Create(ctx, sale))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, mockSaleDoc(t, sale.ID)))
		found, err := repo.GetByID(ctx, sale.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "SALE-20240315-AB12CD34", found.SaleNumber)
		assert.True(t, decimal.NewFromInt(45).Equal(found.TotalAmount))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		missing, err := repo.GetByID(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, missing)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, mockSaleDoc(t, sale.ID)))
		list, err := repo.GetAll(ctx, domain.SaleQuery{Page: 1, PageSize: 10, Order: domain.SortAscending})
		require.NoError(t, err)
		require.Len(t, list, 1)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "n", Value: int64(1)},
		}))
		count, err := repo.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "n", Value: 1},
			{Key: "nModified", Value: 1},
		})
		updated, err := repo.Update(ctx, sale)
		require.NoError(t, err)
		assert.True(t, updated)

		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "n", Value: 1},
			{Key: "nModified", Value: 1},
		})
		cancelled, err := repo.Delete(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, cancelled)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "n", Value: int64(0)},
		}))
		active, err := repo.ExistsAndNotCancelled(ctx, sale.ID)
		require.NoError(t, err)
		assert.False(t, active)
	})
}
