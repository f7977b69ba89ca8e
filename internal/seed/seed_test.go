package seed

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_records/internal/sales"
)

func TestGenerate(t *testing.T) {
	inputs := Generate(100, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, inputs, 100)

	perOrder := map[string]int{}
	for _, in := range inputs {
		require.NotNil(t, in.OrderID)
		perOrder[*in.OrderID]++
		assert.True(t, in.PriceEach.Valid)
		assert.GreaterOrEqual(t, *in.QuantityOrdered, int32(1))
		assert.Contains(t, *in.PurchaseAddress, *in.OrderCity)
	}
	for orderID, n := range perOrder {
		assert.LessOrEqual(t, n, MaxItemsPerOrder, orderID)
	}
	assert.Less(t, len(perOrder), 100, "some orders have several line items")
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(20, rand.New(rand.NewPCG(7, 7)))
	b := Generate(20, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	svc := sales.NewService(sales.NewLocalStorage(), zaptest.NewLogger(t))
	require.NoError(t, svc.CreateTable(ctx))

	ids, err := Run(ctx, svc, 25, 10, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	require.Len(t, ids, 25)
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(25), ids[24])

	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 25)
}

func TestRun_InvalidBatchSize(t *testing.T) {
	_, err := Run(context.Background(), nil, 5, 0, rand.New(rand.NewPCG(1, 1)))
	assert.Error(t, err)
}
