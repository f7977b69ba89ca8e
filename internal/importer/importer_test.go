package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_records/internal/sales"
)

const kaggleCSV = `Order ID,Product,Quantity Ordered,Price Each,Order Date,Purchase Address
176558,USB-C Charging Cable,2,11.95,04/19/19 08:46,"917 1st St, Dallas, TX 75001"
,,,,,
176559,Bose SoundSport Headphones,1,99.99,04/07/19 22:30,"682 Chestnut St, Boston, MA 02215"
Order ID,Product,Quantity Ordered,Price Each,Order Date,Purchase Address
176560,Google Phone,1,600,04/12/19 14:38,"669 Spruce St, Los Angeles, CA 90001"
176560,Wired Headphones,1,11.99,04/12/19 14:38,"669 Spruce St, Los Angeles, CA 90001"
`

func newService(t *testing.T) *sales.Service {
	t.Helper()
	svc := sales.NewService(sales.NewLocalStorage(), zaptest.NewLogger(t), sales.WithDateLayouts("01/02/06 15:04"))
	require.NoError(t, svc.CreateTable(context.Background()))
	return svc
}

func TestImport_KaggleExport(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain", kaggleCSV},
		{"utf-8 bom", "\ufeff" + kaggleCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newService(t)
			im := New(svc, WithBatchSize(2), WithLogger(zaptest.NewLogger(t)))

			res, err := im.Import(ctx, strings.NewReader(tt.input))
			require.NoError(t, err)

			assert.Equal(t, 6, res.Rows)
			assert.Equal(t, 2, res.Skipped)
			assert.Equal(t, 4, res.Inserted)
			assert.Equal(t, 2, res.Batches)
			assert.Equal(t, []int64{1, 2, 3, 4}, res.IDs)

			records, err := svc.List(ctx)
			require.NoError(t, err)
			require.Len(t, records, 4)

			first := records[0]
			assert.Equal(t, "176558", *first.OrderID)
			assert.Equal(t, "USB-C Charging Cable", *first.Product)
			assert.Equal(t, int32(2), *first.QuantityOrdered)
			assert.Equal(t, "11.95", first.PriceEach.Decimal.String())
			assert.Equal(t, 2019, first.OrderDate.Year())
			assert.Equal(t, "917 1st St, Dallas, TX 75001", *first.PurchaseAddress)
			assert.Nil(t, first.OrderCity, "city is never derived from the address")
			assert.Nil(t, first.OrderState)

			assert.Equal(t, *records[2].OrderID, *records[3].OrderID)
		})
	}
}

func TestImport_ColumnNamesAndAliases(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	input := "order_id;product;City;State;discount\nORD-1;Widget;Springfield;IL;5\n"

	res, err := New(svc, WithDelimiter(';')).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.IDs, 1)

	got, err := svc.Get(ctx, res.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Springfield", *got.OrderCity)
	assert.Equal(t, "IL", *got.OrderState)
}

func TestImport_FailingBatchStopsImport(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	input := strings.Join([]string{
		"order_id,quantity_ordered",
		"A,1",
		"B,2",
		"C,3",
		"D,abc",
		"E,5",
	}, "\n")

	res, err := New(svc, WithBatchSize(2)).Import(ctx, strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 5")

	var ce *sales.TypeCoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Position)

	assert.Equal(t, 2, res.Inserted)
	records, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestImport_EmptyInput(t *testing.T) {
	_, err := New(newService(t)).Import(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestImport_HeaderOnly(t *testing.T) {
	res, err := New(newService(t)).Import(context.Background(), strings.NewReader("order_id,product\n"))
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Zero(t, res.Batches)
}

type failingStore struct{ calls int }

func (f *failingStore) BulkInsertValues(context.Context, []map[string]any) ([]int64, error) {
	f.calls++
	return nil, errors.New("connection reset")
}

func TestImport_StoreError(t *testing.T) {
	store := &failingStore{}
	_, err := New(store).Import(context.Background(), strings.NewReader("product\nWidget\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch starting at line 2")
	assert.Equal(t, 1, store.calls)
}

func TestImport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newService(t)).Import(ctx, strings.NewReader("product\nWidget\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "quantity_ordered", NormalizeHeader(" Quantity Ordered "))
	assert.Equal(t, "order_id", NormalizeHeader("\ufeffOrder ID"))
	assert.Equal(t, "sub_category", NormalizeHeader("Sub-Category"))
}
