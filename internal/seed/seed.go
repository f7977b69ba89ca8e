// Package seed generates sample sales line items.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"sales_records/internal/sales"
)

type product struct {
	name  string
	price string
}

var products = []product{
	{"USB-C Charging Cable", "11.95"},
	{"Lightning Charging Cable", "14.95"},
	{"Wired Headphones", "11.99"},
	{"AA Batteries (4-pack)", "3.84"},
	{"AAA Batteries (4-pack)", "2.99"},
	{"Apple Airpods Headphones", "150.00"},
	{"Bose SoundSport Headphones", "99.99"},
	{"27in FHD Monitor", "149.99"},
	{"34in Ultrawide Monitor", "379.99"},
	{"Macbook Pro Laptop", "1700.00"},
	{"ThinkPad Laptop", "999.99"},
	{"Google Phone", "600.00"},
	{"iPhone", "700.00"},
	{"20in Monitor", "109.99"},
	{"Flatscreen TV", "300.00"},
	{"LG Washing Machine", "600.00"},
}

type city struct {
	name  string
	state string
	zip   string
}

var cities = []city{
	{"San Francisco", "CA", "94016"},
	{"Los Angeles", "CA", "90001"},
	{"New York City", "NY", "10001"},
	{"Boston", "MA", "02215"},
	{"Atlanta", "GA", "30301"},
	{"Dallas", "TX", "75001"},
	{"Seattle", "WA", "98101"},
	{"Portland", "OR", "97035"},
	{"Austin", "TX", "73301"},
	{"Springfield", "IL", "62701"},
}

var streets = []string{"Main", "Park", "Oak", "Pine", "Maple", "Cedar", "Elm", "Washington", "Lake", "Hill"}

// MaxItemsPerOrder bounds how many line items share one order_id.
const MaxItemsPerOrder = 3

// Generate returns n line items. Consecutive items are grouped into orders of
// one to MaxItemsPerOrder products sharing order_id, order_date and address.
func Generate(n int, rnd *rand.Rand) []sales.Input {
	inputs := make([]sales.Input, 0, n)
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	for order := 1; len(inputs) < n; order++ {
		orderID := fmt.Sprintf("ORD-%06d", order)
		c := cities[rnd.IntN(len(cities))]
		address := fmt.Sprintf("%d %s St, %s, %s %s", 1+rnd.IntN(999), streets[rnd.IntN(len(streets))], c.name, c.state, c.zip)
		placed := start.Add(time.Duration(rnd.IntN(365*24*60)) * time.Minute)

		items := 1 + rnd.IntN(MaxItemsPerOrder)
		for i := 0; i < items && len(inputs) < n; i++ {
			p := products[rnd.IntN(len(products))]
			inputs = append(inputs, sales.Input{
				OrderID:         ptr(orderID),
				Product:         ptr(p.name),
				QuantityOrdered: ptr(int32(1 + rnd.IntN(4))),
				PriceEach:       decimal.NewNullDecimal(decimal.RequireFromString(p.price)),
				OrderDate:       ptr(placed),
				PurchaseAddress: ptr(address),
				OrderCity:       ptr(c.name),
				OrderState:      ptr(c.state),
			})
		}
	}
	return inputs
}

// BulkInserter stores typed records all-or-nothing.
type BulkInserter interface {
	BulkInsert(ctx context.Context, inputs []sales.Input) ([]int64, error)
}

// Run generates n records and inserts them in batches of batchSize.
func Run(ctx context.Context, store BulkInserter, n, batchSize int, rnd *rand.Rand) ([]int64, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("seed: batch size must be positive, got %d", batchSize)
	}

	inputs := Generate(n, rnd)
	ids := make([]int64, 0, len(inputs))
	for start := 0; start < len(inputs); start += batchSize {
		end := min(start+batchSize, len(inputs))
		batch, err := store.BulkInsert(ctx, inputs[start:end])
		if err != nil {
			return ids, fmt.Errorf("seed: batch %d-%d: %w", start, end, err)
		}
		ids = append(ids, batch...)
	}
	return ids, nil
}

func ptr[T any](v T) *T {
	return &v
}
