package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_records/internal/importer"
	"sales_records/internal/sales"
)

func initRoutesTests(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	logger := zaptest.NewLogger(t)
	svc := sales.NewService(sales.NewLocalStorage(), logger, sales.WithDateLayouts("01/02/06 15:04"))
	require.NoError(t, svc.CreateTable(context.Background()))

	InitRoutes(router, svc, importer.New(svc, importer.WithLogger(logger)), logger)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestSalesHappyPath_FullFlow exercises POST -> GET -> bulk POST.
func TestSalesHappyPath_FullFlow(t *testing.T) {
	router := initRoutesTests(t)

	var saleID int64

	t.Run("POST_CreateSale", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/sales", map[string]any{
			"order_id":         "ORD-1",
			"product":          "Widget",
			"quantity_ordered": 3,
			"price_each":       19.99,
			"order_date":       "2024-01-05T10:00:00",
			"purchase_address": "1 Main St",
			"order_city":       "Springfield",
			"order_state":      "IL",
		})
		assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP 201 Created status for successful insert")

		var resp struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.ID, "Expected the first id to be 1")
		saleID = resp.ID
	})

	if saleID == 0 {
		t.Fatal("Sale ID was not successfully generated in POST_CreateSale step.")
	}

	t.Run("GET_Sale", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/sales/%d", saleID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, float64(saleID), got["id"])
		assert.Equal(t, "ORD-1", got["order_id"])
		assert.Equal(t, "19.99", got["price_each"], "Expected price to keep its exact decimal text")
		assert.Equal(t, "2024-01-05T10:00:00Z", got["order_date"])
		assert.Equal(t, "Springfield", got["order_city"])
	})

	t.Run("POST_BulkCreateSales", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/sales/bulk", map[string]any{
			"records": []map[string]any{
				{"order_id": "ORD-1", "product": "Gadget"},
				{"order_id": "ORD-2", "product": "Gizmo", "price_each": "5.50"},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			IDs []int64 `json:"ids"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []int64{2, 3}, resp.IDs)
	})
}

func TestBulkCreateSales_RejectsWholeBatch(t *testing.T) {
	router := initRoutesTests(t)

	w := doJSON(router, http.MethodPost, "/sales/bulk", map[string]any{
		"records": []map[string]any{
			{"product": "A", "quantity_ordered": 1},
			{"product": "B", "quantity_ordered": 2},
			{"product": "C", "quantity_ordered": 3},
			{"product": "D", "quantity_ordered": "abc"},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Position int    `json:"position"`
		Column   string `json:"column"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Position)
	assert.Equal(t, "quantity_ordered", resp.Column)

	req := httptest.NewRequest(http.MethodGet, "/sales/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "Expected no row from the rejected batch")
}

func TestCreateSale_ProductTooLong(t *testing.T) {
	router := initRoutesTests(t)

	w := doJSON(router, http.MethodPost, "/sales", map[string]any{"product": strings.Repeat("x", 101)})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(router, http.MethodPost, "/sales", map[string]any{"product": strings.Repeat("x", 100)})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateSale_InvalidJSON(t *testing.T) {
	router := initRoutesTests(t)

	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSale_BadAndMissingID(t *testing.T) {
	router := initRoutesTests(t)

	for path, code := range map[string]int{
		"/sales/abc": http.StatusBadRequest,
		"/sales/7":   http.StatusNotFound,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, path)
	}
}

func TestImportSales(t *testing.T) {
	router := initRoutesTests(t)

	csv := "Order ID,Product,Quantity Ordered,Price Each,Order Date,Purchase Address\n" +
		"176558,USB-C Charging Cable,2,11.95,04/19/19 08:46,\"917 1st St, Dallas, TX 75001\"\n" +
		"176559,Bose SoundSport Headphones,1,99.99,04/07/19 22:30,\"682 Chestnut St, Boston, MA 02215\"\n"

	req := httptest.NewRequest(http.MethodPost, "/sales/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var res importer.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, []int64{1, 2}, res.IDs)
}

func TestImportSales_BadRow(t *testing.T) {
	router := initRoutesTests(t)

	req := httptest.NewRequest(http.MethodPost, "/sales/import", strings.NewReader("product,quantity_ordered\nWidget,lots\n"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

type brokenStorage struct {
	*sales.LocalStorage
}

func (brokenStorage) BulkInsert(context.Context, []sales.Input) ([]int64, error) {
	return nil, errors.New("connection reset")
}

func TestImportSales_StoreFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	broken := brokenStorage{sales.NewLocalStorage()}
	require.NoError(t, broken.CreateTable(context.Background()))

	tests := []struct {
		name    string
		storage sales.Storage
		code    int
	}{
		{"table never created", sales.NewLocalStorage(), http.StatusServiceUnavailable},
		{"backend error", broken, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			svc := sales.NewService(tt.storage, logger)
			InitRoutes(router, svc, importer.New(svc), logger)

			req := httptest.NewRequest(http.MethodPost, "/sales/import", strings.NewReader("product\nWidget\n"))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestImportSales_MalformedCSV(t *testing.T) {
	router := initRoutesTests(t)

	for _, body := range []string{"", "product\n\"Widget\"x\n"} {
		req := httptest.NewRequest(http.MethodPost, "/sales/import", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestListAndExportSales(t *testing.T) {
	router := initRoutesTests(t)

	w := doJSON(router, http.MethodPost, "/sales/bulk", map[string]any{
		"records": []map[string]any{
			{"order_id": "ORD-1", "product": "Widget", "price_each": 19.99, "quantity_ordered": 2},
			{"order_id": "ORD-1", "product": "Gadget"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("GET_ListSales", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Records []map[string]any `json:"records"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Records, 2)
		assert.Equal(t, "19.99", resp.Records[0]["price_each"])
		assert.Equal(t, "Gadget", resp.Records[1]["product"])
	})

	t.Run("GET_ExportSales", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sales/export", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

		want := "id,order_id,product,quantity_ordered,price_each,order_date,purchase_address,order_city,order_state\n" +
			"1,ORD-1,Widget,2,19.99,,,,\n" +
			"2,ORD-1,Gadget,,,,,,\n"
		assert.Equal(t, want, w.Body.String())
	})
}

func TestCreateSale_KeepsDecimalText(t *testing.T) {
	router := initRoutesTests(t)

	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"price_each": 0.10, "quantity_ordered": 3.0}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/sales/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "0.1", got["price_each"])
	assert.Equal(t, float64(3), got["quantity_ordered"])
}

func TestPing(t *testing.T) {
	router := initRoutesTests(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
