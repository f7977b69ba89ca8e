package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_records/internal/exporter"
	"sales_records/internal/importer"
	"sales_records/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	importer     *importer.Importer
	exporter     *exporter.Exporter
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, imp *importer.Importer, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		importer:     imp,
		exporter:     exporter.New(salesService, exporter.WithLogger(logger)),
		logger:       logger,
	}
}

// handleCreateSale handles the POST /sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req map[string]any
	if err := decodeJSON(ctx, &req); err != nil || req == nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	id, err := h.salesService.InsertValues(ctx.Request.Context(), req)
	if err != nil {
		h.writeError(ctx, err, "failed to create sales record")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": id})
}

// handleBulkCreateSales handles the POST /sales/bulk endpoint.
func (h *salesHandler) handleBulkCreateSales(ctx *gin.Context) {
	var req struct {
		Records []map[string]any `json:"records"`
	}
	if err := decodeJSON(ctx, &req); err != nil || req.Records == nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	ids, err := h.salesService.BulkInsertValues(ctx.Request.Context(), req.Records)
	if err != nil {
		h.writeError(ctx, err, "failed to create sales records")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"ids": ids})
}

// handleImportSales handles the POST /sales/import endpoint. The body is CSV.
func (h *salesHandler) handleImportSales(ctx *gin.Context) {
	res, err := h.importer.Import(ctx.Request.Context(), ctx.Request.Body)
	if err != nil {
		var ce *sales.TypeCoercionError
		if errors.As(err, &ce) {
			h.logger.Warn("csv import rejected", zap.Int("inserted", res.Inserted), zap.Error(err))
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":    err.Error(),
				"column":   ce.Column,
				"reason":   ce.Reason,
				"inserted": res.Inserted,
				"ids":      res.IDs,
			})
			return
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) || errors.Is(err, importer.ErrEmptyInput) {
			h.logger.Warn("malformed csv import", zap.Error(err))
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "inserted": res.Inserted, "ids": res.IDs})
			return
		}
		h.writeError(ctx, err, "failed to import sales records")
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

// handleListSales handles the GET /sales endpoint.
func (h *salesHandler) handleListSales(ctx *gin.Context) {
	records, err := h.salesService.List(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err, "failed to list sales records")
		return
	}
	if records == nil {
		records = []*sales.SalesRecord{}
	}
	ctx.JSON(http.StatusOK, gin.H{"records": records})
}

// handleExportSales handles the GET /sales/export endpoint.
func (h *salesHandler) handleExportSales(ctx *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.exporter.Export(ctx.Request.Context(), &buf); err != nil {
		h.writeError(ctx, err, "failed to export sales records")
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="sales.csv"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	record, err := h.salesService.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sales.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "sales record not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	ctx.JSON(http.StatusOK, record)
}

// writeError maps service errors to HTTP responses.
func (h *salesHandler) writeError(ctx *gin.Context, err error, msg string) {
	var ce *sales.TypeCoercionError
	switch {
	case errors.As(err, &ce):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "type coercion failed",
			"position": ce.Position,
			"column":   ce.Column,
			"reason":   ce.Reason,
		})
	case errors.Is(err, sales.ErrNoTable):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// decodeJSON reads the request body keeping numbers as json.Number, so prices
// keep their exact decimal text.
func decodeJSON(ctx *gin.Context, dst any) error {
	dec := json.NewDecoder(ctx.Request.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}
