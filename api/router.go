package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_records/internal/importer"
	"sales_records/internal/sales"
)

// InitRoutes registers the sales record endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, salesService *sales.Service, imp *importer.Importer, logger *zap.Logger) {
	salesHandler := NewSalesHandler(salesService, imp, logger)

	e.POST("/sales", salesHandler.handleCreateSale)
	e.POST("/sales/bulk", salesHandler.handleBulkCreateSales)
	e.POST("/sales/import", salesHandler.handleImportSales)
	e.GET("/sales", salesHandler.handleListSales)
	e.GET("/sales/export", salesHandler.handleExportSales)
	e.GET("/sales/:id", salesHandler.handleGetSale)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
