package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the API handlers onto a gin engine
func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.POST("/sections/:section/evaluate", h.Evaluate)
		api.GET("/verdicts", h.ListVerdicts)
		api.GET("/verdicts/:section", h.GetSectionVerdicts)

		api.GET("/trends", h.ListTrends)
		api.GET("/trends/:parameter", h.GetTrend)
		api.GET("/trends/:parameter/csv", h.ExportTrendCSV)

		api.GET("/export", h.ExportData)
		api.POST("/import", h.ImportData)
		api.GET("/export/trends.xlsx", h.ExportTrendWorkbook)

		api.GET("/report", h.GenerateReport)
	}
}
