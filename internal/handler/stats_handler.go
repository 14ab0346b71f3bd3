package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lawnorm/internal/csvexport"
	"lawnorm/internal/service"
	"lawnorm/internal/xlsxexport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatsHandler handles reporting endpoints.
type StatsHandler struct {
	reportService service.ReportService
	logger        *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(reportService service.ReportService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{reportService: reportService, logger: logger}
}

// GetStats handles GET /api/v1/stats
// @Summary Get corpus statistics
// @Description Totals of loaded, processed, translated and permanently failed documents.
// @Tags stats
// @Produce json
// @Success 200 {object} Response{data=domain.Stats} "Aggregate statistics"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.reportService.Stats(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, stats)
}

// GetStateCoverage handles GET /api/v1/stats/states
// @Summary Per-state coverage
// @Tags stats
// @Produce json
// @Success 200 {object} Response{data=[]domain.StateCoverage} "Coverage by state"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /stats/states [get]
func (h *StatsHandler) GetStateCoverage(c *gin.Context) {
	states, err := h.reportService.StateCoverage(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, states)
}

// GetTypeCounts handles GET /api/v1/stats/types
// @Summary Documents per classified type
// @Tags stats
// @Produce json
// @Success 200 {object} Response{data=[]domain.TypeCount} "Counts by document type"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /stats/types [get]
func (h *StatsHandler) GetTypeCounts(c *gin.Context) {
	types, err := h.reportService.TypeCounts(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, types)
}

// GetSchemaStats handles GET /api/v1/stats/schemas
// @Summary Schema registry with success rates
// @Tags stats
// @Produce json
// @Success 200 {object} Response{data=[]domain.SchemaStats} "Schemas"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /stats/schemas [get]
func (h *StatsHandler) GetSchemaStats(c *gin.Context) {
	schemas, err := h.reportService.SchemaStats(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, schemas)
}

// ListRuns handles GET /api/v1/runs
// @Summary Recent processing runs
// @Tags runs
// @Produce json
// @Param limit query int false "Number of runs (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.ProcessingRun} "Runs, newest first"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /runs [get]
func (h *StatsHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.reportService.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, runs)
}

// CoverageWorkbook handles GET /api/v1/reports/coverage.xlsx
// @Summary Download the coverage workbook
// @Tags stats
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "XLSX workbook"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /reports/coverage.xlsx [get]
func (h *StatsHandler) CoverageWorkbook(c *gin.Context) {
	rep, err := h.reportService.Report(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsxexport.Write(&buf, rep); err != nil {
		HandleError(c, h.logger, err)
		return
	}

	filename := csvexport.BuildFilename("coverage", "xlsx", time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
