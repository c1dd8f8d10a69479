package api

import (
	"bytes"
	stderrors "errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"goqc/adapters/export"
	"goqc/domain/core"
	"goqc/domain/qc"
	"goqc/domain/trend"
	"goqc/internal/errors"
	"goqc/internal/evaluation"
	"goqc/internal/report"
	"goqc/internal/session"
	"goqc/internal/trending"
	"goqc/ports"
)

// Handler serves the QC evaluation and trending API
type Handler struct {
	store       *session.Store
	verdicts    ports.VerdictRepository
	evaluator   *evaluation.Evaluator
	trends      ports.TrendSource
	synthesizer *report.Synthesizer
}

// NewHandler creates an API handler. The verdict repository may be the
// session store itself or a database-backed repository layered over it.
func NewHandler(
	store *session.Store,
	verdicts ports.VerdictRepository,
	evaluator *evaluation.Evaluator,
	trends ports.TrendSource,
	synthesizer *report.Synthesizer,
) *Handler {
	return &Handler{
		store:       store,
		verdicts:    verdicts,
		evaluator:   evaluator,
		trends:      trends,
		synthesizer: synthesizer,
	}
}

// EvaluateRequest is the envelope for section evaluation. Exactly one
// payload field is read, selected by the section path parameter.
type EvaluateRequest struct {
	Protocol     string                          `json:"protocol"`
	Dose         *evaluation.DoseReadings        `json:"dose,omitempty"`
	Protocols    []evaluation.ProtocolEntry      `json:"protocols,omitempty"`
	Calibration  *evaluation.Calibration         `json:"calibration,omitempty"`
	Collimations []evaluation.CollimationReading `json:"collimations,omitempty"`
	CTNumbers    map[string]float64              `json:"ct_numbers,omitempty"`
	LowContrast  *evaluation.LowContrastInput    `json:"low_contrast,omitempty"`
	Uniformity   *evaluation.UniformityReadings  `json:"uniformity,omitempty"`
	Artifacts    map[string]qc.ArtifactSeverity  `json:"artifacts,omitempty"`
	Resolution   *evaluation.ResolutionInput     `json:"resolution,omitempty"`
}

// Evaluate runs one section evaluation and persists the verdict
func (h *Handler) Evaluate(c *gin.Context) {
	section := core.SectionID(c.Param("section"))

	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": errors.CodeInvalidInput})
		return
	}
	protocol := core.ProtocolID(req.Protocol)

	var verdict qc.Verdict
	var err error
	switch section {
	case evaluation.SectionDosimetry:
		if req.Dose == nil {
			err = core.NewIncompleteMeasurementError("dose readings")
		} else {
			verdict, err = h.evaluator.EvaluateDose(protocol, *req.Dose)
		}
	case evaluation.SectionProtocolReview:
		verdict, err = h.evaluator.EvaluateProtocolReview(req.Protocols)
	case evaluation.SectionBeamCollimation:
		if req.Calibration == nil {
			err = core.NewIncompleteMeasurementError("calibration readings")
		} else {
			verdict, err = h.evaluator.EvaluateBeamCollimation(*req.Calibration, req.Collimations)
		}
	case evaluation.SectionCTNumberAccuracy:
		verdict, err = h.evaluator.EvaluateCTNumbers(protocol, req.CTNumbers)
	case evaluation.SectionLowContrast:
		if req.LowContrast == nil {
			err = core.NewIncompleteMeasurementError("low contrast input")
		} else {
			verdict, err = h.evaluator.EvaluateLowContrast(protocol, *req.LowContrast)
		}
	case evaluation.SectionUniformity:
		if req.Uniformity == nil {
			err = core.NewIncompleteMeasurementError("uniformity readings")
		} else {
			verdict, err = h.evaluator.EvaluateUniformity(protocol, *req.Uniformity)
		}
	case evaluation.SectionArtifacts:
		verdict, err = h.evaluator.EvaluateArtifacts(protocol, req.Artifacts)
	case evaluation.SectionSpatialResolution:
		if req.Resolution == nil {
			err = core.NewIncompleteMeasurementError("resolution input")
		} else {
			verdict, err = h.evaluator.EvaluateSpatialResolution(protocol, *req.Resolution)
		}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown section: " + section.String(), "code": errors.CodeNotFound})
		return
	}

	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.verdicts.Save(c.Request.Context(), verdict); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist verdict", "code": errors.CodeDatabaseError})
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// ListVerdicts returns every stored verdict
func (h *Handler) ListVerdicts(c *gin.Context) {
	verdicts, err := h.verdicts.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdicts": verdicts})
}

// GetSectionVerdicts returns the verdicts for one section
func (h *Handler) GetSectionVerdicts(c *gin.Context) {
	section := core.SectionID(c.Param("section"))
	verdicts, err := h.verdicts.ListBySection(c.Request.Context(), section)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section, "verdicts": verdicts})
}

// GetTrend returns one parameter's series with its control summary
func (h *Handler) GetTrend(c *gin.Context) {
	parameter := core.ParameterID(c.Param("parameter"))
	series, err := h.trends.Series(c.Request.Context(), parameter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	summary, err := trending.Analyze(series)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series, "summary": summary})
}

// ListTrends returns control summaries for every tracked parameter.
// Parameters whose series fail analysis are reported under "skipped"
// rather than silently dropped.
func (h *Handler) ListTrends(c *gin.Context) {
	seriesList, err := h.collectSeries(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	summaries, errs := trending.AnalyzeAll(c.Request.Context(), seriesList)
	payload := gin.H{"summaries": summaries}
	if len(errs) > 0 {
		skipped := make([]string, len(errs))
		for i, e := range errs {
			skipped[i] = e.Error()
		}
		payload["skipped"] = skipped
	}
	c.JSON(http.StatusOK, payload)
}

// collectSeries gathers every tracked parameter's series. Parameters
// whose series cannot be fetched are skipped.
func (h *Handler) collectSeries(c *gin.Context) ([]trend.Series, error) {
	params, err := h.trends.Parameters(c.Request.Context())
	if err != nil {
		return nil, err
	}
	seriesList := make([]trend.Series, 0, len(params))
	for _, p := range params {
		s, err := h.trends.Series(c.Request.Context(), p)
		if err != nil {
			continue
		}
		seriesList = append(seriesList, s)
	}
	return seriesList, nil
}

// ExportData returns the full QC state as its structured mapping
func (h *Handler) ExportData(c *gin.Context) {
	data, err := h.store.Export()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed", "code": errors.CodeInternalError})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// ImportData replaces the QC state from an exported mapping. A malformed
// payload is rejected and the existing state is preserved.
func (h *Handler) ImportData(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body", "code": errors.CodeInvalidInput})
		return
	}
	if err := h.store.Import(data); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported"})
}

// ExportTrendWorkbook streams every tracked series as an xlsx workbook
func (h *Handler) ExportTrendWorkbook(c *gin.Context) {
	seriesList, err := h.collectSeries(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	summaries, errs := trending.AnalyzeAll(c.Request.Context(), seriesList)
	for _, e := range errs {
		log.Printf("[API] trend workbook: skipping series: %v", e)
	}
	// Only sheets with a computed summary carry meaningful limit columns
	exportable := make([]trend.Series, 0, len(seriesList))
	for _, s := range seriesList {
		if _, ok := summaries[s.Parameter]; ok {
			exportable = append(exportable, s)
		}
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, exportable, summaries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "workbook export failed", "code": errors.CodeInternalError})
		return
	}
	filename := "qc_trending_" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportTrendCSV streams one parameter's series as CSV
func (h *Handler) ExportTrendCSV(c *gin.Context) {
	parameter := core.ParameterID(c.Param("parameter"))
	series, err := h.trends.Series(c.Request.Context(), parameter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	summary, err := trending.Analyze(series)
	if err != nil {
		h.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, series, summary); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "csv export failed", "code": errors.CodeInternalError})
		return
	}
	filename := parameter.String() + "_" + time.Now().Format("20060102") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// GenerateReport renders the narrative compliance report
func (h *Handler) GenerateReport(c *gin.Context) {
	verdicts, err := h.verdicts.ListAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	params := report.Params{
		ReportType: c.DefaultQuery("type", "Annual QC Summary"),
		Period:     c.Query("period"),
		Date:       time.Now(),
		Physicist:  h.store.Facility().Physicist,
	}
	body, err := h.synthesizer.Render(params, h.store.Facility(), verdicts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed", "code": errors.CodeInternalError})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
}

// writeError maps domain errors onto HTTP statuses. Recoverable
// validation problems come back as client errors with the triggering
// field in the message; nothing here is fatal to the process.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case core.IsIncompleteMeasurement(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": errors.CodeIncompleteMeasurement})
	case core.IsCalibrationError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": errors.CodeCalibrationError})
	case core.IsUnknownCriterion(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": errors.CodeUnknownCriterion})
	case core.IsMalformedImport(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": errors.CodeMalformedImport})
	case stderrors.Is(err, core.ErrUnknownParameter), stderrors.Is(err, core.ErrVerdictNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": errors.CodeNotFound})
	case stderrors.Is(err, core.ErrSeriesEmpty):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": errors.CodeInvalidInput})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
	}
}
