// internal/handlers/analyze.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync/atomic"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"aat-go/internal/analysis"
	"aat-go/internal/repository"
	"aat-go/internal/summary"
	"aat-go/views"
)

const uploadField = "files"

// CSPNonceKey names the per-session nonce. The router stores it in the
// session and on the Gin context; pages read it for their inline scripts.
const CSPNonceKey = "csp_nonce"

var errNoFiles = errors.New("no files uploaded")

// AnalyzeHandler serves the upload form, runs uploaded logs through the
// analyzer and optionally stores the runs.
type AnalyzeHandler struct {
	log         *zap.Logger
	analyzer    *analysis.Analyzer
	maxUpload   atomic.Int64
	persistRuns bool
}

func NewAnalyzeHandler(log *zap.Logger, analyzer *analysis.Analyzer, maxUploadMB int, persistRuns bool) *AnalyzeHandler {
	h := &AnalyzeHandler{
		log:         log,
		analyzer:    analyzer,
		persistRuns: persistRuns,
	}
	h.SetMaxUploadMB(maxUploadMB)
	return h
}

// SetMaxUploadMB changes the request body limit for later uploads.
func (h *AnalyzeHandler) SetMaxUploadMB(mb int) {
	h.maxUpload.Store(int64(mb) << 20)
}

func (h *AnalyzeHandler) ShowUploadPage(c *gin.Context) {
	render(c, "Approach Distances and Speed Analysis", views.Upload())
}

// Analyze handles the form post and renders the report page.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	batch, status, err := h.runUploads(c)
	if err != nil {
		c.String(status, err.Error())
		return
	}

	report := views.Report{
		Batch:         batch,
		Files:         make([]views.FileReport, 0, len(batch.Files)),
		ApproachChart: chartOptions(approachBoxPlot(batch.ApproachSummary)),
		SpeedChart:    chartOptions(speedBar(batch.SpeedSummary)),
	}
	for _, f := range batch.Files {
		report.Files = append(report.Files, views.FileReport{
			Result:          f,
			ApproachSummary: summary.DescribeApproach(f.Approach),
			SpeedSummary:    summary.DescribeSpeed(f.Speed),
		})
	}
	if h.store(c, batch) {
		report.StoredRunURL = "/api/runs/" + batch.RunID
	}

	nonce := c.GetString(CSPNonceKey)
	render(c, "Analysis Results", views.Results(report, nonce))
}

// AnalyzeAPI is the JSON variant of Analyze.
func (h *AnalyzeHandler) AnalyzeAPI(c *gin.Context) {
	batch, status, err := h.runUploads(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	stored := h.store(c, batch)
	c.JSON(http.StatusOK, gin.H{
		"result": batch,
		"stored": stored,
	})
}

// GetRun returns a stored run with database-side aggregates.
func (h *AnalyzeHandler) GetRun(c *gin.Context) {
	if !h.persistRuns {
		c.JSON(http.StatusNotFound, gin.H{"error": "run storage is disabled"})
		return
	}
	id := c.Param("id")
	run, err := repository.GetRun(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to load run", zap.Error(err), zap.String("run", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	approach, speed, err := repository.GetRunAggregates(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to aggregate run", zap.Error(err), zap.String("run", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate run"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":      run,
		"approach": approach,
		"speed":    speed,
	})
}

func (h *AnalyzeHandler) runUploads(c *gin.Context) (*analysis.BatchResult, int, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload.Load())
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		h.log.Warn("Failed to parse upload", zap.Error(err))
		return nil, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err)
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		return nil, http.StatusBadRequest, errNoFiles
	}

	uploads := make([]analysis.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			h.log.Error("Failed to read uploaded file", zap.Error(err), zap.String("file", fh.Filename))
			return nil, http.StatusBadRequest, fmt.Errorf("could not read %s", fh.Filename)
		}
		uploads = append(uploads, analysis.Upload{Name: fh.Filename, Data: data})
	}

	return h.analyzer.ProcessBatch(c.Request.Context(), uploads), http.StatusOK, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// store saves the run when persistence is on. A storage failure is logged,
// the analysis is still returned.
func (h *AnalyzeHandler) store(c *gin.Context, batch *analysis.BatchResult) bool {
	if !h.persistRuns {
		return false
	}
	if err := repository.SaveRun(c.Request.Context(), repository.NewRun(batch)); err != nil {
		h.log.Error("Failed to store run", zap.Error(err), zap.String("run", batch.RunID))
		return false
	}
	return true
}

func render(c *gin.Context, title string, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if c.GetHeader("HX-Request") == "true" {
		component.Render(c.Request.Context(), c.Writer)
		return
	}
	views.Layout(title, c.GetString(CSPNonceKey)).Render(
		templ.WithChildren(c.Request.Context(), component),
		c.Writer,
	)
}
