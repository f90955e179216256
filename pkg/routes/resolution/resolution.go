package resolution

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/resolutionrun"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Runner executes a resolution run
type Runner interface {
	Process(ctx context.Context, a, b []models.RawRecord) (*resolution.Result, *models.Run, error)
}

// RunReader reads stored runs
type RunReader interface {
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	ListResolved(ctx context.Context, runID string, filter resolutionrun.ResolvedFilter) ([]models.ResolvedRecord, error)
	ListAudit(ctx context.Context, runID string, filter resolutionrun.AuditFilter) ([]models.AuditEntry, error)
}

// Handler serves the resolution API
type Handler struct {
	runner     Runner
	reader     RunReader
	logger     ectologger.Logger
	maxRecords int
}

// NewHandler creates a resolution handler. reader may be nil when run storage is disabled;
// maxRecords <= 0 means no per-dataset limit.
func NewHandler(runner Runner, reader RunReader, logger ectologger.Logger, maxRecords int) *Handler {
	return &Handler{
		runner:     runner,
		reader:     reader,
		logger:     logger,
		maxRecords: maxRecords,
	}
}

// Register registers resolution routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.CreateResolution)
	if h.reader == nil {
		return
	}
	g.GET("/:id", h.GetResolution)
	g.GET("/:id/records", h.ListRecords)
	g.GET("/:id/audit", h.ListAudit)
}

// CreateRequest carries the two datasets to resolve
type CreateRequest struct {
	DatasetA []models.RawRecord `json:"dataset_a" validate:"required"`
	DatasetB []models.RawRecord `json:"dataset_b" validate:"required"`
}

// SkippedRecord describes an input record left out of the run
type SkippedRecord struct {
	Source   string `json:"source"`
	RecordID string `json:"record_id,omitempty"`
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// Warning describes a field value replaced by the missing sentinel
type Warning struct {
	Source   string `json:"source"`
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
}

// CreateResponse is the result of a synchronous run
type CreateResponse struct {
	Run      *models.Run             `json:"run"`
	Skipped  []SkippedRecord         `json:"skipped"`
	Warnings []Warning               `json:"warnings"`
	Resolved []models.ResolvedRecord `json:"resolved"`
}

// CreateResolution resolves the posted datasets
func (h *Handler) CreateResolution(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "resolution_handler.Create")
	defer span.End()

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if h.maxRecords > 0 && max(len(req.DatasetA), len(req.DatasetB)) > h.maxRecords {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("each dataset is limited to %d records", h.maxRecords))
	}
	for i := range req.DatasetA {
		req.DatasetA[i].Line = i + 1
	}
	for i := range req.DatasetB {
		req.DatasetB[i].Line = i + 1
	}

	result, run, err := h.runner.Process(ctx, req.DatasetA, req.DatasetB)
	if err != nil {
		return err
	}

	resp := CreateResponse{
		Run:      run,
		Skipped:  make([]SkippedRecord, 0, len(result.Skipped)),
		Warnings: make([]Warning, 0, len(result.Warnings)),
		Resolved: result.Resolved,
	}
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedRecord{Source: s.Source, RecordID: s.RecordID, Position: s.Line, Reason: s.Reason})
	}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, Warning{Source: w.Source, RecordID: w.RecordID, Field: w.Field, Value: w.Value, Reason: w.Reason})
	}
	if resp.Resolved == nil {
		resp.Resolved = []models.ResolvedRecord{}
	}

	h.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":  run.ID,
		"matched": run.Matched,
	}).Info("Created resolution run")

	return c.JSON(http.StatusCreated, resp)
}

// GetResolution returns a stored run
func (h *Handler) GetResolution(c echo.Context) error {
	run, err := h.reader.GetRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

// ListRecords lists a run's resolved records, optionally filtered by match status
func (h *Handler) ListRecords(c echo.Context) error {
	limit, offset, err := paging(c)
	if err != nil {
		return err
	}

	filter := resolutionrun.ResolvedFilter{Limit: limit, Offset: offset}
	if status := c.QueryParam("status"); status != "" {
		switch s := models.MatchStatus(status); s {
		case models.StatusMatched, models.StatusUnmatchedA, models.StatusUnmatchedB:
			filter.Status = s
		default:
			return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown match status %q", status))
		}
	}

	records, err := h.reader.ListResolved(c.Request().Context(), c.Param("id"), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

// ListAudit lists a run's audit entries, optionally for one dataset A record
func (h *Handler) ListAudit(c echo.Context) error {
	limit, offset, err := paging(c)
	if err != nil {
		return err
	}

	entries, err := h.reader.ListAudit(c.Request().Context(), c.Param("id"), resolutionrun.AuditFilter{
		RecordAID: c.QueryParam("source_a_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func paging(c echo.Context) (limit, offset int, err error) {
	parse := func(name string) (int, error) {
		raw := c.QueryParam(name)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a non-negative integer", name))
		}
		return n, nil
	}
	if limit, err = parse("limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = parse("offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
