package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-stock-predictor/internal/entity"
	"golang-stock-predictor/internal/scheduler/dto"
	"golang-stock-predictor/internal/scheduler/service"
	"golang-stock-predictor/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// RunHandler handles HTTP requests for pipeline runs.
type RunHandler struct {
	schedulerService service.SchedulerService
	runService       service.RunService
	logger           *logger.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(schedulerService service.SchedulerService, runService service.RunService, logger *logger.Logger) *RunHandler {
	return &RunHandler{schedulerService: schedulerService, runService: runService, logger: logger}
}

// RegisterRoutes registers the run routes to the Echo group.
func (h *RunHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.TriggerRun)
	g.GET("", h.GetAllRuns)
	g.GET("/:id", h.GetRunByID)
}

// TriggerRun godoc
// @Summary Trigger a pipeline run
// @Description Start a manual pipeline run unless one is already in progress
// @Tags runs
// @Produce  json
// @Success 202 {object} dto.TriggerRunResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs [post]
func (h *RunHandler) TriggerRun(c echo.Context) error {
	run, err := h.schedulerService.TriggerRun(c.Request().Context(), entity.TriggerManual)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) || errors.Is(err, service.ErrLockHeld) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to trigger run", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to trigger run"})
	}

	return c.JSON(http.StatusAccepted, dto.TriggerRunResponse{
		RunID:   run.ID,
		Status:  string(run.Status),
		Message: "pipeline run accepted",
	})
}

// GetRunByID godoc
// @Summary Get a run by ID
// @Description Get a single pipeline run by its ID
// @Tags runs
// @Produce  json
// @Param   id  path    int true    "Run ID"
// @Success 200 {object} dto.RunResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs/{id} [get]
func (h *RunHandler) GetRunByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid run ID"})
	}

	run, err := h.runService.GetRunByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Run not found"})
		}
		h.logger.Error("Failed to get run", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get run"})
	}

	return c.JSON(http.StatusOK, run)
}

// GetAllRuns godoc
// @Summary List pipeline runs
// @Description List pipeline runs, newest first
// @Tags runs
// @Produce  json
// @Param   limit  query    int false    "Maximum number of runs to return"
// @Success 200 {array} dto.RunResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs [get]
func (h *RunHandler) GetAllRuns(c echo.Context) error {
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
		limit = parsed
	}

	runs, err := h.runService.GetAllRuns(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list runs"})
	}

	return c.JSON(http.StatusOK, runs)
}
