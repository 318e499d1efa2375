package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"jilai-deployer/internal/models"
	"jilai-deployer/internal/store"
	"jilai-deployer/services"

	"github.com/gin-gonic/gin"
)

type RunController struct {
	server *services.Server
}

func NewRunController(server *services.Server) *RunController {
	return &RunController{
		server: server,
	}
}

/**
 * Register deployment run routes
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - Registers routes for:
 *   - Run history (list/get)
 *   - Plan preview of the configured modules
 * @example
 * controller := NewRunController(server)
 * controller.RegisterRoutes(router)
 */
func (rc *RunController) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/deployer/api/v1")
	api.GET("/runs", rc.ListRuns)
	api.GET("/runs/:id", rc.GetRun)
	api.GET("/plan", rc.GetPlan)
}

// ListRuns lists recorded deployment runs, newest first
//
//	@Summary		List runs
//	@Description	Get recorded deployment runs with the modules each one created
//	@Tags			Runs
//	@Produce		json
//	@Param			limit	query		int						false	"Maximum number of runs"
//	@Success		200		{array}		models.Run				"Deployment runs"
//	@Failure		400		{object}	models.ErrorResponse	"Invalid limit"
//	@Failure		500		{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/deployer/api/v1/runs [get]
func (rc *RunController) ListRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, &models.ErrorResponse{
				Code:  "runs.invalid_limit",
				Error: fmt.Sprintf("invalid limit %q", v),
			})
			return
		}
		limit = n
	}
	runs, err := rc.server.Runs().ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	if runs == nil {
		runs = []models.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun returns one deployment run
//
//	@Summary		Get run
//	@Tags			Runs
//	@Produce		json
//	@Param			id	path		string					true	"Run ID"
//	@Success		200	{object}	models.Run				"Deployment run"
//	@Failure		404	{object}	models.ErrorResponse	"Run not found error response"
//	@Failure		500	{object}	models.ErrorResponse	"Internal server error response"
//	@Router			/deployer/api/v1/runs/{id} [get]
func (rc *RunController) GetRun(c *gin.Context) {
	id := c.Param("id")
	run, err := rc.server.Runs().GetRun(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, &models.ErrorResponse{
			Code:  "run.notexist",
			Error: fmt.Sprintf("run [%s] isn't exist", id),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetPlan resolves the configured modules into deployment order
//
//	@Summary		Preview plan
//	@Description	Validate the configured modules and return them in creation order
//	@Tags			Runs
//	@Produce		json
//	@Success		200	{object}	models.DeploymentPlan	"Resolved plan"
//	@Failure		422	{object}	models.ErrorResponse	"Invalid module configuration"
//	@Router			/deployer/api/v1/plan [get]
func (rc *RunController) GetPlan(c *gin.Context) {
	plan, err := rc.server.Plan()
	if err != nil {
		code := "plan.failed"
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrConfiguration) {
			code = "plan.invalid"
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, &models.ErrorResponse{
			Code:  code,
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, plan)
}
