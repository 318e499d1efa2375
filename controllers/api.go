package controllers

import (
	"net/http"

	"jilai-deployer/internal/config"
	"jilai-deployer/internal/models"
	"jilai-deployer/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIController struct {
	server *services.Server
}

/**
 * Create new API controller instance
 * @param {*services.Server} server - Status server answering health checks
 * @returns {*APIController} New API controller instance
 * @example
 * server := services.NewServer(config.Current, repo)
 * controller := controllers.NewAPIController(server)
 */
func NewAPIController(server *services.Server) *APIController {
	return &APIController{
		server: server,
	}
}

/**
 * Register system routes to Gin engine
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - /healthz readiness probe
 * - /metrics Prometheus scrape endpoint
 * - /deployer/api/v1/reload configuration reload
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{})))
	r.POST("/deployer/api/v1/reload", a.ReloadConfig)
}

// @Summary 重新加载配置
// @Description 重新读取配置文件和环境变量，之后的 /plan 请求使用新的模块列表
// @Tags Config
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /deployer/api/v1/reload [post]
func (a *APIController) ReloadConfig(c *gin.Context) {
	if err := config.ReloadConfig(); err != nil {
		c.JSON(http.StatusInternalServerError, &models.ErrorResponse{
			Code:  "config.reload_failed",
			Error: "Failed to reload configuration: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Configuration reloaded successfully",
	})
}

// @Summary 业务就绪探针
// @Description 返回服务版本、启动时间、健康状态、目标网络和部署运行统计
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, a.server.GetHealthz(c.Request.Context()))
}
