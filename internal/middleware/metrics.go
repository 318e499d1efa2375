package middleware

import (
	"time"

	"jilai-deployer/services"

	"github.com/gin-gonic/gin"
)

/**
 * HTTP请求统计中间件
 * @description
 * - 按路由模板统计请求数量和耗时
 * - 状态码 >= 400 计为错误请求
 * - 计数同时供 /healthz 使用
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		services.IncrementRequestCount(path)
		services.RecordRequestDuration(path, time.Since(start).Seconds())
		if c.Writer.Status() >= 400 {
			services.IncrementErrorCount(path)
		}
	}
}
