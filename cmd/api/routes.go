package main

import (
	"database/sql"
	"net/http"
	"time"

	"feedback-call-platform/internal/httpapi"
	"feedback-call-platform/internal/metrics"
	"feedback-call-platform/internal/rbac"
	"feedback-call-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("/upload", rbac.RequireAnyRole(rbac.RoleOperator), h.UploadCampaign)
			campaigns.GET("", h.ListCampaigns)
			campaigns.GET("/template", h.DownloadTemplate)
		}

		callsGroup := v1.Group("/calls")
		{
			callsGroup.POST("", rbac.RequireAnyRole(rbac.RoleOperator), h.CreateCall)
			callsGroup.POST("/:call_id/initiate", rbac.RequireAnyRole(rbac.RoleOperator), h.InitiateCall)
			callsGroup.POST("/:call_id/reset", rbac.RequireAnyRole(rbac.RoleOperator), h.ResetCall)
			callsGroup.GET("", h.ListCalls)
			callsGroup.POST("/refresh", h.RefreshCalls)
		}

		v1.GET("/notifications", h.ListNotifications)

		scheduleGroup := v1.Group("/schedule")
		{
			scheduleGroup.GET("", h.GetSchedule)
			scheduleGroup.PUT("", rbac.RequireAnyRole(rbac.RoleOperator), h.PutSchedule)
		}
	}
}
