package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public read endpoints and probes on r.
func RegisterRoutes(r gin.IRouter, grades *GradeHandler, metrics *MetricsHandler) {
	r.GET("/health", metrics.Health)
	r.GET("/ready", metrics.Ready)
	r.GET("/metrics", metrics.Prometheus)

	r.GET("/learner/:id/avg-class", grades.ClassAverages)
	r.GET("/stats", grades.Stats)
	r.GET("/stats/:classId", grades.ClassStats)
}
