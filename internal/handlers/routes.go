package handlers

import "github.com/labstack/echo/v4"

// Register mounts every route of the service on e
func Register(e *echo.Echo, subtitles *SubtitleHandler, jobs *JobHandler) {
	e.GET("/", Home)
	e.GET("/health", Health)

	e.POST("/downsub", subtitles.Submit)
	e.GET("/downsub/result/:task_id", subtitles.Result)

	api := e.Group("/api")
	api.GET("/jobs", jobs.List)
	api.GET("/jobs/stats", jobs.Stats)
	api.GET("/jobs/:id", jobs.Get)
	api.DELETE("/jobs/:id", jobs.Delete)

	e.GET("/jobs", jobs.ListPage)
}
