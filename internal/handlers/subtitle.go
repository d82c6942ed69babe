package handlers

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"downsub/internal/config"
	"downsub/internal/tasks"

	"github.com/labstack/echo/v4"
)

// SubtitleHandler serves subtitle extraction requests
type SubtitleHandler struct {
	svc          *tasks.Service
	resultOption string
}

// NewSubtitleHandler creates a SubtitleHandler. resultOption is config.ResultJSON or config.ResultFile.
func NewSubtitleHandler(svc *tasks.Service, resultOption string) *SubtitleHandler {
	return &SubtitleHandler{svc: svc, resultOption: resultOption}
}

// submitRequest requires the url key; its value is passed on unchecked
type submitRequest struct {
	URL     *string `json:"url"`
	SubLang string  `json:"sub_lang"`
}

// Submit queues a video for subtitle extraction
// POST /downsub
func (h *SubtitleHandler) Submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "invalid request body"})
	}
	if req.URL == nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "url is required"})
	}

	sub, err := h.svc.Submit(c.Request().Context(), *req.URL, strings.TrimSpace(req.SubLang))
	if errors.Is(err, tasks.ErrQueueFull) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"task_id": sub.TaskID,
		"status":  sub.Status,
		"message": "Video processing started: " + *req.URL,
	})
}

// Result returns the subtitle text of a task, or its processing state
// GET /downsub/result/:task_id
func (h *SubtitleHandler) Result(c echo.Context) error {
	taskID := c.Param("task_id")

	res, err := h.svc.Poll(c.Request().Context(), taskID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	switch res.Status {
	case tasks.StatusCompleted:
		if h.resultOption == config.ResultFile {
			// served from the content Poll already read; the file may be swept meanwhile
			c.Response().Header().Set(echo.HeaderContentDisposition,
				mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
			return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(res.Content))
		}
		return c.JSON(http.StatusOK, map[string]string{
			"task_id":  res.TaskID,
			"filename": res.Filename,
			"content":  res.Content,
		})
	case tasks.StatusFailed:
		return c.JSON(http.StatusOK, map[string]string{
			"task_id":    res.TaskID,
			"status":     res.Status,
			"error_code": res.ErrorCode,
			"error":      res.Error,
		})
	case tasks.StatusMissing:
		if h.resultOption == config.ResultFile {
			return c.JSON(http.StatusNotFound, map[string]string{"status": tasks.StatusMissing})
		}
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": tasks.StatusProcessing})
}
