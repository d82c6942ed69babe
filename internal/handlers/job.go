package handlers

import (
	"net/http"
	"os"
	"strconv"

	"downsub/internal/models"
	"downsub/internal/storage"
	"downsub/internal/views"

	"github.com/labstack/echo/v4"
)

// JobHandler はジョブAPIのハンドラー
type JobHandler struct {
	repo *storage.JobRepository
}

// NewJobHandler は新しいJobHandlerを作成
func NewJobHandler(repo *storage.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

// List はジョブ一覧を取得
func (h *JobHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	status := c.QueryParam("status")

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var jobs []models.Job
	var err error

	if status != "" {
		jobs, err = h.repo.ListByStatus(ctx, status, limit)
	} else {
		jobs, err = h.repo.ListRecent(ctx, limit)
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, jobs)
}

// Get はジョブを取得
func (h *JobHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	return c.JSON(http.StatusOK, job)
}

// Stats はステータスごとのジョブ数を取得
func (h *JobHandler) Stats(c echo.Context) error {
	counts, err := h.repo.CountByStatus(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, counts)
}

// Delete はジョブと成果物ファイルを削除
func (h *JobHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	if !job.Finished() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "job is still processing"})
	}

	if job.ArtifactPath != "" {
		if err := os.Remove(job.ArtifactPath); err != nil && !os.IsNotExist(err) {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

// ListPage はジョブ一覧ページを表示
func (h *JobHandler) ListPage(c echo.Context) error {
	ctx := c.Request().Context()
	jobs, err := h.repo.ListRecent(ctx, 50)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return render(c, views.JobList(jobs))
}
