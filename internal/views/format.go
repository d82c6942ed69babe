// Package views renders the HTML pages of the service.
package views

import (
	"time"

	"downsub/internal/models"
)

// languageLabel shows the requested language and, when different, the track it resolved to
func languageLabel(job models.Job) string {
	if job.MatchedLanguage != "" && job.MatchedLanguage != job.Language {
		return job.Language + " → " + job.MatchedLanguage
	}
	return job.Language
}

func errorLabel(job models.Job) string {
	if job.Error != "" {
		return job.ErrorCode + ": " + job.Error
	}
	return job.ErrorCode
}

func createdLabel(job models.Job) string {
	if job.CreatedAt.IsZero() {
		return ""
	}
	return job.CreatedAt.Format(time.DateTime)
}
