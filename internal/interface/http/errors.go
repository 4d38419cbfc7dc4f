package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/pkg/response"
	"github.com/oksasatya/storyverse-api/pkg/validation"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindConflict, errs.KindCapacity, errs.KindAuth:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its client-safe message. Dependency failures are
// logged with their cause and reported as "server error".
func writeError(c *gin.Context, log *logrus.Logger, err error) {
	status := statusFor(err)
	msg := errs.Message(err)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			}).Error("request failed")
		}
		msg = "server error"
	}
	response.Error[any](c, status, msg, nil)
}

func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "all fields required", validation.ToDetails(err))
}
