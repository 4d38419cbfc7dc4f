package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
)

// formUpload opens the multipart file field name. ok is false when the field is absent;
// an unreadable multipart body is reported as a validation error.
// The returned close func must be called once the upload has been consumed.
func formUpload(c *gin.Context, name string) (application.Upload, func(), bool, error) {
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return application.Upload{}, func() {}, false, nil
	}
	if err != nil {
		return application.Upload{}, func() {}, false, errs.Validation("invalid multipart body")
	}
	f, err := fh.Open()
	if err != nil {
		return application.Upload{}, func() {}, false, err
	}
	return application.Upload{
		Filename:    fh.Filename,
		ContentType: contentType(fh),
		Body:        f,
	}, func() { _ = f.Close() }, true, nil
}

func contentType(fh *multipart.FileHeader) string {
	return fh.Header.Get("Content-Type")
}
