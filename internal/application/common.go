package application

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

var errNoNotifier = errors.New("no reset code notifier configured")

var nopLogger = helpers.NewNopLogger()

func loggerOrNop(l *logrus.Logger) logrus.FieldLogger {
	if l == nil {
		return nopLogger
	}
	return l
}

// Upload is one incoming file of a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// deleteBlobs removes refs best-effort. Failures are logged and never returned.
func deleteBlobs(ctx context.Context, media repo.MediaStore, log logrus.FieldLogger, refs ...string) {
	if media == nil {
		return
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := media.Delete(ctx, ref); err != nil {
			log.WithError(err).WithField("ref", ref).Warn("blob delete failed")
		}
	}
}

var errNoMediaStore = errors.New("no media store configured")
