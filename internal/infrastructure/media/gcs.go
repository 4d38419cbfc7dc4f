package media

import (
	"context"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

// GCSStore keeps blobs in a Google Cloud Storage bucket; references are public object URLs.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Put(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, objectName(folder, filename, time.Now()), contentType, r)
}

func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	obj, ok := helpers.ObjectPathFromURL(s.bucket, ref)
	if !ok {
		return nil
	}
	return helpers.DeleteObject(ctx, s.client, s.bucket, obj)
}

var _ repository.MediaStore = (*GCSStore)(nil)
