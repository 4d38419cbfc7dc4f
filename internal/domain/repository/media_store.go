package repository

import (
	"context"
	"io"
)

// MediaStore owns blob lifecycle. Put returns a stable reference for the
// stored bytes; Delete removes the blob behind a reference and treats an
// already-missing blob as success.
type MediaStore interface {
	Put(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}
