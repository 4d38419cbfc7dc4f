package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// testClock is a settable clock shared by services under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// fakeMedia records puts and deletes; failDelete makes every Delete fail.
type fakeMedia struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	deleted    []string
	seq        int
	failPut    bool
	failDelete bool
}

func newFakeMedia() *fakeMedia { return &fakeMedia{blobs: map[string][]byte{}} }

func (m *fakeMedia) Put(_ context.Context, folder, filename, _ string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	ref := "/uploads/" + folder + "/" + strconv.Itoa(m.seq) + "-" + filename
	m.blobs[ref] = b
	return ref, nil
}

func (m *fakeMedia) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errors.New("permission denied")
	}
	m.deleted = append(m.deleted, ref)
	delete(m.blobs, ref)
	return nil
}

func (m *fakeMedia) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[ref]
	return ok
}

func (m *fakeMedia) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	txtBytes = []byte("just some text, not media")
)

func pngUpload(name string) Upload {
	return Upload{Filename: name, ContentType: "image/png", Body: bytes.NewReader(pngBytes)}
}
