package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/storyverse-api/pkg/mailer/templates"
)

func TestEmailJob_Build(t *testing.T) {
	_, _, _, err := EmailJob{Subject: "x", Text: "y"}.Build()
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, _, _, err = EmailJob{To: "a@example.com", Subject: "x"}.Build()
	assert.ErrorIs(t, err, ErrInvalidJob)

	subject, text, html, err := EmailJob{To: "a@example.com", Subject: "hello", Text: "body"}.Build()
	require.NoError(t, err)
	assert.Equal(t, "hello", subject)
	assert.Equal(t, "body", text)
	assert.Empty(t, html)

	_, _, _, err = EmailJob{To: "a@example.com", Template: "missing"}.Build()
	assert.Error(t, err)
}

type staticGeo struct {
	geo   templates.Geo
	err   error
	calls int
}

func (g *staticGeo) Lookup(_ context.Context, _ string) (templates.Geo, error) {
	g.calls++
	return g.geo, g.err
}

func TestEmailJob_FillLocation(t *testing.T) {
	geo := &staticGeo{geo: templates.Geo{City: "Bandung", Country: "Indonesia"}}

	job := EmailJob{To: "a@example.com", Data: map[string]any{"IP": "203.0.113.9"}}
	job.FillLocation(context.Background(), geo)
	assert.Equal(t, "Bandung, Indonesia", job.Data["Location"])

	job.FillLocation(context.Background(), geo)
	assert.Equal(t, 1, geo.calls, "an existing location is kept")

	failing := &staticGeo{err: errors.New("timeout")}
	noLoc := EmailJob{To: "a@example.com", Data: map[string]any{"IP": "203.0.113.9"}}
	noLoc.FillLocation(context.Background(), failing)
	_, ok := noLoc.Data["Location"]
	assert.False(t, ok)

	noIP := EmailJob{To: "a@example.com", Data: map[string]any{}}
	noIP.FillLocation(context.Background(), geo)
	assert.Equal(t, 1, geo.calls)
}
