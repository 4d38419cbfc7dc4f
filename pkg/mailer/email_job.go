package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oksasatya/storyverse-api/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (rendered with Data by the worker) or Subject plus Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "reset_otp"
	Data     map[string]any `json:"data,omitempty"`
}

var ErrInvalidJob = errors.New("invalid email job")

// Build returns the subject and bodies to send for j.
func (j EmailJob) Build() (subject, text, html string, err error) {
	if j.To == "" {
		return "", "", "", ErrInvalidJob
	}
	if j.Template != "" {
		return templates.Render(j.Template, j.Data)
	}
	if j.Subject == "" || (j.Text == "" && j.HTML == "") {
		return "", "", "", ErrInvalidJob
	}
	return j.Subject, j.Text, j.HTML, nil
}

// FillLocation resolves Data["IP"] into Data["Location"] when the location is
// missing. Lookup failures leave the job untouched.
func (j *EmailJob) FillLocation(ctx context.Context, geo templates.GeoResolver) {
	if geo == nil || j.Data == nil {
		return
	}
	if loc, ok := j.Data["Location"]; ok && fmt.Sprint(loc) != "" {
		return
	}
	ip, ok := j.Data["IP"].(string)
	if !ok || ip == "" {
		return
	}
	if g, err := geo.Lookup(ctx, ip); err == nil {
		if loc := templates.FormatGeo(g); loc != "" {
			j.Data["Location"] = loc
		}
	}
}
