package templates

import (
	"context"
	"strings"
	"time"

	"github.com/oksasatya/storyverse-api/config"
)

const timeLayout = "02 January 2006, 15:04 MST"

type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		d.TimeAt = t.UTC()
		d.Time = d.TimeAt.Format(timeLayout)
	}
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		d.ExpiresAt = t.UTC()
		d.ExpiresAtText = d.ExpiresAt.Format(timeLayout)
	}
}

func WithLocation(loc string) Option {
	return func(d *EmailData) {
		if s := strings.TrimSpace(loc); s != "" {
			d.Location = s
		}
	}
}

// WithGeoFromIP resolves ip to a location. Lookup failures leave Location empty.
func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string) Option {
	return func(d *EmailData) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		if g, err := r.Lookup(ctx, ip); err == nil {
			WithLocation(FormatGeo(g))(d)
		}
	}
}

// NewBaseEmailData fills branding from cfg, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, nickname, email string, opts ...Option) EmailData {
	d := EmailData{
		Nickname:    nickname,
		Email:       email,
		Type:        typ,
		AppName:     cfg.AppName,
		CompanyName: cfg.CompanyName,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewResetOTPData(cfg *config.Config, nickname, email, code string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, ResetOTP, nickname, email, opts...)
	d.Code = code
	return ToMap(d)
}
