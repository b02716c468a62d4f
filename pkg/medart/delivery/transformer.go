// Package delivery builds image proxy URLs for stored objects.
//
// In signed mode every URL has the form
//
//	{proxyBase}/{signature}/{options...}/plain/{base64url(publicEndpoint/key)}
//
// where the signature covers the whole path after it. Without complete proxy
// configuration the Transformer serves the original object from the public
// storage endpoint. BuildURL never fails.
package delivery

import (
	"encoding/base64"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/imgsign"
)

// DefaultPlaceholder is returned for empty object keys
const DefaultPlaceholder = medart.DefaultPlaceholder

// URL modes reported to the Observer
const (
	ModeSigned      = "signed"
	ModeUnsigned    = "unsigned"
	ModePlaceholder = "placeholder"
)

// Config holds image proxy settings. Key and Salt are hex encoded.
type Config struct {
	ProxyURL       string
	Key            string
	Salt           string
	PublicEndpoint string
	Placeholder    string
}

// Observer receives one call per built URL
type Observer interface {
	RecordDeliveryURL(mode string)
}

type noopObserver struct{}

func (noopObserver) RecordDeliveryURL(string) {}

// Option configures a Transformer
type Option func(*Transformer)

// WithObserver sets the metrics observer
func WithObserver(o Observer) Option {
	return func(t *Transformer) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithLogger sets the logger used for configuration warnings
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// Transformer implements medart.URLBuilder
type Transformer struct {
	proxyURL       string
	publicEndpoint string
	placeholder    string
	signer         *imgsign.Signer
	signed         bool
	observer       Observer
	logger         *slog.Logger
}

var _ medart.URLBuilder = (*Transformer)(nil)

// New creates a Transformer. Incomplete or undecodable proxy settings select
// unsigned mode and are logged once here.
func New(cfg Config, opts ...Option) *Transformer {
	t := &Transformer{
		proxyURL:       strings.TrimSuffix(strings.TrimSpace(cfg.ProxyURL), "/"),
		publicEndpoint: strings.TrimSuffix(strings.TrimSpace(cfg.PublicEndpoint), "/"),
		placeholder:    cfg.Placeholder,
		observer:       noopObserver{},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.placeholder == "" {
		t.placeholder = DefaultPlaceholder
	}

	if t.proxyURL == "" || cfg.Key == "" || cfg.Salt == "" || t.publicEndpoint == "" {
		t.logger.Info("Image proxy not fully configured, serving originals",
			"proxy_url_set", t.proxyURL != "", "public_endpoint_set", t.publicEndpoint != "")
		return t
	}

	t.signer = imgsign.New(imgsign.WithHexKey(cfg.Key), imgsign.WithHexSalt(cfg.Salt))
	if err := t.signer.Err(); err != nil {
		t.logger.Warn("Invalid image proxy credentials, serving originals", "error", err)
		return t
	}
	t.signed = t.signer.IsEnabled()
	return t
}

// Signed reports whether URLs go through the image proxy
func (t *Transformer) Signed() bool {
	return t.signed
}

// BuildURL returns the delivery URL for key
func (t *Transformer) BuildURL(key string, spec medart.TransformSpec) string {
	url, mode := t.build(key, spec)
	t.observer.RecordDeliveryURL(mode)
	return url
}

func (t *Transformer) build(key string, spec medart.TransformSpec) (string, string) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return t.placeholder, ModePlaceholder
	}
	if !t.signed {
		return t.publicEndpoint + "/" + key, ModeUnsigned
	}

	path := SignedPath(t.publicEndpoint+"/"+key, spec)
	signature, err := t.signer.SignPath(path)
	if err != nil {
		t.logger.Warn("Failed to sign delivery path, serving original", "key", key, "error", err)
		return t.publicEndpoint + "/" + key, ModeUnsigned
	}
	return t.proxyURL + "/" + signature + path, ModeSigned
}

// SignedPath renders the path the proxy signature covers
func SignedPath(sourceURL string, spec medart.TransformSpec) string {
	var b strings.Builder
	for _, opt := range ProcessingOptions(spec) {
		b.WriteString("/")
		b.WriteString(opt)
	}
	b.WriteString("/plain/")
	b.WriteString(base64.RawURLEncoding.EncodeToString([]byte(sourceURL)))
	return b.String()
}

// ProcessingOptions returns the proxy options for spec in wire order.
// Non-positive dimensions and out of range qualities are omitted.
func ProcessingOptions(spec medart.TransformSpec) []string {
	var opts []string

	switch {
	case spec.Width > 0 && spec.Height > 0:
		opts = append(opts, "rs:fit:"+strconv.Itoa(spec.Width)+":"+strconv.Itoa(spec.Height))
	case spec.Width > 0:
		opts = append(opts, "w:"+strconv.Itoa(spec.Width))
	case spec.Height > 0:
		opts = append(opts, "h:"+strconv.Itoa(spec.Height))
	}

	if spec.Quality > 0 && spec.Quality <= 100 {
		opts = append(opts, "q:"+strconv.Itoa(spec.Quality))
	}

	if format := normalizeFormat(spec.Format); format != "" {
		opts = append(opts, "f:"+format)
	}

	return opts
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	for _, r := range format {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return format
}
