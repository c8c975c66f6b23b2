package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Logo bounds in pixels
const (
	logoMaxWidth  = 320
	logoMaxHeight = 160
)

// LogoLoader fetches company logos from disk or a URL and normalises them to PNG
type LogoLoader struct {
	dir    string
	http   *resty.Client
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]byte
}

// NewLogoLoader creates a loader; relative refs are resolved under dir
func NewLogoLoader(dir string, logger *zap.Logger) *LogoLoader {
	return &LogoLoader{
		dir:    dir,
		http:   resty.New().SetLogger(logger.Sugar()),
		logger: logger,
		cache:  make(map[string][]byte),
	}
}

// Load returns the logo as PNG scaled to fit the header. An empty ref yields nil.
func (l *LogoLoader) Load(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}

	l.mu.Lock()
	cached, ok := l.cache[ref]
	l.mu.Unlock()
	if ok {
		return cached, nil
	}

	raw, err := l.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > logoMaxWidth || b.Dy() > logoMaxHeight {
		img = imaging.Fit(img, logoMaxWidth, logoMaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}

	out := buf.Bytes()
	l.mu.Lock()
	l.cache[ref] = out
	l.mu.Unlock()

	l.logger.Debug("Loaded company logo",
		zap.String("ref", ref),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return out, nil
}

func (l *LogoLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		resp, err := l.http.R().SetContext(ctx).Get(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to download logo: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("failed to download logo: status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	return raw, nil
}
