package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/vetting-cli/internal/config"
	"github.com/sells-group/vetting-cli/internal/docext"
	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
)

// DirectStrategy fetches a URL over plain HTTP with a browser-like identity,
// sniffs the payload format, and routes PDFs through document extraction and
// markup through visible-text stripping.
type DirectStrategy struct {
	client       *http.Client
	limiter      *rate.Limiter
	extractor    docext.Extractor
	userAgent    string
	maxBodyBytes int64
}

// NewDirectStrategy creates the first link of the fetch chain.
func NewDirectStrategy(cfg config.FetchConfig, extractor docext.Extractor) *DirectStrategy {
	timeout := time.Duration(cfg.DirectTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 8 * 1024 * 1024
	}
	return &DirectStrategy{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		extractor:    extractor,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
	}
}

func (d *DirectStrategy) Name() string { return "direct" }

func (d *DirectStrategy) Supports(_ string) bool { return true }

// Fetch retrieves the URL and routes the payload by its actual format. The
// declared Content-Type is advisory only; magic bytes win.
func (d *DirectStrategy) Fetch(ctx context.Context, targetURL string) (*model.FetchResult, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "direct: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "direct: create request")
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "direct: fetch %s", targetURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "direct: read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if blocked, kind := DetectBlock(resp, body); blocked {
			return nil, eris.Errorf("direct: blocked (%s) with HTTP %d", kind, resp.StatusCode)
		}
		return nil, eris.Errorf("direct: HTTP %d for %s", resp.StatusCode, targetURL)
	}

	declared := resp.Header.Get("Content-Type")
	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if docext.IsPDF(body) || strings.Contains(declared, "application/pdf") {
		if !docext.IsPDF(body) {
			// Declared PDF but the bytes disagree. Trust the bytes.
			zap.L().Debug("direct: content-type says pdf, magic bytes disagree",
				zap.String("url", targetURL),
			)
			return d.markupResult(body, len(body), finalURL)
		}
		return d.pdfResult(ctx, body, finalURL)
	}

	return d.markupResult(body, len(body), finalURL)
}

func (d *DirectStrategy) pdfResult(ctx context.Context, body []byte, finalURL string) (*model.FetchResult, error) {
	text, err := d.extractor.ExtractText(ctx, body)
	if err != nil {
		// Extraction failure falls back to treating the bytes as text so a
		// mostly-textual PDF still yields something.
		zap.L().Warn("direct: pdf extraction failed, using raw bytes",
			zap.String("url", finalURL),
			zap.Error(resilience.NewError(resilience.ClassFormat, "fetch/direct", err)),
		)
		text = string(body)
	}
	return &model.FetchResult{
		Content:       text,
		Strategy:      model.StrategyPDF,
		OriginalBytes: len(body),
		FinalURL:      finalURL,
	}, nil
}

func (d *DirectStrategy) markupResult(body []byte, originalBytes int, finalURL string) (*model.FetchResult, error) {
	text := VisibleText(string(body))
	return &model.FetchResult{
		Content:       text,
		Strategy:      model.StrategyDirect,
		OriginalBytes: originalBytes,
		FinalURL:      finalURL,
	}, nil
}
