package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
)

// conventionalPaths are probed for the path-pattern recovery action when the
// validator did not name specific candidates. Whitepapers and docs are the
// usual targets of a failed root fetch.
var conventionalPaths = []string{
	"/whitepaper.pdf",
	"/whitepaper",
	"/docs/whitepaper.pdf",
	"/assets/whitepaper.pdf",
	"/litepaper.pdf",
	"/docs",
	"/about",
}

// probePaths tries a small set of paths under the original host, keeping the
// longest usable result. Validator-supplied patterns are sanitized to bare
// paths so model output cannot steer the probe off-host.
func (c *Chain) probePaths(ctx context.Context, originalURL string, patterns []string) (*model.FetchResult, error) {
	base, err := url.Parse(originalURL)
	if err != nil || base.Host == "" {
		return nil, eris.Wrapf(err, "fetch: parse base url %s", originalURL)
	}

	paths := sanitizePaths(patterns)
	if len(paths) == 0 {
		paths = conventionalPaths
	}

	var best *model.FetchResult
	for _, p := range paths {
		candidate := *base
		candidate.Path = p
		candidate.RawQuery = ""
		candidateURL := candidate.String()

		result, err := c.Fetch(ctx, candidateURL)
		if err != nil {
			zap.L().Debug("fetch: path probe failed",
				zap.String("url", candidateURL),
				zap.Error(err),
			)
			continue
		}
		result.Strategy = model.StrategyPattern
		result.FinalURL = candidateURL
		if best == nil || len(result.Content) > len(best.Content) {
			best = result
		}
	}

	if best == nil {
		return nil, eris.Errorf("fetch: no conventional path yielded content for %s", originalURL)
	}
	return best, nil
}

// sanitizePaths keeps only plain absolute paths. Anything with a scheme,
// host, or traversal is dropped.
func sanitizePaths(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || !strings.HasPrefix(p, "/") {
			continue
		}
		if strings.Contains(p, "..") || strings.Contains(p, "://") || strings.HasPrefix(p, "//") {
			continue
		}
		out = append(out, p)
	}
	return out
}
