// Package fetch implements resilient content acquisition: an ordered chain
// of strategies tried until one yields usable text, plus validator-proposed
// recovery dispatch when the whole chain comes up short.
package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/resilience"
)

// Strategy is one acquisition approach for a URL.
type Strategy interface {
	Fetch(ctx context.Context, url string) (*model.FetchResult, error)
	Name() string
	// Supports reports whether the strategy is currently usable for the URL.
	// A strategy behind an open circuit breaker reports false.
	Supports(url string) bool
}

// Chain tries strategies in priority order, returning the first result with
// enough usable text. Every failed attempt lands in the diagnostic trail so
// an exhaustion error tells the operator exactly what was tried.
type Chain struct {
	strategies     []Strategy
	minUsableChars int
}

// NewChain creates a Chain. Strategies are tried in order.
func NewChain(minUsableChars int, strategies ...Strategy) *Chain {
	if minUsableChars <= 0 {
		minUsableChars = 200
	}
	return &Chain{strategies: strategies, minUsableChars: minUsableChars}
}

// Usable reports whether content clears the visible-text floor.
func (c *Chain) Usable(content string) bool {
	return len(strings.TrimSpace(content)) >= c.minUsableChars
}

// Fetch runs the chain for a single URL. Returns a typed acquisition error
// carrying the accumulated trail when every strategy is exhausted.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*model.FetchResult, error) {
	var trail []string

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, resilience.NewError(resilience.ClassTimeout, "fetch/chain", err)
		}
		if !s.Supports(targetURL) {
			trail = append(trail, fmt.Sprintf("%s: skipped", s.Name()))
			continue
		}

		result, err := s.Fetch(ctx, targetURL)
		if err != nil {
			zap.L().Debug("fetch: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			trail = append(trail, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		if result == nil || !c.Usable(result.Content) {
			trail = append(trail, fmt.Sprintf("%s: content below usability floor", s.Name()))
			continue
		}

		zap.L().Info("fetch: content acquired",
			zap.String("strategy", s.Name()),
			zap.String("url", targetURL),
			zap.Int("chars", len(result.Content)),
		)
		return result, nil
	}

	return nil, resilience.NewError(resilience.ClassAcquisition, "fetch/chain",
		eris.Errorf("all strategies exhausted for %s: [%s]", targetURL, strings.Join(trail, "; ")))
}

// Recover dispatches validator-proposed recovery actions in order, keeping
// the longest usable result. Unknown action kinds are skipped, never acted
// on. Returns nil when no action produced usable content.
func (c *Chain) Recover(ctx context.Context, originalURL string, actions []model.RecoveryAction) *model.FetchResult {
	var best *model.FetchResult

	for _, action := range actions {
		kind, ok := model.ParseRecoveryKind(string(action.Kind))
		if !ok {
			zap.L().Warn("fetch: skipping unknown recovery action",
				zap.String("kind", string(action.Kind)),
			)
			continue
		}

		result, err := c.dispatch(ctx, originalURL, kind, action)
		if err != nil {
			zap.L().Debug("fetch: recovery action failed",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			continue
		}
		if result == nil || !c.Usable(result.Content) {
			continue
		}
		if best == nil || len(result.Content) > len(best.Content) {
			best = result
		}
	}

	return best
}

func (c *Chain) dispatch(ctx context.Context, originalURL string, kind model.RecoveryKind, action model.RecoveryAction) (*model.FetchResult, error) {
	switch kind {
	case model.RecoverHeadlessRender:
		r := c.findRenderer()
		if r == nil {
			return nil, eris.New("fetch: no render strategy configured")
		}
		return r.RenderWithSelector(ctx, originalURL, action.WaitForSelector)

	case model.RecoverAlternateURL:
		if action.AlternateURL == "" {
			return nil, eris.New("fetch: alternate url action without url")
		}
		result, err := c.Fetch(ctx, action.AlternateURL)
		if err != nil {
			return nil, err
		}
		result.Strategy = model.StrategyPattern
		result.FinalURL = action.AlternateURL
		return result, nil

	case model.RecoverPathPattern:
		return c.probePaths(ctx, originalURL, action.PathPatterns)
	}
	return nil, eris.Errorf("fetch: unhandled recovery kind %q", kind)
}

// findRenderer locates the render strategy in the chain, if present.
func (c *Chain) findRenderer() *RenderStrategy {
	for _, s := range c.strategies {
		if r, ok := s.(*RenderStrategy); ok {
			return r
		}
	}
	return nil
}
