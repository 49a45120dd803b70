package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/classify"
	"github.com/sells-group/vetting-cli/internal/docext"
	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/fetch"
	"github.com/sells-group/vetting-cli/internal/notify"
	"github.com/sells-group/vetting-cli/internal/pipeline"
	"github.com/sells-group/vetting-cli/internal/preprocess"
	"github.com/sells-group/vetting-cli/internal/store"
	"github.com/sells-group/vetting-cli/internal/validate"
	anthropicpkg "github.com/sells-group/vetting-cli/pkg/anthropic"
	"github.com/sells-group/vetting-cli/pkg/firecrawl"
	"github.com/sells-group/vetting-cli/pkg/jina"
)

// pipelineEnv holds the initialized store and orchestrator shared by the
// analyze and serve commands.
type pipelineEnv struct {
	Store store.Store
	Orch  *pipeline.Orchestrator
}

// Close drains background classification work, then releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Orch != nil {
		pe.Orch.Wait()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, API clients, the fetch chain, and both
// phase engines. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))

	docExtractor, err := docext.NewExtractor(cfg.DocExtract)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init document extractor")
	}

	// Acquisition order: direct -> jina reader -> rendered. Recovery actions
	// proposed by the validator are dispatched by the chain itself.
	chain := fetch.NewChain(cfg.Fetch.MinUsableChars,
		fetch.NewDirectStrategy(cfg.Fetch, docExtractor),
		fetch.NewJinaStrategy(jinaClient),
		fetch.NewRenderStrategy(firecrawlClient, cfg.Firecrawl, cfg.Fetch),
	)

	orch := pipeline.New(cfg, st,
		chain,
		validate.New(anthropicClient, cfg.Anthropic, cfg.Analysis),
		preprocess.New(cfg.Analysis.ReduceTriggerChars, cfg.Analysis.PromptCeilingChars),
		extract.New(anthropicClient, cfg.Anthropic, cfg.Analysis),
		classify.New(anthropicClient, cfg.Anthropic),
		notify.New(cfg.Notify),
	)

	return &pipelineEnv{Store: st, Orch: orch}, nil
}
