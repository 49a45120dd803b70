package model

// FetchStrategy names which acquisition strategy produced the content.
type FetchStrategy string

const (
	StrategyDirect   FetchStrategy = "direct"
	StrategyPDF      FetchStrategy = "pdf_extracted"
	StrategyRendered FetchStrategy = "rendered"
	StrategyPattern  FetchStrategy = "pattern_matched"
)

// FetchResult is the transient output of content acquisition. Only Content
// (capped) is persisted, on the Project record.
type FetchResult struct {
	Content       string
	Strategy      FetchStrategy
	OriginalBytes int
	// FinalURL differs from the requested URL when a recovery action
	// (alternate URL, conventional path probe) produced the content.
	FinalURL string
}
