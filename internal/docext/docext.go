// Package docext extracts readable text from binary documents pulled in by
// the fetch chain, primarily PDF whitepapers.
package docext

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/config"
)

// Extractor converts raw document bytes into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// IsPDF sniffs the PDF magic bytes. URL extensions lie; the content sniff is
// authoritative.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.DocExtractConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("docext: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("docext: unknown provider %q", cfg.Provider)
	}
}
