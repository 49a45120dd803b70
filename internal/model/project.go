// Package model defines the core domain types for the vetting pipeline.
package model

import "time"

// Phase names one of the two analysis phases.
type Phase string

const (
	PhaseExtraction     Phase = "extraction"
	PhaseClassification Phase = "classification"
)

// PhaseStatus tracks the lifecycle of a single analysis phase.
type PhaseStatus string

const (
	PhaseNotStarted PhaseStatus = "not_started"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseFailed     PhaseStatus = "failed"
)

// WebsiteStatus is the coarse liveness verdict from signal extraction.
type WebsiteStatus string

const (
	WebsiteActive  WebsiteStatus = "active"
	WebsiteDead    WebsiteStatus = "dead"
	WebsiteBlocked WebsiteStatus = "blocked"
)

// ProjectType is the coarse classification of what kind of project this is.
type ProjectType string

const (
	TypeDeFi           ProjectType = "defi"
	TypeInfrastructure ProjectType = "infrastructure"
	TypeGaming         ProjectType = "gaming"
	TypeNFT            ProjectType = "nft"
	TypeDAO            ProjectType = "dao"
	TypeMeme           ProjectType = "meme"
	TypeUnknown        ProjectType = "unknown"
)

// Project is the subject under evaluation. It is owned by the orchestrator
// and mutated only through phase completions.
type Project struct {
	ID              string `json:"id"`
	Symbol          string `json:"symbol"`
	WebsiteURL      string `json:"website_url"`
	WhitepaperURL   string `json:"whitepaper_url,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`

	ExtractionStatus     PhaseStatus `json:"extraction_status"`
	ClassificationStatus PhaseStatus `json:"classification_status"`

	WebsiteStatus WebsiteStatus `json:"website_status,omitempty"`
	ProjectType   ProjectType   `json:"project_type,omitempty"`

	// Content captured during acquisition, capped to the store limit.
	Content         string `json:"content,omitempty"`
	ContentStrategy string `json:"content_strategy,omitempty"`
	ContentReduced  bool   `json:"content_reduced,omitempty"`

	FinalTier  int     `json:"final_tier,omitempty"`
	FinalScore float64 `json:"final_score,omitempty"`

	ExtractedAt  *time.Time `json:"extracted_at,omitempty"`
	ClassifiedAt *time.Time `json:"classified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ExtractionDone reports whether Phase 1 has produced durable results.
func (p *Project) ExtractionDone() bool {
	return p.ExtractionStatus == PhaseCompleted
}
