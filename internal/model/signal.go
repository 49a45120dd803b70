package model

import "time"

// SignalCategory tags a signal with one of a fixed set of claim categories.
type SignalCategory string

const (
	CategoryPartnership SignalCategory = "partnership"
	CategoryTeam        SignalCategory = "team"
	CategoryTechnology  SignalCategory = "technology"
	CategoryFunding     SignalCategory = "funding"
	CategoryAdoption    SignalCategory = "adoption"
	CategoryAudit       SignalCategory = "audit"
	CategoryEndorsement SignalCategory = "endorsement"
	CategoryCommunity   SignalCategory = "community"
	CategoryRoadmap     SignalCategory = "roadmap"
	CategoryOther       SignalCategory = "other"
)

// AllSignalCategories returns the valid category set, used to validate
// model output before persisting.
func AllSignalCategories() []SignalCategory {
	return []SignalCategory{
		CategoryPartnership, CategoryTeam, CategoryTechnology,
		CategoryFunding, CategoryAdoption, CategoryAudit,
		CategoryEndorsement, CategoryCommunity, CategoryRoadmap,
		CategoryOther,
	}
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c SignalCategory) bool {
	for _, v := range AllSignalCategories() {
		if v == c {
			return true
		}
	}
	return false
}

// Signal is one extractable claim about a project. Signals are immutable once
// persisted for a phase run; a forced reanalysis supersedes the whole set.
type Signal struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"project_id"`
	Description string         `json:"description"`
	Category    SignalCategory `json:"category"`
	// Location notes where on the page/document the claim appears.
	Location string `json:"location"`
	// SourceText is the verbatim text the claim was extracted from, so the
	// comparator or a human can re-verify without re-fetching.
	SourceText string `json:"source_text"`
	// SimilarTo names a known comparable project, when the model found one.
	SimilarTo string    `json:"similar_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RedFlagSeverity grades how concerning a red flag is.
type RedFlagSeverity string

const (
	SeverityHigh   RedFlagSeverity = "high"
	SeverityMedium RedFlagSeverity = "medium"
	SeverityLow    RedFlagSeverity = "low"
)

// RedFlag is a concerning discovery with supporting evidence.
type RedFlag struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Severity    RedFlagSeverity `json:"severity"`
	Description string          `json:"description"`
	Evidence    string          `json:"evidence"`
	Location    string          `json:"location,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FollowUpResource is a link the extractor flagged as worth deeper inspection.
type FollowUpResource struct {
	URL      string `json:"url"`
	Reason   string `json:"reason"`
	Priority int    `json:"priority"` // 1 = highest
}

// Claim is a standalone stated claim from a document, used by the two-stage
// whitepaper evaluation (main claim + supporting evidence claims).
type Claim struct {
	Text       string `json:"text"`
	Location   string `json:"location"`
	SourceText string `json:"source_text"`
}

// SignalBundle is the complete Phase 1 output for a project.
type SignalBundle struct {
	WebsiteStatus  WebsiteStatus      `json:"website_status"`
	ProjectType    ProjectType        `json:"project_type"`
	Signals        []Signal           `json:"signals"`
	RedFlags       []RedFlag          `json:"red_flags"`
	FollowUps      []FollowUpResource `json:"follow_ups,omitempty"`
	MainClaim      *Claim             `json:"main_claim,omitempty"`
	EvidenceClaims []Claim            `json:"evidence_claims,omitempty"`
}

// ShortCircuited reports whether extraction bailed out early on
// dead/parking/placeholder content.
func (b *SignalBundle) ShortCircuited() bool {
	return b.WebsiteStatus != WebsiteActive
}
