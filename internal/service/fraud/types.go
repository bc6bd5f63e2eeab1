package fraud

import (
	"github.com/covertrack/coc-verification-backend/internal/domain/policy"
)

// Input is everything the analyzer knows about one uploaded certificate.
type Input struct {
	// Data is the extracted certificate content. Required.
	Data *policy.ExtractedPolicyData

	// Metadata is the PDF-level metadata, when readable. Optional.
	Metadata *policy.DocumentMetadata

	// FileName is the original upload file name.
	FileName string

	// DocumentHash identifies the uploaded bytes. When empty the analyzer
	// derives a content hash from the extracted data instead.
	DocumentHash string

	// PriorSubmissions are earlier uploads by the same subcontractor.
	PriorSubmissions []policy.PriorSubmission
}

// Rules holds the tunable thresholds and scores of every fraud check. Zero
// values are not meaningful; construct with DefaultRules and override fields.
type Rules struct {
	// Metadata tampering.
	TamperThresholdDays int
	TamperScorePerDay   float64
	TamperScoreCap      float64

	// Producer software reputation.
	SuspiciousProducers     []string
	LegitimateProducers     []string
	SuspiciousProducerScore float64
	UnknownProducerScore    float64

	// Insurer template matching.
	UnknownInsurerScore  float64
	PatternMismatchScore float64
	MissingElementScore  float64

	// ABN checksum.
	InvalidABNScore float64

	// Policy period sanity.
	InvertedDatesScore float64
	OddPeriodScore     float64
	MinPolicyDays      int
	MaxPolicyDays      int

	// Coverage limit sanity.
	NonPositiveLimitScore  float64
	LowLiabilityLimitScore float64
	MinLiabilityLimit      int64

	// Submission history.
	DuplicateScore        float64
	DateManipulationScore float64
}
