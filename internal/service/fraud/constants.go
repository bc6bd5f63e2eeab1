package fraud

// Check type keys emitted by the analyzer.
const (
	CheckMetadataAnalysis    = "metadata_analysis"
	CheckMetadataTampering   = "metadata_tampering"
	CheckSoftwareAnalysis    = "software_analysis"
	CheckTemplateMatch       = "template_match"
	CheckPolicyNumberFormat  = "policy_number_format"
	CheckTemplateElements    = "template_elements"
	CheckABNValidation       = "abn_validation"
	CheckDateLogic           = "date_logic"
	CheckCoverageLimits      = "coverage_limits"
	CheckDuplicateSubmission = "duplicate_submission"
	CheckDateManipulation    = "date_manipulation"
)

// DefaultRules returns the production rule set
func DefaultRules() Rules {
	return Rules{
		TamperThresholdDays: 1,
		TamperScorePerDay:   5,
		TamperScoreCap:      60,

		// Image editors and consumer PDF manipulation tools never produce a
		// genuine Certificate of Currency.
		SuspiciousProducers: []string{
			"photoshop",
			"gimp",
			"canva",
			"ilovepdf",
			"smallpdf",
			"sejda",
			"pdfescape",
			"pdf-xchange editor",
			"foxit phantompdf",
			"inkscape",
		},
		// Document pipelines that insurers and brokers actually emit from.
		LegitimateProducers: []string{
			"adobe pdf library",
			"acrobat distiller",
			"microsoft word",
			"microsoft: print to pdf",
			"libreoffice",
			"apache fop",
			"itext",
			"wkhtmltopdf",
			"guidewire",
			"duck creek",
			"prince",
		},
		SuspiciousProducerScore: 70,
		UnknownProducerScore:    30,

		UnknownInsurerScore:  20,
		PatternMismatchScore: 65,
		MissingElementScore:  15,

		InvalidABNScore: 80,

		InvertedDatesScore: 90,
		OddPeriodScore:     25,
		MinPolicyDays:      30,
		MaxPolicyDays:      400,

		NonPositiveLimitScore:  70,
		LowLiabilityLimitScore: 40,
		MinLiabilityLimit:      100_000,

		DuplicateScore:        10,
		DateManipulationScore: 95,
	}
}
