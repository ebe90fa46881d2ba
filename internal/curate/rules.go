package curate

// Rule assigns documents matching one of its keywords to a
// category/subcategory pair. Rules are evaluated in declared order and
// the first match wins.
type Rule struct {
	Category    string
	Subcategory string
	Keywords    []string
}

// ExclusionRule identifies documents to drop from the catalog entirely.
// A rule matches when each non-empty keyword list has at least one hit in
// its field; exclusion is checked before any category rule.
type ExclusionRule struct {
	TitleAny []string
	URLAny   []string
	Reason   string
}

// DefaultExclusions drops meeting notes, which the ADNI site lists
// alongside real documentation.
func DefaultExclusions() []ExclusionRule {
	return []ExclusionRule{
		{
			TitleAny: []string{"meeting", "notes"},
			URLAny:   []string{"meetingnotes", "meeting_notes", "meeting-notes"},
			Reason:   "Meeting notes and other non-document content",
		},
	}
}

// DefaultRules reproduces the documentation hierarchy of the ADNI website.
// Exact document titles come first; the trailing broad-keyword rules sweep
// anything the named lists miss into an "Other" subcategory.
func DefaultRules() []Rule {
	return []Rule{
		// MRI Protocols
		{Category: "MRI Protocols", Subcategory: "General", Keywords: []string{
			"adni mri overview", "adni mri method for non-adni studies", "mri acquisition table",
		}},
		{Category: "MRI Protocols", Subcategory: "ADNI3", Keywords: []string{
			"adni3 mri analysis manual", "adni3 mri technical manual",
			"adni 3 mri protocols quick guide", "adni3 mri scanner protocols",
		}},
		{Category: "MRI Protocols", Subcategory: "ADNI2/GO", Keywords: []string{
			"adni go mri technical procedures", "adni go/2 mri training manual",
			"adni 2 mri technical procedures", "adni2/go mri scanner protocols",
		}},
		{Category: "MRI Protocols", Subcategory: "ADNI1", Keywords: []string{
			"adni 1 mri technical procedures", "adni mri core protocol selection summary",
			"adni1 mri scanner protocols", "adni1 standardized mri collections",
			"adni1 mri processed image types",
		}},

		// PET Protocols
		{Category: "PET Protocols", Subcategory: "General", Keywords: []string{
			"adni 1 pet technical procedures", "pet pib technical manual",
			"adni go pet technical procedures", "adni 2 pet technical procedures",
			"adni 3 pet technical manual", "adni centiloids",
		}},

		// Clinical Protocols
		{Category: "Clinical Protocols", Subcategory: "ADNI1", Keywords: []string{"adni 1 clinical protocols"}},
		{Category: "Clinical Protocols", Subcategory: "ADNI GO", Keywords: []string{"adni go clinical protocols"}},
		{Category: "Clinical Protocols", Subcategory: "ADNI2", Keywords: []string{"adni 2 clinical protocols"}},
		{Category: "Clinical Protocols", Subcategory: "ADNI3", Keywords: []string{"adni 3 clinical protocols"}},

		// Biospecimen Protocols
		{Category: "Biospecimen Protocols", Subcategory: "CSF", Keywords: []string{
			"csf biomarker test instructions", "lumbar puncture protocol",
		}},
		{Category: "Biospecimen Protocols", Subcategory: "Brain Tissue", Keywords: []string{
			"neuropathology sort protocol", "neuropathology manual",
		}},
		{Category: "Biospecimen Protocols", Subcategory: "Samples", Keywords: []string{
			"adni3 biomarker sample collection", "genetics sample collection", "biofluid collections",
		}},

		// Policies and Procedures
		{Category: "Policies and Procedures", Subcategory: "General", Keywords: []string{
			"data sharing and publication policy", "adni data use agreement",
			"adni manuscript citations", "adni acknowledgement list", "groups acknowldgements",
			"access to adni samples", "adni rarc biomarker application", "adni rarc biomarker policies",
		}},

		// Consent Forms
		{Category: "Consent Forms", Subcategory: "ADNI4", Keywords: []string{
			"adni4 clinical to digital study partner", "adni4 remote blood cohort",
			"adni4 remote digital cohort", "adni4 remote digital study partner",
			"adni4 clinical to digital monitoring", "new participant icf",
			"rollover participant icf", "study partner icf", "telephone visit icf",
			"amyloid pet scan",
		}},
		{Category: "Consent Forms", Subcategory: "ADNI3", Keywords: []string{
			"adni3 protocolversion", "adni3_sample_early frames", "adni3_sample_brain donation",
			"adni3 sample new subject", "adni3 sample_rollover subject",
			"adni3 sample telephone visit addendum", "adni3 sample telephone visit icf",
			"adni3 schedule of activites",
		}},
		{Category: "Consent Forms", Subcategory: "ADNI2", Keywords: []string{
			"adni2 sample new subjects", "adni2 sample follow-up subjects",
		}},

		// Broad fallbacks, evaluated after every named rule above.
		{Category: "MRI Protocols", Subcategory: "Other", Keywords: []string{"mri"}},
		{Category: "PET Protocols", Subcategory: "Other", Keywords: []string{"pet"}},
		{Category: "Clinical Protocols", Subcategory: "Other", Keywords: []string{"clinical", "protocol"}},
		{Category: "Consent Forms", Subcategory: "Other", Keywords: []string{"consent", "icf"}},
		{Category: "Biospecimen Protocols", Subcategory: "Other", Keywords: []string{"biospecimen", "biofluid", "csf"}},
		{Category: "Policies and Procedures", Subcategory: "Other", Keywords: []string{"policy", "procedures", "agreement"}},
	}
}
