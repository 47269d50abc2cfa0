package expand

// SynonymGroup maps a keyword found in a question to related legal phrasing.
type SynonymGroup struct {
	Key      string
	Synonyms []string
}

// Category appends a fixed set of specialized queries when any trigger
// word appears in the question.
type Category struct {
	Name     string
	Triggers []string
	Queries  []string
}

// DefaultSynonyms is scanned in declaration order.
var DefaultSynonyms = []SynonymGroup{
	{"rape", []string{"sexual assault", "sexual offence", "sexual violence", "consent", "section 63", "section 64", "section 65", "section 66", "section 67", "section 68"}},
	{"murder", []string{"homicide", "culpable homicide", "section 100", "section 101", "section 102", "killing", "death penalty"}},
	{"theft", []string{"stealing", "section 303", "section 304", "property offence", "larceny"}},
	{"fraud", []string{"cheating", "section 318", "section 319", "deception", "forgery"}},
	{"dowry", []string{"dowry death", "section 85", "section 86", "harassment", "matrimonial cruelty"}},
	{"corruption", []string{"bribery", "public servant", "misconduct", "prevention of corruption"}},
	{"article", []string{"constitutional provision", "fundamental right", "directive principle"}},
	{"section", []string{"criminal provision", "offence", "punishment", "penalty"}},
	{"constitution", []string{"fundamental rights", "directive principles", "constitutional law", "article"}},
	{"nyaya sanhita", []string{"criminal law", "bharatiya nyaya sanhita", "bns", "criminal code", "penal code"}},
	{"income tax", []string{"tax deduction", "taxable income", "assessment", "tds", "advance tax", "section 80c", "section 80d", "section 194", "finance act"}},
	{"tax", []string{"income tax act 1961", "tax rules 1962", "deduction", "exemption", "assessment year", "financial year"}},
	{"tds", []string{"tax deducted at source", "section 194", "withholding tax", "tds certificate", "form 16"}},
	{"deduction", []string{"section 80c", "section 80d", "section 80g", "section 24", "house property", "investment"}},
	{"assessment", []string{"income tax assessment", "scrutiny", "notice", "penalty", "interest"}},
	{"salary", []string{"section 17", "perquisites", "allowances", "professional tax", "provident fund"}},
	{"capital gains", []string{"section 54", "section 54f", "ltcg", "stcg", "indexation"}},
	{"business income", []string{"section 28", "section 37", "depreciation", "business expenses"}},
	{"finance act", []string{"budget", "amendments", "new provisions", "tax rates", "slabs"}},
}

// DefaultCategories are checked in declaration order.
var DefaultCategories = []Category{
	{
		Name:     "sexual offences",
		Triggers: []string{"rape", "sexual", "assault", "consent"},
		Queries: []string{
			"sexual offences bharatiya nyaya sanhita",
			"rape laws india criminal code",
			"consent sexual assault provisions",
			"punishment sexual violence",
			"section 63 64 65 66 67 68 bharatiya nyaya sanhita",
		},
	},
	{
		Name:     "constitutional rights",
		Triggers: []string{"article", "constitution", "fundamental"},
		Queries: []string{
			"constitutional provisions fundamental rights",
			"indian constitution articles",
			"directive principles state policy",
			"fundamental duties constitution",
		},
	},
	{
		Name:     "income tax",
		Triggers: []string{"tax", "income", "deduction", "tds", "assessment", "salary", "capital gains", "business"},
		Queries: []string{
			"income tax act 1961 provisions",
			"tax deduction rules 1962",
			"assessment procedures income tax",
			"tax compliance requirements",
			"deduction exemption provisions",
		},
	},
}

// DefaultGenericPrefixes are prepended to the question as broad reformulations.
var DefaultGenericPrefixes = []string{
	"legal provisions",
	"indian law",
	"criminal law",
	"constitutional law",
}
