// Package expand rewrites a legal question into a few alternate search strings.
//
// Expansion appends, in order: conversation-derived variations, synonym
// rewrites for every table keyword found in the question, category templates
// for sexual offences, constitutional rights and income tax, and generic
// prefixes such as "indian law <question>". The list is deduplicated
// case-insensitively and capped (five by default). Later steps only matter
// when earlier ones produce fewer candidates than the cap.
//
//	e, _ := expand.NewExpander()
//	queries := e.Expand("Explain Section 302 punishment", conv.QueryVariations(q))
package expand
