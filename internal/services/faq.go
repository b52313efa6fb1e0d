package services

import (
	"regexp"
	"strings"
)

// faqEntry pairs intent patterns with a canned answer. Matched before any
// retrieval or model call; a hit never reaches the RAG pipeline.
type faqEntry struct {
	patterns []*regexp.Regexp
	answer   string
}

var faqEntries = []faqEntry{
	{
		patterns: compilePatterns(`contact|email|phone|reach out|get in touch`),
		answer:   "You can reach FBK at **contact@fbk.org** or visit the [Contact page](https://fbk.org/contact) for more options.",
	},
	{
		patterns: compilePatterns(`hour|open|schedule|timing|when are you`),
		answer:   "FBK office hours are **Monday – Friday, 9 AM – 5 PM PT**. For urgent matters outside of those hours, please email contact@fbk.org.",
	},
	{
		patterns: compilePatterns(`apply|application|portal|sign.?up|register`),
		answer:   "You can apply or access the member portal at [fbk.org/apply](https://fbk.org/apply). If you have trouble logging in, contact support@fbk.org.",
	},
	{
		patterns: compilePatterns(`donat|give|fund|support financially`),
		answer:   "Donations to FBK can be made at [fbk.org/donate](https://fbk.org/donate). Thank you for your generosity!",
	},
	{
		patterns: compilePatterns(`event|upcoming|calendar|webinar`),
		answer:   "Check out all upcoming FBK events on the [Events page](https://fbk.org/events).",
	},
	{
		patterns: compilePatterns(`program|service|offer|what do you do`),
		answer:   "Learn about FBK programs and services at [fbk.org/programs](https://fbk.org/programs).",
	},
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}

// MatchFAQ returns the canned answer for a recognized intent, if any.
func MatchFAQ(message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	for _, entry := range faqEntries {
		for _, re := range entry.patterns {
			if re.MatchString(trimmed) {
				return entry.answer, true
			}
		}
	}
	return "", false
}
