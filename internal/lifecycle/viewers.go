package lifecycle

import (
	"slices"
	"strings"
)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeEmails trims, lower-cases, deduplicates and sorts addresses,
// dropping blanks. The result is never nil.
func NormalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			out = append(out, e)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ParseViewerList splits a comma separated list of addresses. The literal
// "none" (any case) clears the list.
func ParseViewerList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "none") {
		return []string{}
	}
	return NormalizeEmails(strings.Split(raw, ","))
}
