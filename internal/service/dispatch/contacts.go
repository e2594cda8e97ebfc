package dispatch

import (
	"strings"
	"unicode"

	"github.com/jwalitptl/admissions-api/internal/model"
)

// uniqueEmails normalizes addresses to trimmed lower case and keeps the first
// occurrence of each. Blank addresses are dropped.
func uniqueEmails(contacts []model.Contact) []string {
	seen := make(map[string]bool, len(contacts))
	out := make([]string, 0, len(contacts))
	for _, c := range contacts {
		addr := strings.ToLower(strings.TrimSpace(c.Email))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// uniquePhones compares numbers by their digits so "899-123-4567" and
// "899 123 4567" collapse into the first one seen.
func uniquePhones(contacts []model.Contact) []model.WhatsAppContact {
	seen := make(map[string]bool, len(contacts))
	out := make([]model.WhatsAppContact, 0, len(contacts))
	for _, c := range contacts {
		key := digits(c.Phone)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.WhatsAppContact{Name: c.Name, Phone: strings.TrimSpace(c.Phone)})
	}
	return out
}

// partition splits items into consecutive chunks of at most size.
func partition(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
