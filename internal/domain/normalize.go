package domain

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lowercases an email. Returns nil when the input
// is empty after trimming.
func NormalizeEmail(email string) *string {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// NormalizePhone strips every non-digit character, preserving a single
// leading "+". Returns nil when nothing remains.
func NormalizePhone(phone string) *string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return nil
	}
	plus := ""
	if strings.HasPrefix(trimmed, "+") {
		plus = "+"
	}
	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	out := plus + b.String()
	return &out
}

// ValidEmail reports whether s is a syntactically valid bare email address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return strings.Contains(s[at:], ".")
}

// PhoneQuery is the classification of a free-form search query as a phone
// number candidate.
type PhoneQuery struct {
	Digits    string // input reduced to digits only
	Local     string // 10-digit local form when derivable, otherwise empty
	PhoneLike bool   // 8-15 digits, routed to the exact store lookup
}

// ClassifyPhone reduces q to digits and, when the digits match the
// recognized country layout (10 digits with a leading 0, or 11 digits with
// the 84 prefix), derives the canonical 10-digit local form.
func ClassifyPhone(q string) PhoneQuery {
	var b strings.Builder
	for _, r := range strings.TrimSpace(q) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	pq := PhoneQuery{Digits: digits}
	switch {
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		pq.Local = digits
	case len(digits) == 11 && strings.HasPrefix(digits, "84"):
		pq.Local = "0" + digits[2:]
	}
	pq.PhoneLike = len(digits) >= 8 && len(digits) <= 15
	return pq
}

// NormalizeGender maps free-form input onto the gender enum, defaulting to
// unknown.
func NormalizeGender(g string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(g))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderOther:
		return GenderOther
	default:
		return GenderUnknown
	}
}
