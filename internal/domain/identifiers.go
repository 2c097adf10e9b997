package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"
)

// NormalizeDigits keeps only ASCII digits. It is idempotent.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SenderAddress returns the lowercased address part of a From header.
func SenderAddress(from string) string {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.Trim(from, "<> "))
}

// SenderDomain returns the domain of a From header, or "" when absent.
func SenderDomain(from string) string {
	addr := SenderAddress(from)
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return ""
}

// Fingerprint derives a stable identity for a message that has no upstream id.
func Fingerprint(subject, from string, at time.Time) string {
	sum := sha256.Sum256([]byte(subject + "|" + SenderAddress(from) + "|" + at.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}

// EventIdentity returns the upstream message id when present, else the fingerprint.
func EventIdentity(e Email) string {
	if id := strings.TrimSpace(e.MessageID); id != "" {
		return id
	}
	return Fingerprint(e.Subject, e.From, e.Date)
}

// CalendarDate returns midnight UTC of the day t falls on in its own
// location, so a timestamp keeps the date its sender saw.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
