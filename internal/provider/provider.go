// Package provider recognizes notification emails from banks and utility
// companies and turns them into domain records.
package provider

import (
	"fmt"
	"strings"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/extract"
)

// Kind groups parsers by the record they produce.
type Kind string

const (
	KindBank    Kind = "bank"
	KindUtility Kind = "utility"
	KindAll     Kind = "all"
)

// ParseKind validates a kind filter. An empty string means all.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", KindAll:
		return KindAll, nil
	case KindBank, KindUtility:
		return k, nil
	default:
		return "", domain.NewValidationError("kind", fmt.Sprintf("unknown parser kind %q", s), nil)
	}
}

// Includes reports whether filter k admits parsers of kind other.
func (k Kind) Includes(other Kind) bool {
	return k == KindAll || k == "" || k == other
}

// Record is the outcome of parsing one email. Exactly one of Movement and
// Communication is set.
type Record struct {
	Kind          Kind
	Parser        string
	Movement      *domain.ExternalMovement
	Communication *domain.ServiceCommunication
}

// Parser recognizes and parses one family of emails. Parse returns an error
// wrapping domain.ErrUnrecognized when the email is not a valid record.
// Senders lists the only sender domains Match can accept, or is empty when
// the parser may accept mail from any sender.
type Parser interface {
	Name() string
	Kind() Kind
	Senders() []string
	Match(email domain.Email) bool
	Parse(email domain.Email) (Record, error)
}

type matcher struct {
	domains  []string
	keywords []string
}

func newMatcher(domains, keywords []string) matcher {
	m := matcher{}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			m.domains = append(m.domains, d)
		}
	}
	for _, k := range keywords {
		m.keywords = append(m.keywords, extract.NormalizeLabel(k))
	}
	return m
}

// senders returns the domains match is limited to. Subject keywords can
// select mail from any sender, so a keyword matcher is never limited.
func (m matcher) senders() []string {
	if len(m.keywords) > 0 {
		return nil
	}
	return m.domains
}

// match accepts a configured sender domain (or any subdomain of it) or a
// subject carrying one of the keywords.
func (m matcher) match(email domain.Email) bool {
	if sender := domain.SenderDomain(email.From); sender != "" {
		for _, d := range m.domains {
			if sender == d || strings.HasSuffix(sender, "."+d) {
				return true
			}
		}
	}
	return containsAny(" "+extract.NormalizeLabel(email.Subject)+" ", m.keywords)
}

// containsAny reports whether any normalized phrase occurs in text on word
// boundaries. text must be normalized and padded with spaces.
func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, " "+p+" ") {
			return true
		}
	}
	return false
}

func normalizedHaystack(doc *extract.Document) string {
	return " " + extract.NormalizeLabel(doc.Haystack()) + " "
}

func unrecognized(parser, reason string) error {
	return fmt.Errorf("%s: %s: %w", parser, reason, domain.ErrUnrecognized)
}
