package provider

import (
	"errors"
	"sort"

	"github.com/iho/mailrecon/internal/domain"
)

// Registry routes emails to the first matching parser, in registration order.
type Registry struct {
	parsers []Parser
}

// NewRegistry returns a registry over parsers.
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// NewDefaultRegistry wires the bank and utility parsers.
func NewDefaultRegistry(bankDomains, utilityDomains []string) *Registry {
	return NewRegistry(
		NewBankTransferParser(bankDomains),
		NewUtilityInvoiceParser(utilityDomains),
	)
}

// Parsers returns the parsers admitted by filter.
func (r *Registry) Parsers(filter Kind) []Parser {
	var out []Parser
	for _, p := range r.parsers {
		if filter.Includes(p.Kind()) {
			out = append(out, p)
		}
	}
	return out
}

// Senders returns the sorted, de-duplicated sender domains a fetch for filter
// may be narrowed to. It is nil when any admitted parser accepts mail from
// unlisted senders, since narrowing would hide mail that parser can read.
func (r *Registry) Senders(filter Kind) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range r.Parsers(filter) {
		domains := p.Senders()
		if len(domains) == 0 {
			return nil
		}
		for _, s := range domains {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Parse tries each matching parser in order. A parser that matches but does
// not recognize the email passes it on to the next one.
func (r *Registry) Parse(email domain.Email, filter Kind) (Record, error) {
	var lastErr error
	for _, p := range r.Parsers(filter) {
		if !p.Match(email) {
			continue
		}
		rec, err := p.Parse(email)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, domain.ErrUnrecognized) {
			return Record{}, err
		}
		lastErr = err
	}
	if lastErr != nil {
		return Record{}, lastErr
	}
	return Record{}, domain.ErrUnrecognized
}
