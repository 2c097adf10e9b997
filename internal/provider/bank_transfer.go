package provider

import (
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/extract"
)

var (
	bankSubjectKeywords = []string{"transferencia", "debin", "transferiste", "te transfirieron"}

	creditPhrases = []string{
		"recibiste una transferencia", "te transfirieron", "acreditamos",
		"transferencia recibida", "recibiste dinero", "ingreso de dinero",
		"debin acreditado",
	}
	debitPhrases = []string{
		"realizaste una transferencia", "transferiste", "debitamos", "enviaste",
		"transferencia realizada", "transferencia enviada", "debin debitado",
	}
)

// BankTransferParser reads transfer notifications. A credit carries only our
// destination account; a debit carries our origin account and the
// counterparty's destination.
type BankTransferParser struct {
	matcher matcher
}

// NewBankTransferParser returns a parser for the given sender domains.
func NewBankTransferParser(senderDomains []string) *BankTransferParser {
	return &BankTransferParser{matcher: newMatcher(senderDomains, bankSubjectKeywords)}
}

func (p *BankTransferParser) Name() string      { return "bank_transfer" }
func (p *BankTransferParser) Kind() Kind        { return KindBank }
func (p *BankTransferParser) Senders() []string { return p.matcher.senders() }

func (p *BankTransferParser) Match(email domain.Email) bool {
	return p.matcher.match(email)
}

func (p *BankTransferParser) Parse(email domain.Email) (Record, error) {
	doc := extract.Parse(email.Subject, email.HTML, email.Text)

	direction, ok := detectDirection(doc)
	if !ok {
		return Record{}, unrecognized(p.Name(), "direction not found")
	}

	externalID, ok := doc.ExternalID()
	if !ok {
		return Record{}, unrecognized(p.Name(), "external identifier not found")
	}

	amount, ok := doc.Amount()
	if !ok {
		return Record{}, unrecognized(p.Name(), "amount not found")
	}
	amount = amount.Abs()

	movement := &domain.ExternalMovement{
		ExternalID:    externalID,
		Direction:     direction,
		Amount:        amount,
		OperationDate: domain.CalendarDate(email.Date),
		SourceEmailID: domain.EventIdentity(email),
	}

	if date, ok := doc.Date(); ok {
		movement.OperationDate = date
	}

	switch direction {
	case domain.DirectionCredit:
		movement.DestinationAccount, _ = doc.Account(extract.RoleDestination)
	case domain.DirectionDebit:
		movement.OriginAccount, _ = doc.Account(extract.RoleOrigin)
		movement.DestinationAccount, _ = doc.Account(extract.RoleDestination)
	}

	movement.CounterpartyFiscalID, _ = doc.FiscalID()
	movement.CounterpartyName, _ = doc.PartyName()
	movement.Concept, _ = doc.Text(extract.ConceptLabels...)
	movement.ConceptCode, _ = doc.ConceptCode()

	if err := movement.Validate(); err != nil {
		return Record{}, unrecognized(p.Name(), err.Error())
	}

	return Record{Kind: KindBank, Parser: p.Name(), Movement: movement}, nil
}

func detectDirection(doc *extract.Document) (domain.Direction, bool) {
	text := normalizedHaystack(doc)
	switch {
	case containsAny(text, normalizeAll(creditPhrases)):
		return domain.DirectionCredit, true
	case containsAny(text, normalizeAll(debitPhrases)):
		return domain.DirectionDebit, true
	default:
		return "", false
	}
}

func normalizeAll(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = extract.NormalizeLabel(p)
	}
	return out
}
