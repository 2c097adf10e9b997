package provider

import (
	"strings"
	"time"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/extract"
)

var (
	utilitySubjectKeywords = []string{
		"factura", "vencimiento", "vence", "aviso de deuda", "deuda", "corte", "suministro",
	}

	serviceIDLabels = []string{
		"numero de cliente", "nro de cliente", "n de cliente", "numero de cuenta",
		"nro de cuenta", "numero de suministro", "suministro", "nis", "id de cliente",
		"codigo de pago", "numero de servicio",
	}
	invoiceAmountLabels = []string{
		"total a pagar", "importe a pagar", "importe", "monto", "saldo adeudado", "total",
	}
	dueDateLabels = []string{
		"vencimiento", "fecha de vencimiento", "1er vencimiento", "primer vencimiento", "vence",
	}
	periodLabels       = []string{"periodo", "periodo facturado", "mes facturado"}
	providerNameLabels = []string{"razon social", "empresa", "prestador"}
)

// alertRules are evaluated in order; the first keyword hit decides.
var alertRules = []struct {
	alert    domain.AlertType
	keywords []string
}{
	{domain.AlertCutoffNotice, []string{"corte", "suspension del servicio"}},
	{domain.AlertDebtNotice, []string{"mora", "deuda", "saldo adeudado"}},
	{domain.AlertInvoiceAvailable, []string{"factura"}},
	{domain.AlertUpcomingDue, []string{"vence", "vencimiento", "proximo vencimiento"}},
}

// UtilityInvoiceParser reads invoice, due-date, debt and cutoff notices from
// utility providers. A service identifier is mandatory.
type UtilityInvoiceParser struct {
	matcher matcher
}

// NewUtilityInvoiceParser returns a parser for the given sender domains.
func NewUtilityInvoiceParser(senderDomains []string) *UtilityInvoiceParser {
	return &UtilityInvoiceParser{matcher: newMatcher(senderDomains, utilitySubjectKeywords)}
}

func (p *UtilityInvoiceParser) Name() string      { return "utility_invoice" }
func (p *UtilityInvoiceParser) Kind() Kind        { return KindUtility }
func (p *UtilityInvoiceParser) Senders() []string { return p.matcher.senders() }

func (p *UtilityInvoiceParser) Match(email domain.Email) bool {
	return p.matcher.match(email)
}

func (p *UtilityInvoiceParser) Parse(email domain.Email) (Record, error) {
	doc := extract.Parse(email.Subject, email.HTML, email.Text)

	serviceID, ok := doc.Token(serviceIDLabels...)
	if !ok || domain.NormalizeDigits(serviceID) == "" {
		return Record{}, unrecognized(p.Name(), "service identifier not found")
	}

	comm := &domain.ServiceCommunication{
		MessageID:  domain.EventIdentity(email),
		Sender:     domain.SenderAddress(email.From),
		Subject:    strings.TrimSpace(email.Subject),
		Body:       strings.TrimSpace(doc.Haystack()),
		AlertType:  ClassifyAlert(doc),
		ServiceID:  serviceID,
		Status:     domain.CommunicationUnprocessed,
		ReceivedAt: email.Date,
	}

	if amount, ok := doc.Amount(invoiceAmountLabels...); ok {
		amount = amount.Abs()
		comm.EstimatedAmount = &amount
	}
	if due, ok := doc.Date(dueDateLabels...); ok {
		comm.DueDate = &due
	}
	comm.Period, _ = doc.Text(periodLabels...)
	comm.ProviderFiscalID, _ = doc.FiscalID()

	if name, ok := doc.Text(providerNameLabels...); ok {
		comm.ProviderName = name
	} else {
		comm.ProviderName = displayName(email.From)
	}

	if comm.ReceivedAt.IsZero() {
		comm.ReceivedAt = time.Now().UTC()
	}

	return Record{Kind: KindUtility, Parser: p.Name(), Communication: comm}, nil
}

// ClassifyAlert assigns the alert type by keyword priority: cutoff, debt,
// invoice, upcoming due, then other.
func ClassifyAlert(doc *extract.Document) domain.AlertType {
	text := normalizedHaystack(doc)
	for _, rule := range alertRules {
		if containsAny(text, normalizeAll(rule.keywords)) {
			return rule.alert
		}
	}
	return domain.AlertOther
}

func displayName(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.Index(from, "<"); i > 0 {
		return strings.Trim(strings.TrimSpace(from[:i]), `"`)
	}
	return domain.SenderAddress(from)
}
