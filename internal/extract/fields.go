package extract

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Role scopes account extraction. Origin and destination label sets never
// overlap, so one label can never fill both roles.
type Role int

const (
	RoleOrigin Role = iota
	RoleDestination
)

func (r Role) String() string {
	if r == RoleOrigin {
		return "origin"
	}
	return "destination"
}

// Label tables. New layouts are supported by adding entries here.
var (
	AmountLabels = []string{
		"importe", "monto", "importe transferido", "monto transferido",
		"importe acreditado", "importe debitado", "total a pagar", "total",
	}
	DateLabels = []string{
		"fecha", "fecha de operacion", "fecha de la operacion", "fecha de transferencia",
		"fecha y hora", "fecha de ejecucion",
	}
	OriginAccountLabels = []string{
		"cuenta origen", "cuenta de origen", "cbu origen", "cbu de origen",
		"cuenta debito", "cuenta de debito", "cuenta debitada",
	}
	DestinationAccountLabels = []string{
		"cbu cvu", "cbu", "cvu", "cuenta destino", "cuenta de destino", "cbu destino",
		"cbu de destino", "cuenta credito", "cuenta de credito", "cuenta acreditada",
	}
	FiscalIDLabels = []string{
		"cuit", "cuil", "cuit cuil", "cuit cuil cdi", "cdi", "cuit del ordenante",
		"cuit del destinatario", "cuit ordenante", "cuit destinatario",
	}
	PartyNameLabels = []string{
		"titular", "nombre", "ordenante", "destinatario", "razon social", "beneficiario",
		"nombre del ordenante", "nombre del destinatario", "nombre y apellido",
	}
	ConceptLabels = []string{"concepto", "motivo"}
	ExternalIDLabels = []string{
		"numero de operacion", "nro de operacion", "n de operacion", "id de operacion",
		"codigo de transferencia", "numero de transferencia", "referencia", "id debin",
		"numero de comprobante", "nro de comprobante", "comprobante",
	}
)

var (
	amountValue  = Shape{Pattern: `\$?[ \t]*-?[0-9][0-9.,]*`}
	dateValue    = Shape{Pattern: `\d{1,2}/\d{1,2}/\d{2,4}`}
	accountValue = Shape{Pattern: `[0-9][0-9 -]{12,40}[0-9]`}
	fiscalValue  = Shape{Pattern: `\d{2}[- ]?\d{8}[- ]?\d`}
	lineValue    = Shape{Pattern: `[^\n]+`, Colon: true}
	tokenValue   = Shape{Pattern: `[A-Za-z0-9][A-Za-z0-9./-]*`, Colon: true}
)

var (
	currencyAmountRe = regexp.MustCompile(`\$\s*(-?[0-9][0-9.,]*)`)
	anyDateRe        = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4})`)
	anyFiscalIDRe    = regexp.MustCompile(`\b(\d{2}-\d{8}-\d)\b`)
	conceptCodeRe    = regexp.MustCompile(`\b[A-Z]{3}\b`)
)

// Amount returns the first parseable amount under labels, defaulting to
// AmountLabels plus any "$ n" figure in the text.
func (d *Document) Amount(labels ...string) (decimal.Decimal, bool) {
	var generic []*regexp.Regexp
	if len(labels) == 0 {
		labels = AmountLabels
		generic = append(generic, currencyAmountRe)
	}
	return firstParsed(d, strategiesFor(labels, amountValue, generic...), ParseAmount)
}

// Date returns the first parseable date under labels, defaulting to DateLabels
// plus the first date anywhere in the text.
func (d *Document) Date(labels ...string) (time.Time, bool) {
	var generic []*regexp.Regexp
	if len(labels) == 0 {
		labels = DateLabels
		generic = append(generic, anyDateRe)
	}
	return firstParsed(d, strategiesFor(labels, dateValue, generic...), ParseDate)
}

// Account returns the account number for role.
func (d *Document) Account(role Role) (string, bool) {
	labels := DestinationAccountLabels
	if role == RoleOrigin {
		labels = OriginAccountLabels
	}
	return firstParsed(d, strategiesFor(labels, accountValue), AccountDigits)
}

// FiscalID returns the 11-digit tax identifier.
func (d *Document) FiscalID() (string, bool) {
	return firstParsed(d, strategiesFor(FiscalIDLabels, fiscalValue, anyFiscalIDRe), NormalizeFiscalID)
}

// PartyName returns the counterparty name.
func (d *Document) PartyName() (string, bool) {
	return firstParsed(d, strategiesFor(PartyNameLabels, lineValue), trimmed)
}

// ConceptCode returns the uppercased concept, narrowed to a three-letter code
// when the value carries one.
func (d *Document) ConceptCode() (string, bool) {
	return firstParsed(d, strategiesFor(ConceptLabels, lineValue), func(raw string) (string, bool) {
		v := strings.ToUpper(strings.TrimSpace(raw))
		if code := conceptCodeRe.FindString(v); code != "" {
			return code, true
		}
		return v, v != ""
	})
}

// ExternalID returns the upstream operation identifier. Labels are tried in
// priority order, each in the tables and then inline, and a value without a
// digit (a free-text reference) is not an identifier.
func (d *Document) ExternalID() (string, bool) {
	return firstParsed(d, labelFirst(ExternalIDLabels, tokenValue), identifier)
}

// Text returns the trimmed value for the first label that yields one.
func (d *Document) Text(labels ...string) (string, bool) {
	return firstParsed(d, strategiesFor(labels, lineValue), trimmed)
}

// Token is like Text but stops at the first whitespace in inline text, which
// suits identifiers printed ahead of other content on the same line.
func (d *Document) Token(labels ...string) (string, bool) {
	return firstParsed(d, strategiesFor(labels, tokenValue), trimmed)
}

func identifier(raw string) (string, bool) {
	v := collapseSpaces(raw)
	if strings.IndexFunc(v, unicode.IsDigit) < 0 {
		return "", false
	}
	return v, true
}

func trimmed(raw string) (string, bool) {
	v := collapseSpaces(raw)
	return v, v != ""
}
