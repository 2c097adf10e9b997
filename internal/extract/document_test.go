package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rowLayoutHTML = `<html><body>
<p>Recibiste una transferencia</p>
<table>
  <tr><td>Importe:</td><td>$ 137.409,81</td></tr>
  <tr><td>Fecha:</td><td>01/12/2025</td></tr>
  <tr><td>CUIT/CUIL:</td><td>27-26544309-0</td></tr>
  <tr><td>Número de operación:</td><td>987654321</td></tr>
  <tr><td>Concepto:</td><td>VAR - Varios</td></tr>
  <tr><td>Titular:</td><td>  Juan   Pérez </td></tr>
  <tr><td>CBU/CVU:</td><td>0070 3480 3000 4032 2271 40</td></tr>
</table>
</body></html>`

const columnLayoutHTML = `<html><body>
<table>
  <tr>
    <td><table>
      <tr><td>Cuenta de origen</td></tr>
      <tr><td>CBU destino</td></tr>
      <tr><td>Importe</td></tr>
    </table></td>
    <td><table>
      <tr><td>021-00020352000101</td></tr>
      <tr><td>0070348030004032227140</td></tr>
      <tr><td>$ 100,00</td></tr>
    </table></td>
  </tr>
  <tr><td>Importe</td><td>$ 200,00</td></tr>
</table>
</body></html>`

func TestParse_RowLayout(t *testing.T) {
	doc := Parse("Aviso de transferencia", rowLayoutHTML, "")

	amount, ok := doc.Amount()
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("137409.81")), "got %s", amount)

	date, ok := doc.Date()
	require.True(t, ok)
	assert.True(t, date.Equal(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))

	fiscalID, ok := doc.FiscalID()
	require.True(t, ok)
	assert.Equal(t, "27265443090", fiscalID)

	externalID, ok := doc.ExternalID()
	require.True(t, ok)
	assert.Equal(t, "987654321", externalID)

	concept, ok := doc.ConceptCode()
	require.True(t, ok)
	assert.Equal(t, "VAR", concept)

	name, ok := doc.PartyName()
	require.True(t, ok)
	assert.Equal(t, "Juan Pérez", name)

	dest, ok := doc.Account(RoleDestination)
	require.True(t, ok)
	assert.Equal(t, "0070348030004032227140", dest)

	_, ok = doc.Account(RoleOrigin)
	assert.False(t, ok, "destination label must not fill origin")
}

func TestParse_ColumnLayoutAndMergeOrder(t *testing.T) {
	doc := Parse("Transferencia realizada", columnLayoutHTML, "")

	origin, ok := doc.Account(RoleOrigin)
	require.True(t, ok)
	assert.Equal(t, "02100020352000101", origin)

	dest, ok := doc.Account(RoleDestination)
	require.True(t, ok)
	assert.Equal(t, "0070348030004032227140", dest)

	// the row pass runs second and overrides the column value
	amount, ok := doc.Amount()
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(200)), "got %s", amount)
}

func TestParse_PlainTextFallbacks(t *testing.T) {
	text := "Recibiste una transferencia\n" +
		"CBU/CVU: 0070 3480 3000 4032 2271 40\n" +
		"Importe: $ 1.500,00\n" +
		"Fecha: 05/03/25\n" +
		"Ordenante: ACME S.A.\n" +
		"Referencia: TRX-1234 procesada\n"

	doc := Parse("Transferencia recibida", "", text)

	dest, ok := doc.Account(RoleDestination)
	require.True(t, ok)
	assert.Equal(t, "0070348030004032227140", dest)

	_, ok = doc.Account(RoleOrigin)
	assert.False(t, ok)

	amount, ok := doc.Amount()
	require.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(1500)))

	date, ok := doc.Date()
	require.True(t, ok)
	assert.True(t, date.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)))

	name, ok := doc.PartyName()
	require.True(t, ok)
	assert.Equal(t, "ACME S.A.", name)

	ref, ok := doc.ExternalID()
	require.True(t, ok)
	assert.Equal(t, "TRX-1234", ref)
}

func TestParse_ExternalIDPrefersOperationNumber(t *testing.T) {
	html := `<table><tr><td>Referencia</td><td>Alquiler diciembre</td></tr></table>`

	first := Parse("Transferencia recibida", html, "Número de operación: 111111\n")
	second := Parse("Transferencia recibida", html, "Número de operación: 222222\n")

	id1, ok := first.ExternalID()
	require.True(t, ok)
	id2, ok := second.ExternalID()
	require.True(t, ok)

	assert.Equal(t, "111111", id1)
	assert.Equal(t, "222222", id2)
}

func TestParse_ExternalIDNeedsADigit(t *testing.T) {
	doc := Parse("", `<table><tr><td>Referencia</td><td>Alquiler diciembre</td></tr></table>`, "")

	_, ok := doc.ExternalID()
	assert.False(t, ok, "free-text reference is not an identifier")
}

func TestParse_LabelledDateIgnoresOtherDates(t *testing.T) {
	text := "Emitida: 01/11/2025\nVencimiento: 15/12/2025\n"
	doc := Parse("Tu factura", "", text)

	due, ok := doc.Date("vencimiento", "fecha de vencimiento")
	require.True(t, ok)
	assert.True(t, due.Equal(time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)))
}

func TestParse_MissingFieldsAreAbsent(t *testing.T) {
	doc := Parse("", "", "")

	_, ok := doc.Amount()
	assert.False(t, ok)
	_, ok = doc.Date()
	assert.False(t, ok)
	_, ok = doc.Account(RoleOrigin)
	assert.False(t, ok)
	_, ok = doc.FiscalID()
	assert.False(t, ok)
	_, ok = doc.PartyName()
	assert.False(t, ok)
	_, ok = doc.ConceptCode()
	assert.False(t, ok)
	_, ok = doc.Text("numero de cliente")
	assert.False(t, ok)
	assert.Empty(t, doc.Fields())
}

func TestParse_UnparseableAmountIsAbsent(t *testing.T) {
	doc := Parse("", `<table><tr><td>Importe</td><td>a confirmar</td></tr></table>`, "")

	_, ok := doc.Amount()
	assert.False(t, ok)

	raw, ok := doc.Lookup("IMPORTE")
	require.True(t, ok)
	assert.Equal(t, "a confirmar", raw)
}

func TestFirstOf(t *testing.T) {
	never := func(*Document) (string, bool) { return "", false }
	fixed := func(v string) Strategy {
		return func(*Document) (string, bool) { return v, true }
	}

	v, ok := FirstOf(never, fixed("a"), fixed("b"))(Parse("", "", ""))
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = FirstOf(never)(Parse("", "", ""))
	assert.False(t, ok)
}
