package mailbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/mailrecon/internal/domain"
)

const bankMessage = "Message-ID: <op-1@bank.example>\r\n" +
	"From: Banco Ejemplo <avisos@bank.example>\r\n" +
	"Subject: =?ISO-8859-1?Q?Transferencia_recibida_-_Operaci=F3n?=\r\n" +
	"Date: Mon, 01 Dec 2025 10:15:00 -0300\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Importe: $ 137.409,81\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=iso-8859-1\r\n" +
	"Content-Transfer-Encoding: quoted-printable\r\n" +
	"\r\n" +
	"<table><tr><td>Operaci=F3n</td><td>OP-1</td></tr></table>\r\n" +
	"--b1--\r\n"

const utilityMessage = "Message-ID: <m-1@aguas.example>\r\n" +
	"From: facturas@aguas.example\r\n" +
	"Subject: Tu factura esta disponible\r\n" +
	"Date: Tue, 02 Dec 2025 09:00:00 +0000\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"PHA+VG90YWwgYSBwYWdhcjogJCAxLjUwMCw1MDwvcD4=\r\n"

const oldMessage = "Message-ID: <old@bank.example>\r\n" +
	"From: avisos@bank.example\r\n" +
	"Subject: Transferencia\r\n" +
	"Date: Mon, 03 Nov 2025 10:00:00 +0000\r\n" +
	"\r\n" +
	"body\r\n"

func writeMailbox(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func TestDirectoryFetcher_FetchSince(t *testing.T) {
	dir := writeMailbox(t, map[string]string{
		"inbox/bank.eml":   bankMessage,
		"inbox/water.eml":  utilityMessage,
		"archive/old.eml":  oldMessage,
		"inbox/notes.txt":  "not a message",
		"inbox/broken.eml": "this is not\x00 an email",
	})
	fetcher := NewDirectoryFetcher(dir, zerolog.Nop())
	since := time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)

	emails, err := fetcher.FetchSince(context.Background(), since, nil)
	require.NoError(t, err)
	require.Len(t, emails, 2)

	bank := emails[0]
	assert.Equal(t, "<op-1@bank.example>", bank.MessageID)
	assert.Equal(t, "Transferencia recibida - Operación", bank.Subject)
	assert.Equal(t, "Importe: $ 137.409,81", strings.TrimSpace(bank.Text))
	assert.Contains(t, bank.HTML, "<td>Operación</td>")
	assert.True(t, bank.Date.Equal(time.Date(2025, 12, 1, 13, 15, 0, 0, time.UTC)), "date %s", bank.Date)
	_, offset := bank.Date.Zone()
	assert.Equal(t, -3*60*60, offset, "sender offset is kept")

	water := emails[1]
	assert.Equal(t, "<p>Total a pagar: $ 1.500,50</p>", water.HTML)
}

func TestDirectoryFetcher_FiltersSenders(t *testing.T) {
	dir := writeMailbox(t, map[string]string{
		"bank.eml":  bankMessage,
		"water.eml": utilityMessage,
	})
	fetcher := NewDirectoryFetcher(dir, zerolog.Nop())

	emails, err := fetcher.FetchSince(context.Background(), time.Time{}, []string{"aguas.example"})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "<m-1@aguas.example>", emails[0].MessageID)

	emails, err = fetcher.FetchSince(context.Background(), time.Time{}, []string{"example"})
	require.NoError(t, err)
	assert.Len(t, emails, 2, "parent domains admit subdomains")
}

func TestDirectoryFetcher_MissingRoot(t *testing.T) {
	fetcher := NewDirectoryFetcher(filepath.Join(t.TempDir(), "missing"), zerolog.Nop())

	_, err := fetcher.FetchSince(context.Background(), time.Time{}, nil)
	require.True(t, errors.Is(err, domain.ErrTransportFailure), "got %v", err)
}

func TestDirectoryFetcher_Cancelled(t *testing.T) {
	dir := writeMailbox(t, map[string]string{"bank.eml": bankMessage})
	fetcher := NewDirectoryFetcher(dir, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchSince(ctx, time.Time{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCharsetReader(t *testing.T) {
	_, err := charsetReader("x-unknown", strings.NewReader(""))
	assert.Error(t, err)

	r, err := charsetReader("windows-1252", strings.NewReader("\x80 10"))
	require.NoError(t, err)
	text, err := decodeText(r, "", "")
	require.NoError(t, err)
	assert.Equal(t, "€ 10", text)
}
