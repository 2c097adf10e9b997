package mailbox

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// maxPartDepth bounds nested multipart recursion.
const maxPartDepth = 8

var charsets = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"utf-16":       unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch cs := strings.ToLower(strings.TrimSpace(charset)); cs {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	default:
		enc, ok := charsets[cs]
		if !ok {
			return nil, fmt.Errorf("unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value when
// the encoding is unknown.
func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

type bodies struct {
	html string
	text string
}

// readBodies walks the message tree and keeps the first text/html and
// text/plain parts, decoded to UTF-8.
func readBodies(header mail.Header, body io.Reader) (bodies, error) {
	var out bodies
	err := walkPart(header.Get("Content-Type"), header.Get("Content-Transfer-Encoding"), body, &out, 0)
	return out, err
}

func walkPart(contentType, transferEncoding string, body io.Reader, out *bodies, depth int) error {
	if depth > maxPartDepth {
		return fmt.Errorf("multipart nesting deeper than %d", maxPartDepth)
	}
	if contentType == "" {
		contentType = "text/plain; charset=us-ascii"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read multipart: %w", err)
			}
			if err := walkPart(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part, out, depth+1); err != nil {
				return err
			}
		}
	}

	if mediaType != "text/html" && mediaType != "text/plain" {
		return nil
	}
	if (mediaType == "text/html" && out.html != "") || (mediaType == "text/plain" && out.text != "") {
		return nil
	}

	text, err := decodeText(body, transferEncoding, params["charset"])
	if err != nil {
		return err
	}
	if mediaType == "text/html" {
		out.html = text
	} else {
		out.text = text
	}
	return nil
}

func decodeText(body io.Reader, transferEncoding, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	}

	r, err := charsetReader(charset, body)
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(raw), nil
}
