// Package mailbox reads notification emails from a directory of RFC 5322
// message files, as exported by the mail gateway.
package mailbox

import (
	"context"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/mailrecon/internal/domain"
)

// DirectoryFetcher implements usecase.MailFetcher over a directory tree of
// .eml files.
type DirectoryFetcher struct {
	root   string
	logger zerolog.Logger
}

// NewDirectoryFetcher creates a fetcher rooted at dir.
func NewDirectoryFetcher(dir string, logger zerolog.Logger) *DirectoryFetcher {
	return &DirectoryFetcher{root: dir, logger: logger}
}

// FetchSince returns messages dated at or after since whose sender domain is
// one of senders (or a subdomain of one). An empty senders list admits every
// sender. Messages are returned oldest first. A file that cannot be parsed
// is logged and skipped; an unreadable root wraps domain.ErrTransportFailure.
func (f *DirectoryFetcher) FetchSince(ctx context.Context, since time.Time, senders []string) ([]domain.Email, error) {
	if _, err := os.Stat(f.root); err != nil {
		return nil, fmt.Errorf("%w: open mailbox %s: %v", domain.ErrTransportFailure, f.root, err)
	}

	var emails []domain.Email
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".eml") {
			return nil
		}

		email, err := readMessage(path)
		if err != nil {
			f.logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable message")
			return nil
		}
		if !email.Date.IsZero() && email.Date.Before(since) {
			return nil
		}
		if !senderAllowed(email.From, senders) {
			return nil
		}
		emails = append(emails, email)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: walk mailbox: %v", domain.ErrTransportFailure, err)
	}

	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].Date.Before(emails[j].Date)
	})
	return emails, nil
}

func readMessage(path string) (domain.Email, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Email{}, err
	}
	defer file.Close()

	msg, err := mail.ReadMessage(file)
	if err != nil {
		return domain.Email{}, fmt.Errorf("parse message: %w", err)
	}

	b, err := readBodies(msg.Header, msg.Body)
	if err != nil {
		return domain.Email{}, err
	}

	email := domain.Email{
		MessageID: strings.TrimSpace(msg.Header.Get("Message-Id")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
		From:      decodeHeader(msg.Header.Get("From")),
		HTML:      b.html,
		Text:      b.text,
	}
	if date, err := msg.Header.Date(); err == nil {
		email.Date = date
	}
	return email, nil
}

func senderAllowed(from string, senders []string) bool {
	if len(senders) == 0 {
		return true
	}
	sender := domain.SenderDomain(from)
	if sender == "" {
		return false
	}
	for _, s := range senders {
		s = strings.ToLower(strings.TrimSpace(s))
		if sender == s || strings.HasSuffix(sender, "."+s) {
			return true
		}
	}
	return false
}
