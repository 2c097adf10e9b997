package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/mailrecon/internal/adapter/mailbox"
	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/provider"
	"github.com/iho/mailrecon/internal/usecase"
	"github.com/iho/mailrecon/internal/usecase/mocks"
)

type scanFixture struct {
	fetcher    *mocks.MockMailFetcher
	parser     *mocks.MockEmailParser
	classifier *mocks.MockEventClassifier
	generator  *mocks.MockCandidateGenerator
	state      *mocks.MockScanStateRepository
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &scanFixture{
		fetcher:    mocks.NewMockMailFetcher(ctrl),
		parser:     mocks.NewMockEmailParser(ctrl),
		classifier: mocks.NewMockEventClassifier(ctrl),
		generator:  mocks.NewMockCandidateGenerator(ctrl),
		state:      mocks.NewMockScanStateRepository(),
	}
	f.parser.EXPECT().Senders(gomock.Any()).Return([]string{"bank.example"}).AnyTimes()
	return f
}

func (f *scanFixture) useCase(cfg usecase.ScanConfig) *usecase.ScanUseCase {
	guard := usecase.NewScanGuard(f.state, mocks.NewMockIDGenerator(), cfg.Scope, time.Minute)
	return usecase.NewScanUseCase(guard, f.fetcher, f.parser, f.classifier, f.generator, f.state, zerolog.Nop(), nil, cfg)
}

func email(id string) domain.Email {
	return domain.Email{MessageID: id, Subject: "Transferencia", From: "avisos@bank.example"}
}

func TestScanUseCase_TriggerScanCountsOutcomes(t *testing.T) {
	f := newScanFixture(t)
	uc := f.useCase(usecase.ScanConfig{})

	emails := []domain.Email{email("new"), email("dup"), email("unknown"), email("broken"), email("panic")}
	f.fetcher.EXPECT().FetchSince(gomock.Any(), gomock.Any(), []string{"bank.example"}).Return(emails, nil)

	f.parser.EXPECT().Parse(gomock.Any(), provider.KindAll).DoAndReturn(
		func(e domain.Email, _ provider.Kind) (provider.Record, error) {
			if e.MessageID == "unknown" {
				return provider.Record{}, domain.ErrUnrecognized
			}
			return provider.Record{Parser: "bank_transfer", Movement: &domain.ExternalMovement{ExternalID: e.MessageID}}, nil
		},
	).Times(len(emails))

	f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec provider.Record) (usecase.ClassifyResult, error) {
			switch rec.Movement.ExternalID {
			case "new":
				return usecase.ClassifyResult{Outcome: domain.OutcomeNew, MovementID: "mov-1"}, nil
			case "dup":
				return usecase.ClassifyResult{Outcome: domain.OutcomeDuplicate}, nil
			case "broken":
				return usecase.ClassifyResult{}, errors.New("insert failed")
			default:
				panic("unexpected nil map")
			}
		},
	).Times(4)

	result, err := uc.TriggerScan(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Skipped {
		t.Fatal("scan should not be skipped")
	}
	if result.Processed != 5 || result.New != 1 || result.Duplicate != 1 || result.Errors != 3 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if len(result.NewMovementIDs) != 1 || result.NewMovementIDs[0] != "mov-1" {
		t.Fatalf("unexpected new movements %v", result.NewMovementIDs)
	}

	state, _ := f.state.Get(context.Background(), usecase.DefaultScanScope)
	if state.LastSuccessfulCheck == nil {
		t.Fatal("watermark not saved")
	}
	if state.LeaseToken != "" {
		t.Fatal("lease not released")
	}
	if uc.Running() {
		t.Fatal("guard not released")
	}
}

func TestScanUseCase_BankDomainsDoNotHideUtilityMail(t *testing.T) {
	dir := t.TempDir()
	invoice := "Message-ID: <f-1@edenor.com>\r\n" +
		"From: facturas@edenor.com\r\n" +
		"Subject: Tu factura esta disponible\r\n" +
		"Date: " + time.Now().Add(-time.Hour).Format(time.RFC1123Z) + "\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<table><tr><td>Numero de cliente</td><td>12345-6</td></tr>" +
		"<tr><td>Total a pagar</td><td>$ 23.456,70</td></tr></table>\r\n"
	if err := os.WriteFile(filepath.Join(dir, "invoice.eml"), []byte(invoice), 0o600); err != nil {
		t.Fatalf("write message: %v", err)
	}

	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockEventClassifier(ctrl)
	classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec provider.Record) (usecase.ClassifyResult, error) {
			if rec.Kind != provider.KindUtility || rec.Communication == nil {
				t.Errorf("unexpected record %+v", rec)
			}
			return usecase.ClassifyResult{Outcome: domain.OutcomeNew, CommunicationID: "comm-1"}, nil
		},
	).Times(1)

	state := mocks.NewMockScanStateRepository()
	guard := usecase.NewScanGuard(state, mocks.NewMockIDGenerator(), usecase.DefaultScanScope, time.Minute)
	uc := usecase.NewScanUseCase(
		guard,
		mailbox.NewDirectoryFetcher(dir, zerolog.Nop()),
		provider.NewDefaultRegistry([]string{"bancogalicia.com.ar"}, nil),
		classifier,
		nil,
		state,
		zerolog.Nop(),
		nil,
		usecase.ScanConfig{},
	)

	result, err := uc.TriggerScan(context.Background(), provider.KindAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 || result.New != 1 {
		t.Fatalf("utility mail from an unlisted sender was not scanned: %+v", result)
	}
}

func TestScanUseCase_LookbackWindow(t *testing.T) {
	f := newScanFixture(t)
	uc := f.useCase(usecase.ScanConfig{LookbackDays: 5})

	before := time.Now().UTC()
	f.fetcher.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, since time.Time, _ []string) ([]domain.Email, error) {
			want := before.AddDate(0, 0, -5)
			if since.Before(want.Add(-time.Minute)) || since.After(want.Add(time.Minute)) {
				t.Errorf("since = %s, want about %s", since, want)
			}
			return nil, nil
		},
	)

	if _, err := uc.TriggerScan(context.Background(), provider.KindBank); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScanUseCase_TransportFailureReleasesGuard(t *testing.T) {
	f := newScanFixture(t)
	uc := f.useCase(usecase.ScanConfig{})

	gomock.InOrder(
		f.fetcher.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("imap: connection refused")),
		f.fetcher.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil),
	)

	_, err := uc.TriggerScan(context.Background(), provider.KindAll)
	if !errors.Is(err, domain.ErrTransportFailure) {
		t.Fatalf("expected ErrTransportFailure, got %v", err)
	}

	state, _ := f.state.Get(context.Background(), usecase.DefaultScanScope)
	if state.LastSuccessfulCheck != nil {
		t.Fatal("failed scan must not move the watermark")
	}

	result, err := uc.TriggerScan(context.Background(), provider.KindAll)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if result.Skipped {
		t.Fatal("guard was not released after transport failure")
	}
}

func TestScanUseCase_OverlappingScanIsSkipped(t *testing.T) {
	f := newScanFixture(t)
	uc := f.useCase(usecase.ScanConfig{})

	entered := make(chan struct{})
	unblock := make(chan struct{})
	f.fetcher.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, time.Time, []string) ([]domain.Email, error) {
			close(entered)
			<-unblock
			return nil, nil
		},
	).Times(1)

	done := make(chan error, 1)
	go func() {
		_, err := uc.TriggerScan(context.Background(), provider.KindAll)
		done <- err
	}()

	<-entered
	result, err := uc.TriggerScan(context.Background(), provider.KindAll)
	if err != nil {
		t.Fatalf("overlapping scan: %v", err)
	}
	if !result.Skipped || result.Processed != 0 {
		t.Fatalf("expected skipped result, got %+v", result)
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("first scan: %v", err)
	}
}

func TestScanUseCase_LeaseHeldElsewhere(t *testing.T) {
	f := newScanFixture(t)
	uc := f.useCase(usecase.ScanConfig{})

	until := time.Now().Add(time.Hour)
	if ok, _ := f.state.AcquireLease(context.Background(), usecase.DefaultScanScope, "other-replica", until); !ok {
		t.Fatal("seed lease")
	}

	result, err := uc.TriggerScan(context.Background(), provider.KindAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Skipped {
		t.Fatal("expected skip while another replica holds the lease")
	}
	if uc.Running() {
		t.Fatal("in-process flag must be cleared when the lease is not acquired")
	}
}

func TestScanUseCase_LeaseErrorSurfaces(t *testing.T) {
	f := newScanFixture(t)
	f.state.AcquireLeaseFunc = func(context.Context, string, string, time.Time) (bool, error) {
		return false, errors.New("db down")
	}
	uc := f.useCase(usecase.ScanConfig{})

	if _, err := uc.TriggerScan(context.Background(), provider.KindAll); err == nil {
		t.Fatal("expected lease error")
	}
	if uc.Running() {
		t.Fatal("guard must be released on lease error")
	}
}

func TestScanUseCase_AutoReconcile(t *testing.T) {
	f := newScanFixture(t)
	uc := f.useCase(usecase.ScanConfig{AutoReconcile: true})

	f.fetcher.EXPECT().FetchSince(gomock.Any(), gomock.Any(), gomock.Any()).Return([]domain.Email{email("a")}, nil)
	f.parser.EXPECT().Parse(gomock.Any(), gomock.Any()).Return(provider.Record{Movement: &domain.ExternalMovement{}}, nil)
	f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(usecase.ClassifyResult{Outcome: domain.OutcomeNew, MovementID: "mov-9"}, nil)
	f.generator.EXPECT().GenerateCandidates(gomock.Any(), usecase.GenerateCandidatesInput{MovementID: "mov-9"}).
		Return(nil, errors.New("matcher unavailable"))

	result, err := uc.TriggerScan(context.Background(), provider.KindBank)
	if err != nil {
		t.Fatalf("matcher failures must not fail the scan: %v", err)
	}
	if result.New != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestScanGuard_ProcessLocal(t *testing.T) {
	guard := usecase.NewScanGuard(nil, nil, "", 0)

	release, ok, err := guard.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if _, ok, _ := guard.Acquire(context.Background()); ok {
		t.Fatal("second acquire must fail while held")
	}
	release()
	if _, ok, _ := guard.Acquire(context.Background()); !ok {
		t.Fatal("acquire after release must succeed")
	}
}

func TestScanGuard_RenewsLeaseWhileHeld(t *testing.T) {
	ctx := context.Background()
	state := mocks.NewMockScanStateRepository()
	guard := usecase.NewScanGuard(state, mocks.NewMockIDGenerator(), "", 300*time.Millisecond)

	release, ok, err := guard.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire: %v %v", ok, err)
	}

	// well past the TTL; renewals keep the lease alive
	time.Sleep(time.Second)
	if taken, _ := state.AcquireLease(ctx, usecase.DefaultScanScope, "other-replica", time.Now().Add(time.Hour)); taken {
		t.Fatal("lease expired while the scan was still running")
	}

	release()
	if taken, _ := state.AcquireLease(ctx, usecase.DefaultScanScope, "other-replica", time.Now().Add(time.Hour)); !taken {
		t.Fatal("lease not released")
	}
}

func TestScanGuard_StopsRenewingLostLease(t *testing.T) {
	state := mocks.NewMockScanStateRepository()
	var renewals atomic.Int32
	state.RenewLeaseFunc = func(context.Context, string, string, time.Time) (bool, error) {
		renewals.Add(1)
		return false, nil
	}
	guard := usecase.NewScanGuard(state, mocks.NewMockIDGenerator(), "", 30*time.Millisecond)

	release, ok, err := guard.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire: %v %v", ok, err)
	}
	time.Sleep(200 * time.Millisecond)
	release()

	if n := renewals.Load(); n != 1 {
		t.Fatalf("renewals = %d, want 1", n)
	}
	if guard.Running() {
		t.Fatal("guard not released")
	}
}
