package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/domain"
)

// Chart-of-accounts codes used by the standard postings.
const (
	AccountCodeTenantReceivable   = "DEUDORES_INQUILINOS"
	AccountCodeLandlordPayable    = "ACREEDORES_PROPIETARIOS"
	AccountCodeCommissionRevenue  = "INGRESOS_COMISIONES"
	AccountCodeDepositsHeld       = "DEPOSITOS_EN_GARANTIA"
	AccountCodeTenantPayable      = "INQUILINOS_A_DEVOLVER"
	AccountCodeFeesReceivable     = "HONORARIOS_A_COBRAR"
	AccountCodeFeesRevenue        = "INGRESOS_HONORARIOS"
	AccountCodeProviderPayable    = "PROVEEDORES_A_PAGAR"
	AccountCodeRecoverableExpense = "GASTOS_RECUPERABLES"
)

// PostingFactory builds the standard balanced postings. Account codes are
// resolved once per process and shared through the optional cache.
type PostingFactory struct {
	resolver AccountResolver
	cache    Cache
	cacheTTL time.Duration

	mu    sync.RWMutex
	local map[string]string
}

// NewPostingFactory creates a new PostingFactory. cache may be nil.
func NewPostingFactory(resolver AccountResolver, cache Cache, cacheTTL time.Duration) *PostingFactory {
	if cacheTTL <= 0 {
		cacheTTL = DefaultAccountCacheTTL
	}
	return &PostingFactory{
		resolver: resolver,
		cache:    cache,
		cacheTTL: cacheTTL,
		local:    make(map[string]string),
	}
}

// Account resolves an account code to an account id. A code that does not
// exist fails with domain.ErrAccountCodeNotFound.
func (f *PostingFactory) Account(ctx context.Context, code string) (string, error) {
	f.mu.RLock()
	id, ok := f.local[code]
	f.mu.RUnlock()
	if ok {
		return id, nil
	}

	if f.cache != nil {
		if cached, err := f.cache.Get(ctx, accountCacheKeyPrefix+code); err == nil && len(cached) > 0 {
			f.remember(code, string(cached))
			return string(cached), nil
		}
	}

	id, err := f.resolver.ResolveAccountCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrAccountCodeNotFound) {
			return "", fmt.Errorf("account code %s: %w", code, err)
		}
		return "", fmt.Errorf("resolve account code %s: %w", code, err)
	}
	if id == "" {
		return "", fmt.Errorf("account code %s: %w", code, domain.ErrAccountCodeNotFound)
	}

	f.remember(code, id)
	if f.cache != nil {
		// cache write failures are ignored
		_ = f.cache.Set(ctx, accountCacheKeyPrefix+code, []byte(id), f.cacheTTL)
	}

	return id, nil
}

func (f *PostingFactory) remember(code, id string) {
	f.mu.Lock()
	f.local[code] = id
	f.mu.Unlock()
}

func (f *PostingFactory) accounts(ctx context.Context, codes ...string) ([]string, error) {
	ids := make([]string, len(codes))
	for i, code := range codes {
		id, err := f.Account(ctx, code)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// RentInput describes a monthly rent charge.
type RentInput struct {
	ContractID     string
	TenantID       string
	LandlordID     string
	Period         string
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal
	ImputationDate time.Time
	DueDate        time.Time
}

// Rent charges the tenant the full rent and splits it between the landlord's
// net and the agency commission.
func (f *PostingFactory) Rent(ctx context.Context, in RentInput) (*domain.LedgerPosting, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.CommissionRate.IsNegative() || in.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, domain.NewValidationError("commission_rate", "must be between 0 and 1", nil)
	}

	ids, err := f.accounts(ctx, AccountCodeTenantReceivable, AccountCodeLandlordPayable, AccountCodeCommissionRevenue)
	if err != nil {
		return nil, err
	}

	commission := in.Amount.Mul(in.CommissionRate).Round(2)
	net := in.Amount.Sub(commission)

	b := domain.NewPostingBuilder().
		SetType(domain.PostingRent).
		SetDescription(fmt.Sprintf("Alquiler %s", in.Period)).
		SetDates(in.ImputationDate, in.DueDate).
		SetMetadata("contract_id", in.ContractID).
		SetMetadata("period", in.Period)

	if err := b.AddDebit(ids[0], "Alquiler a cobrar", in.Amount, in.TenantID); err != nil {
		return nil, err
	}
	if err := b.AddCredit(ids[1], "Alquiler neto a liquidar", net, in.LandlordID); err != nil {
		return nil, err
	}
	if commission.IsPositive() {
		if err := b.AddCredit(ids[2], "Comision de administracion", commission, in.LandlordID); err != nil {
			return nil, err
		}
	}

	return b.Build()
}

// DepositInput describes a security deposit movement.
type DepositInput struct {
	ContractID     string
	TenantID       string
	Amount         decimal.Decimal
	ImputationDate time.Time
	DueDate        time.Time
}

// DepositCollection charges the tenant the deposit and holds it.
func (f *PostingFactory) DepositCollection(ctx context.Context, in DepositInput) (*domain.LedgerPosting, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}

	ids, err := f.accounts(ctx, AccountCodeTenantReceivable, AccountCodeDepositsHeld)
	if err != nil {
		return nil, err
	}

	b := domain.NewPostingBuilder().
		SetType(domain.PostingDepositCollection).
		SetDescription("Deposito en garantia").
		SetDates(in.ImputationDate, in.DueDate).
		SetMetadata("contract_id", in.ContractID)

	if err := b.AddDebit(ids[0], "Deposito a cobrar", in.Amount, in.TenantID); err != nil {
		return nil, err
	}
	if err := b.AddCredit(ids[1], "Deposito retenido", in.Amount, in.TenantID); err != nil {
		return nil, err
	}

	return b.Build()
}

// DepositReturn releases a held deposit back to the tenant.
func (f *PostingFactory) DepositReturn(ctx context.Context, in DepositInput) (*domain.LedgerPosting, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}

	ids, err := f.accounts(ctx, AccountCodeDepositsHeld, AccountCodeTenantPayable)
	if err != nil {
		return nil, err
	}

	b := domain.NewPostingBuilder().
		SetType(domain.PostingDepositReturn).
		SetDescription("Devolucion de deposito en garantia").
		SetDates(in.ImputationDate, in.DueDate).
		SetMetadata("contract_id", in.ContractID)

	if err := b.AddDebit(ids[0], "Deposito liberado", in.Amount, in.TenantID); err != nil {
		return nil, err
	}
	if err := b.AddCredit(ids[1], "Deposito a devolver", in.Amount, in.TenantID); err != nil {
		return nil, err
	}

	return b.Build()
}

// FeeInput describes a fee charged in monthly installments.
type FeeInput struct {
	ContractID   string
	ClientID     string
	Description  string
	Total        decimal.Decimal
	Installments int
	FirstDueDate time.Time
}

// FeeInstallments splits a fee into monthly postings. Amounts are rounded to
// cents and the last installment absorbs the remainder.
func (f *PostingFactory) FeeInstallments(ctx context.Context, in FeeInput) ([]*domain.LedgerPosting, error) {
	if err := requirePositive("total", in.Total); err != nil {
		return nil, err
	}
	if in.Installments < 1 {
		return nil, domain.NewValidationError("installments", "must be at least 1", nil)
	}
	if in.FirstDueDate.IsZero() {
		return nil, domain.NewValidationError("first_due_date", "is required", nil)
	}

	ids, err := f.accounts(ctx, AccountCodeFeesReceivable, AccountCodeFeesRevenue)
	if err != nil {
		return nil, err
	}

	description := in.Description
	if description == "" {
		description = "Honorarios"
	}

	n := int64(in.Installments)
	share := in.Total.Div(decimal.NewFromInt(n)).Round(2)
	remainder := in.Total.Sub(share.Mul(decimal.NewFromInt(n - 1)))

	postings := make([]*domain.LedgerPosting, 0, in.Installments)
	b := domain.NewPostingBuilder()
	for i := 0; i < in.Installments; i++ {
		amount := share
		if i == in.Installments-1 {
			amount = remainder
		}
		due := in.FirstDueDate.AddDate(0, i, 0)

		b.Reset().
			SetType(domain.PostingFeeInstallment).
			SetDescription(fmt.Sprintf("%s cuota %d/%d", description, i+1, in.Installments)).
			SetDates(due, due).
			SetMetadata("contract_id", in.ContractID).
			SetMetadata("installment", i+1).
			SetMetadata("installments", in.Installments)

		if err := b.AddDebit(ids[0], "Honorarios a cobrar", amount, in.ClientID); err != nil {
			return nil, err
		}
		if err := b.AddCredit(ids[1], "Honorarios devengados", amount, in.ClientID); err != nil {
			return nil, err
		}

		posting, err := b.Build()
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}

	return postings, nil
}

// ServiceExpense books a detected utility expense as recoverable from the
// property and payable to the provider.
func (f *PostingFactory) ServiceExpense(ctx context.Context, expense *domain.DetectedExpense, imputation time.Time) (*domain.LedgerPosting, error) {
	if err := requirePositive("amount", expense.Amount); err != nil {
		return nil, err
	}

	ids, err := f.accounts(ctx, AccountCodeRecoverableExpense, AccountCodeProviderPayable)
	if err != nil {
		return nil, err
	}

	due := imputation
	if expense.DueDate != nil {
		due = *expense.DueDate
	}

	description := fmt.Sprintf("Servicio %s", expense.ServiceID)
	if expense.Period != "" {
		description += " periodo " + expense.Period
	}

	b := domain.NewPostingBuilder().
		SetType(domain.PostingServiceExpense).
		SetDescription(description).
		SetDates(imputation, due).
		SetMetadata("expense_id", expense.ID).
		SetMetadata("communication_id", expense.CommunicationID).
		SetMetadata("property_id", expense.PropertyID)

	if err := b.AddDebit(ids[0], "Gasto a recuperar", expense.Amount, expense.PropertyID); err != nil {
		return nil, err
	}
	if err := b.AddCredit(ids[1], "Proveedor a pagar", expense.Amount, expense.ProviderAgentID); err != nil {
		return nil, err
	}

	return b.Build()
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError(field, "must be positive", domain.ErrInvalidAmount)
	}
	return nil
}
