package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/mailrecon/internal/domain"
	"github.com/iho/mailrecon/internal/usecase"
)

const communicationColumns = `id, message_id, provider_fiscal_id, provider_name, sender, subject, body,
	alert_type, service_id, estimated_amount, due_date, period, status, expense_id,
	provider_agent_id, property_ids, notes, received_at, created_at, updated_at`

// CommunicationRepository implements usecase.CommunicationRepository.
type CommunicationRepository struct {
	db querier
}

// NewCommunicationRepository creates a new CommunicationRepository.
func NewCommunicationRepository(pool *pgxpool.Pool) *CommunicationRepository {
	return &CommunicationRepository{db: pool}
}

// Create inserts a communication. A repeated message id yields domain.ErrDuplicateEvent.
func (r *CommunicationRepository) Create(ctx context.Context, tx usecase.Transaction, c *domain.ServiceCommunication) error {
	propertyIDs := c.PropertyIDs
	if propertyIDs == nil {
		propertyIDs = []string{}
	}

	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO service_communications (`+communicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		c.ID, c.MessageID, c.ProviderFiscalID, c.ProviderName, c.Sender, c.Subject, c.Body,
		string(c.AlertType), c.ServiceID, c.EstimatedAmount, c.DueDate, c.Period, string(c.Status), c.ExpenseID,
		c.ProviderAgentID, propertyIDs, c.Notes, c.ReceivedAt, c.CreatedAt, c.UpdatedAt,
	)
	return mapInsertError(err)
}

// ExistsByMessageID reports whether a communication with the message id is stored.
func (r *CommunicationRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM service_communications WHERE message_id = $1)`,
		messageID,
	).Scan(&exists)
	return exists, err
}

// GetByID retrieves a communication by ID.
func (r *CommunicationRepository) GetByID(ctx context.Context, id string) (*domain.ServiceCommunication, error) {
	row := r.db.QueryRow(ctx, `SELECT `+communicationColumns+` FROM service_communications WHERE id = $1`, id)
	c, err := scanCommunication(row)
	if err != nil {
		return nil, notFound(err, domain.ErrCommunicationNotFound)
	}
	return c, nil
}

// List returns communications newest first, optionally filtered by status.
func (r *CommunicationRepository) List(ctx context.Context, filter domain.CommunicationFilter) ([]*domain.ServiceCommunication, error) {
	query := `SELECT ` + communicationColumns + ` FROM service_communications`
	args := []any{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " WHERE status = $1"
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comms := make([]*domain.ServiceCommunication, 0)
	for rows.Next() {
		c, err := scanCommunication(rows)
		if err != nil {
			return nil, err
		}
		comms = append(comms, c)
	}
	return comms, rows.Err()
}

func scanCommunication(row pgx.Row) (*domain.ServiceCommunication, error) {
	var (
		c         domain.ServiceCommunication
		alertType string
		status    string
		amount    decimal.NullDecimal
	)
	err := row.Scan(
		&c.ID, &c.MessageID, &c.ProviderFiscalID, &c.ProviderName, &c.Sender, &c.Subject, &c.Body,
		&alertType, &c.ServiceID, &amount, &c.DueDate, &c.Period, &status, &c.ExpenseID,
		&c.ProviderAgentID, &c.PropertyIDs, &c.Notes, &c.ReceivedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AlertType = domain.AlertType(alertType)
	c.Status = domain.CommunicationStatus(status)
	if amount.Valid {
		c.EstimatedAmount = &amount.Decimal
	}
	return &c, nil
}
