package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stanstork/leadwatch-api/internal/models"
)

type LeadRepository interface {
	Create(ctx context.Context, lead models.Lead) (models.Lead, error)
	Get(ctx context.Context, scope, leadID string) (models.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]models.Lead, error)
	ListSalesmanIDs(ctx context.Context) ([]string, error)
	ListOpenBySalesman(ctx context.Context, salesmanID string) ([]models.Lead, error)
	UpdateStatus(ctx context.Context, scope, leadID string, status models.LeadStatus) (models.Lead, error)
	UpdateCallStatus(ctx context.Context, scope, leadID string, status models.CallStatus) (models.Lead, error)
}

// LeadFilter narrows List. An empty SalesmanID lists every salesman's leads.
type LeadFilter struct {
	SalesmanID string
	Status     models.LeadStatus
	Limit      int
	Offset     int
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, salesman_id, name, company, email, phone, status, call_status, last_contact, created_at, updated_at`

var closedStatuses = []string{string(models.LeadStatusClosedWon), string(models.LeadStatusClosedLost)}

func (r *leadRepository) Create(ctx context.Context, lead models.Lead) (models.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusProspect
	}
	if lead.CallStatus == "" {
		lead.CallStatus = models.CallStatusNotCalled
	}

	query := `
		INSERT INTO leads (id, salesman_id, name, company, email, phone, status, call_status, last_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + leadColumns

	row := r.db.QueryRowContext(ctx, query,
		lead.ID,
		strings.TrimSpace(lead.SalesmanID),
		strings.TrimSpace(lead.Name),
		strings.TrimSpace(lead.Company),
		nullString(lead.Email),
		nullString(lead.Phone),
		lead.Status,
		lead.CallStatus,
		lead.LastContact,
	)
	return scanLead(row)
}

// Get loads one lead. A non-empty scope restricts the lookup to that salesman.
func (r *leadRepository) Get(ctx context.Context, scope, leadID string) (models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE id = $1 AND ($2 = '' OR salesman_id = $2)`
	return scanLead(r.db.QueryRowContext(ctx, query, leadID, strings.TrimSpace(scope)))
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	filter.Limit = clampLimit(filter.Limit, DefaultLeadLimit, MaxLeadLimit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE ($1 = '' OR salesman_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY updated_at DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(filter.SalesmanID), string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (r *leadRepository) ListSalesmanIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT salesman_id FROM leads ORDER BY salesman_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListOpenBySalesman returns the salesman's pipeline leads, oldest contact
// first, so notification samples always lead with the most neglected ones.
func (r *leadRepository) ListOpenBySalesman(ctx context.Context, salesmanID string) ([]models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE salesman_id = $1 AND status <> ALL($2)
		ORDER BY last_contact ASC NULLS LAST, created_at ASC, id`

	rows, err := r.db.QueryContext(ctx, query, salesmanID, pq.Array(closedStatuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (r *leadRepository) UpdateStatus(ctx context.Context, scope, leadID string, status models.LeadStatus) (models.Lead, error) {
	query := `
		UPDATE leads
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND ($2 = '' OR salesman_id = $2)
		RETURNING ` + leadColumns
	return scanLead(r.db.QueryRowContext(ctx, query, leadID, strings.TrimSpace(scope), status))
}

// UpdateCallStatus records a call outcome. Any outcome other than not_called
// counts as contact and moves last_contact forward.
func (r *leadRepository) UpdateCallStatus(ctx context.Context, scope, leadID string, status models.CallStatus) (models.Lead, error) {
	query := `
		UPDATE leads
		SET call_status = $3,
		    last_contact = CASE WHEN $3 = 'not_called' THEN last_contact ELSE NOW() END,
		    updated_at = NOW()
		WHERE id = $1 AND ($2 = '' OR salesman_id = $2)
		RETURNING ` + leadColumns
	return scanLead(r.db.QueryRowContext(ctx, query, leadID, strings.TrimSpace(scope), status))
}

func collectLeads(rows *sql.Rows) ([]models.Lead, error) {
	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leads, nil
}

func scanLead(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Lead, error) {
	var (
		lead        models.Lead
		email       sql.NullString
		phone       sql.NullString
		lastContact sql.NullTime
	)
	if err := scanner.Scan(
		&lead.ID,
		&lead.SalesmanID,
		&lead.Name,
		&lead.Company,
		&email,
		&phone,
		&lead.Status,
		&lead.CallStatus,
		&lastContact,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return models.Lead{}, err
	}

	// Optional contact fields default to empty strings.
	lead.Email = email.String
	lead.Phone = phone.String
	if lastContact.Valid {
		t := lastContact.Time
		lead.LastContact = &t
	}
	return lead, nil
}

func nullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.TrimSpace(s)
}
