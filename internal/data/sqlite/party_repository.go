package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/platform/persistence"
)

// PartyRepository implements entity.PartyRepository for SQLite.
type PartyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPartyRepository creates a new SQLite party repository.
func NewPartyRepository(logger *slog.Logger, db *persistence.SQLiteDB) *PartyRepository {
	return &PartyRepository{querier: db.DB(), logger: logger}
}

// WithTx wraps the repository with a transaction.
func (r *PartyRepository) WithTx(tx *sql.Tx) entity.PartyRepository {
	return &PartyRepository{querier: tx, logger: r.logger}
}

// Create stores a new party and assigns its id.
func (r *PartyRepository) Create(ctx context.Context, p *entity.Party) error {
	query := `
		INSERT INTO party (kind, name, email, balance, is_active)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := r.querier.ExecContext(ctx, query, string(p.Kind), p.Name, p.Email, p.Balance.String(), p.IsActive)
	if err != nil {
		r.logger.Error("Failed to create party", "name", p.Name, "error", err)
		return fmt.Errorf("failed to create party: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted party id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByID retrieves a party by its id.
func (r *PartyRepository) GetByID(ctx context.Context, id int64) (*entity.Party, error) {
	query := `SELECT id, kind, name, email, balance, is_active FROM party WHERE id = ?`

	p, err := r.scanParty(r.querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrPartyNotFound{PartyID: id}
		}
		r.logger.Error("Failed to get party", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get party: %w", err)
	}
	return p, nil
}

// Update updates an existing party.
func (r *PartyRepository) Update(ctx context.Context, p *entity.Party) error {
	query := `
		UPDATE party
		SET kind = ?, name = ?, email = ?, balance = ?, is_active = ?
		WHERE id = ?
	`

	res, err := r.querier.ExecContext(ctx, query, string(p.Kind), p.Name, p.Email, p.Balance.String(), p.IsActive, p.ID)
	if err != nil {
		r.logger.Error("Failed to update party", "id", p.ID, "error", err)
		return fmt.Errorf("failed to update party: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrPartyNotFound{PartyID: p.ID}
	}
	return nil
}

// List returns parties of one kind, or all parties when kind is empty.
func (r *PartyRepository) List(ctx context.Context, kind entity.PartyKind) ([]*entity.Party, error) {
	query := `SELECT id, kind, name, email, balance, is_active FROM party`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY id`

	rows, err := r.querier.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list parties", "error", err)
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer rows.Close()

	var parties []*entity.Party
	for rows.Next() {
		p, err := r.scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	return parties, nil
}

func (r *PartyRepository) scanParty(row rowScanner) (*entity.Party, error) {
	var (
		p       entity.Party
		kind    string
		email   sql.NullString
		balance sql.NullString
	)
	if err := row.Scan(&p.ID, &kind, &p.Name, &email, &balance, &p.IsActive); err != nil {
		return nil, err
	}
	p.Kind = entity.PartyKind(kind)
	p.Email = email.String

	bal, err := parseDecimal(balance)
	if err != nil {
		return nil, err
	}
	p.Balance = bal
	return &p, nil
}
