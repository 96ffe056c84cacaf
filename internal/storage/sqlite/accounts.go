package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
)

// maxBalanceAttempts bounds the compare-and-swap loop in ApplyBalanceDelta.
const maxBalanceAttempts = 8

// CreateAccount inserts a new account into the database.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = s.unixNow()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, display_name, roles, balance, reporting_engineer_id,
			assigned_cashier_id, cashier_engineer_id, cashier_location_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.DisplayName,
		account.Roles.String(),
		account.Balance.String(),
		nullString(account.ReportingEngineerID),
		nullString(account.AssignedCashierID),
		nullString(account.CashierEngineerID),
		nullString(account.CashierLocationID),
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccount retrieves an account by its ID.
func (s *SQLiteStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account := &models.Account{}
	var (
		roles, balance                                string
		reporting, cashier, cashierEngineer, location sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, roles, balance, reporting_engineer_id,
			assigned_cashier_id, cashier_engineer_id, cashier_location_id, created_at
		 FROM accounts WHERE id = ?`,
		accountID,
	).Scan(
		&account.ID,
		&account.DisplayName,
		&roles,
		&balance,
		&reporting,
		&cashier,
		&cashierEngineer,
		&location,
		&account.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Roles = models.ParseRoleSet(roles)
	if account.Balance, err = parseDecimal(balance); err != nil {
		return nil, fmt.Errorf("account %s balance: %w", accountID, err)
	}
	account.ReportingEngineerID = reporting.String
	account.AssignedCashierID = cashier.String
	account.CashierEngineerID = cashierEngineer.String
	account.CashierLocationID = location.String

	return account, nil
}

// ListAccountIDsByRole returns the ids of accounts holding role, ordered by id.
func (s *SQLiteStore) ListAccountIDsByRole(ctx context.Context, role models.Role) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, roles FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id, roles string
		if err := rows.Scan(&id, &roles); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if models.ParseRoleSet(roles).Has(role) {
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return ids, nil
}

// ApplyBalanceDelta adds delta to the stored balance with a compare-and-swap
// on the stored text: the write only lands if the balance is still the value
// the delta was computed from. A lost race is retried.
func (s *SQLiteStore) ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	for attempt := 0; attempt < maxBalanceAttempts; attempt++ {
		var stored string
		err := s.db.QueryRowContext(ctx, "SELECT balance FROM accounts WHERE id = ?", accountID).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
		}

		current, err := parseDecimal(stored)
		if err != nil {
			return decimal.Zero, fmt.Errorf("account %s balance: %w", accountID, err)
		}
		next := current.Add(delta)

		result, err := s.db.ExecContext(ctx,
			"UPDATE accounts SET balance = ? WHERE id = ? AND balance = ?",
			next.String(), accountID, stored,
		)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to write balance: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 1 {
			return next, nil
		}
	}

	return decimal.Zero, fmt.Errorf("account %s balance kept changing: %w", accountID, storage.ErrConflict)
}

func parseDecimal(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", v, err)
	}
	return d, nil
}
