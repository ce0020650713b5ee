package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Store persists approval rules.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore creates a rule store.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, log: logger.With("component", "rules")}
}

const ruleColumns = `id, name, description, enabled, priority, rule_type, conditions, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRule(row scanner) (*Rule, error) {
	var (
		r        Rule
		ruleType RuleType
		raw      string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Enabled, &r.Priority, &ruleType, &raw,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}

	c, err := DecodeConditions(ruleType, []byte(raw))
	if err != nil {
		s.log.Warn("stored rule conditions unreadable", "rule_id", r.ID, "type", ruleType, "error", err)
		c = undecodable{ruleType: ruleType, raw: raw}
	}
	r.Conditions = c
	return &r, nil
}

// Create validates and inserts a rule, assigning its ID.
func (s *Store) Create(ctx context.Context, r *Rule) error {
	if err := Validate(r); err != nil {
		return err
	}
	raw, err := EncodeConditions(r.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO approval_rules (name, description, enabled, priority, rule_type, conditions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Description, r.Enabled, r.Priority, r.Type(), string(raw), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	if r.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// Get retrieves a rule by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Rule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM approval_rules WHERE id = ?`, id)
	r, err := s.scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule %d: %w", id, err)
	}
	return r, nil
}

// List returns every rule ordered by evaluation precedence:
// priority descending, then ID ascending.
func (s *Store) List(ctx context.Context) ([]*Rule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM approval_rules ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Rule
	for rows.Next() {
		r, err := s.scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update replaces a rule's mutable fields. The rule type may change along
// with its conditions.
func (s *Store) Update(ctx context.Context, r *Rule) error {
	if err := Validate(r); err != nil {
		return err
	}
	raw, err := EncodeConditions(r.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE approval_rules SET name = ?, description = ?, enabled = ?, priority = ?,
			rule_type = ?, conditions = ?, updated_at = ?
		WHERE id = ?`,
		r.Name, r.Description, r.Enabled, r.Priority, r.Type(), string(raw), now, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule %d: %w", r.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	r.UpdatedAt = now
	return nil
}

// SetEnabled toggles a rule without touching its conditions.
func (s *Store) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE approval_rules SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set rule %d enabled: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a rule.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM approval_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
