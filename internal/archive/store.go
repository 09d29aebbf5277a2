package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// timeLayout has a fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Kind    Kind
	Company string
}

// Store persists archives in the archives table.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

// Save inserts a, assigning an id and creation time when they are missing.
func (s *Store) Save(ctx context.Context, a Archive) (Archive, error) {
	if a.Payload == nil {
		return Archive{}, fmt.Errorf("save archive: %w", ErrUnknownType)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.CompanyName = strings.TrimSpace(a.CompanyName)

	data, err := json.Marshal(a.Payload)
	if err != nil {
		return Archive{}, fmt.Errorf("encode archive data: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO archives (id, company_name, type, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.CompanyName, string(a.Kind()), string(data), a.CreatedAt.Format(timeLayout)); err != nil {
		return Archive{}, fmt.Errorf("insert archive: %w", err)
	}
	return a, nil
}

// Get loads one archive by id.
func (s *Store) Get(ctx context.Context, id string) (Archive, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_name, type, data, created_at
		FROM archives
		WHERE id = ?
	`, id)

	var rec record
	err := rec.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Archive{}, ErrNotFound
	}
	if err != nil {
		return Archive{}, fmt.Errorf("query archive: %w", err)
	}
	return rec.decode()
}

// List returns archives matching f, newest first. Company matches as a case-insensitive
// substring. Rows whose data can no longer be decoded are logged and left out.
func (s *Store) List(ctx context.Context, f Filter) ([]Archive, error) {
	query := `SELECT id, company_name, type, data, created_at FROM archives WHERE 1 = 1`
	var args []any
	if f.Kind != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Kind))
	}
	if company := strings.TrimSpace(f.Company); company != "" {
		query += ` AND instr(lower(company_name), lower(?)) > 0`
		args = append(args, company)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}
	defer rows.Close()

	out := []Archive{}
	for rows.Next() {
		var rec record
		if err := rec.scan(rows); err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		a, err := rec.decode()
		if err != nil {
			s.logger.Warn("skipping undecodable archive",
				zap.String("id", rec.id),
				zap.String("type", rec.kind),
				zap.Error(err),
			)
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archives: %w", err)
	}
	return out, nil
}

// Delete removes one archive.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM archives WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete archive: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// record is an archives row before its data is decoded.
type record struct {
	id          string
	companyName string
	kind        string
	data        string
	createdAt   string
}

func (r *record) scan(sc scanner) error {
	return sc.Scan(&r.id, &r.companyName, &r.kind, &r.data, &r.createdAt)
}

func (r record) decode() (Archive, error) {
	k, err := ParseKind(r.kind)
	if err != nil {
		return Archive{}, err
	}
	payload, err := DecodePayload(k, []byte(r.data))
	if err != nil {
		return Archive{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, r.createdAt)
	if err != nil {
		return Archive{}, fmt.Errorf("parse archive created_at: %w", err)
	}
	return Archive{ID: r.id, CompanyName: r.companyName, Payload: payload, CreatedAt: createdAt}, nil
}
