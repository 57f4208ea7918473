package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"riskline/internal/domain"
)

// Repo is the persistence collaborator: reads and writes keyed by
// (kri_id, reporting_date[, atomic_id]).
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const itemColumns = `kri_id,reporting_date,name,owner,data_provider,status,value,warning_threshold,limit_threshold,formula,is_calculated,created_at,updated_at`

func scanItem(scan func(dest ...any) error) (domain.KRIItem, error) {
	var k domain.KRIItem
	var status sql.NullInt64
	var value, warn, limit sql.NullFloat64
	var formula sql.NullString
	err := scan(&k.KRIID, &k.ReportingDate, &k.Name, &k.Owner, &k.DataProvider, &status, &value, &warn, &limit, &formula, &k.IsCalculated, &k.CreatedAt, &k.UpdatedAt)
	if err == sql.ErrNoRows {
		return k, ErrNotFound
	}
	if err != nil {
		return k, err
	}
	if status.Valid {
		k.Status = int(status.Int64)
	}
	if value.Valid {
		k.Value = &value.Float64
	}
	if warn.Valid {
		k.WarningThreshold = &warn.Float64
	}
	if limit.Valid {
		k.LimitThreshold = &limit.Float64
	}
	if formula.Valid {
		k.Formula = formula.String
	}
	return k, nil
}

func (r Repo) InsertItem(ctx context.Context, k domain.KRIItem) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO kri_items(`+itemColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		k.KRIID, k.ReportingDate, k.Name, k.Owner, k.DataProvider, nullableInt(k.Status), nullableFloatPtr(k.Value),
		nullableFloatPtr(k.WarningThreshold), nullableFloatPtr(k.LimitThreshold), nullable(k.Formula), k.IsCalculated,
		k.CreatedAt, k.UpdatedAt)
	return err
}

func (r Repo) GetItem(ctx context.Context, kriID, reportingDate int64) (domain.KRIItem, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM kri_items WHERE kri_id=? AND reporting_date=?`, kriID, reportingDate)
	return scanItem(row.Scan)
}

// GetItemStatusTx reads just the status inside a transaction, for the
// compare-and-swap before a workflow update.
func (r Repo) GetItemStatusTx(ctx context.Context, tx *sql.Tx, kriID, reportingDate int64) (int, error) {
	var status sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT status FROM kri_items WHERE kri_id=? AND reporting_date=?`, kriID, reportingDate).Scan(&status)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return int(status.Int64), nil
}

type ItemFilters struct {
	ReportingDate int64
	Status        int
	Owner         string
	Limit         int
}

func (r Repo) ListItems(ctx context.Context, f ItemFilters) ([]domain.KRIItem, error) {
	var clauses []string
	var args []any
	if f.ReportingDate != 0 {
		clauses = append(clauses, "reporting_date=?")
		args = append(args, f.ReportingDate)
	}
	if f.Status != 0 {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Owner != "" {
		clauses = append(clauses, "owner=?")
		args = append(args, f.Owner)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + itemColumns + ` FROM kri_items ` + where + ` ORDER BY reporting_date DESC, kri_id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.KRIItem
	for rows.Next() {
		k, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, rows.Err()
}

// ItemFields are the mutable fields a workflow action may write.
type ItemFields struct {
	Status    *int
	Value     *float64
	UpdatedAt string
}

// UpdateItemTx writes the given fields for one item inside a transaction.
func (r Repo) UpdateItemTx(ctx context.Context, tx *sql.Tx, kriID, reportingDate int64, fields ItemFields) error {
	var sets []string
	var args []any
	if fields.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *fields.Status)
	}
	if fields.Value != nil {
		sets = append(sets, "value=?")
		args = append(args, *fields.Value)
	}
	if len(sets) == 0 {
		return nil
	}
	if fields.UpdatedAt != "" {
		sets = append(sets, "updated_at=?")
		args = append(args, fields.UpdatedAt)
	}
	args = append(args, kriID, reportingDate)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE kri_items SET %s WHERE kri_id=? AND reporting_date=?`, strings.Join(sets, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const atomicColumns = `kri_id,reporting_date,atomic_id,name,status,value,created_at,updated_at`

func scanAtomic(scan func(dest ...any) error) (domain.AtomicElement, error) {
	var a domain.AtomicElement
	var name sql.NullString
	var status sql.NullInt64
	var value sql.NullFloat64
	err := scan(&a.KRIID, &a.ReportingDate, &a.AtomicID, &name, &status, &value, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if name.Valid {
		a.Name = name.String
	}
	if status.Valid {
		a.Status = int(status.Int64)
	}
	if value.Valid {
		a.Value = &value.Float64
	}
	return a, nil
}

func (r Repo) InsertAtomic(ctx context.Context, a domain.AtomicElement) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO atomic_elements(`+atomicColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		a.KRIID, a.ReportingDate, a.AtomicID, nullable(a.Name), nullableInt(a.Status), nullableFloatPtr(a.Value), a.CreatedAt, a.UpdatedAt)
	return err
}

func (r Repo) GetAtomic(ctx context.Context, kriID, reportingDate, atomicID int64) (domain.AtomicElement, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+atomicColumns+` FROM atomic_elements WHERE kri_id=? AND reporting_date=? AND atomic_id=?`,
		kriID, reportingDate, atomicID)
	return scanAtomic(row.Scan)
}

func (r Repo) GetAtomicStatusTx(ctx context.Context, tx *sql.Tx, kriID, reportingDate, atomicID int64) (int, error) {
	var status sql.NullInt64
	err := tx.QueryRowContext(ctx, `SELECT status FROM atomic_elements WHERE kri_id=? AND reporting_date=? AND atomic_id=?`,
		kriID, reportingDate, atomicID).Scan(&status)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return int(status.Int64), nil
}

func (r Repo) ListAtomics(ctx context.Context, kriID, reportingDate int64) ([]domain.AtomicElement, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+atomicColumns+` FROM atomic_elements WHERE kri_id=? AND reporting_date=? ORDER BY atomic_id ASC`,
		kriID, reportingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AtomicElement
	for rows.Next() {
		a, err := scanAtomic(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// UpdateAtomicTx writes the given fields for one atomic element inside a
// transaction.
func (r Repo) UpdateAtomicTx(ctx context.Context, tx *sql.Tx, kriID, reportingDate, atomicID int64, fields ItemFields) error {
	var sets []string
	var args []any
	if fields.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, *fields.Status)
	}
	if fields.Value != nil {
		sets = append(sets, "value=?")
		args = append(args, *fields.Value)
	}
	if len(sets) == 0 {
		return nil
	}
	if fields.UpdatedAt != "" {
		sets = append(sets, "updated_at=?")
		args = append(args, fields.UpdatedAt)
	}
	args = append(args, kriID, reportingDate, atomicID)
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE atomic_elements SET %s WHERE kri_id=? AND reporting_date=? AND atomic_id=?`, strings.Join(sets, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
