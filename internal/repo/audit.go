package repo

import (
	"context"
	"database/sql"

	"riskline/internal/domain"
)

// ListAuditEntries returns the audit trail for one KRI period, newest first.
func (r Repo) ListAuditEntries(ctx context.Context, kriID, reportingDate int64, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT id,kri_id,reporting_date,atomic_id,action,field_name,old_value,new_value,actor,comment,ts
FROM audit_trail WHERE kri_id=? AND reporting_date=? ORDER BY id DESC`
	args := []any{kriID, reportingDate}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var atomicID sql.NullInt64
		var oldValue, newValue, comment sql.NullString
		if err := rows.Scan(&e.ID, &e.KRIID, &e.ReportingDate, &atomicID, &e.Action, &e.FieldName, &oldValue, &newValue, &e.Actor, &comment, &e.TS); err != nil {
			return nil, err
		}
		if atomicID.Valid {
			e.AtomicID = &atomicID.Int64
		}
		if oldValue.Valid {
			e.OldValue = oldValue.String
		}
		if newValue.Valid {
			e.NewValue = newValue.String
		}
		if comment.Valid {
			e.Comment = comment.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
