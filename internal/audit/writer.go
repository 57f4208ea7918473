package audit

import (
	"context"
	"database/sql"
	"time"

	"riskline/internal/domain"
)

// Writer appends audit trail entries. Audit writes are best-effort by
// policy: callers log failures instead of failing the primary mutation.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Append inserts one audit entry outside any caller transaction.
func (w Writer) Append(ctx context.Context, e domain.AuditEntry) error {
	if e.TS == "" {
		now := time.Now
		if w.Now != nil {
			now = w.Now
		}
		e.TS = now().UTC().Format(time.RFC3339)
	}
	_, err := w.DB.ExecContext(ctx, `INSERT INTO audit_trail(kri_id,reporting_date,atomic_id,action,field_name,old_value,new_value,actor,comment,ts)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		e.KRIID, e.ReportingDate, nullableInt64Ptr(e.AtomicID), e.Action, e.FieldName,
		nullable(e.OldValue), nullable(e.NewValue), e.Actor, nullable(e.Comment), e.TS)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
