package repo

import (
	"context"
	"database/sql"

	"riskline/internal/domain"
)

// InsertEvidence records an evidence reference and returns its id.
func (r Repo) InsertEvidence(ctx context.Context, ev domain.Evidence) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO evidence(kri_id,reporting_date,file_name,link,uploaded_by,ts) VALUES (?,?,?,?,?,?)`,
		ev.KRIID, ev.ReportingDate, ev.FileName, nullable(ev.Link), ev.UploadedBy, ev.TS)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteEvidence removes an evidence row scoped to its KRI period.
func (r Repo) DeleteEvidence(ctx context.Context, kriID, reportingDate, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM evidence WHERE id=? AND kri_id=? AND reporting_date=?`, id, kriID, reportingDate)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEvidence returns evidence references for one KRI period, newest first.
func (r Repo) ListEvidence(ctx context.Context, kriID, reportingDate int64) ([]domain.Evidence, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,kri_id,reporting_date,file_name,link,uploaded_by,ts FROM evidence
WHERE kri_id=? AND reporting_date=? ORDER BY id DESC`, kriID, reportingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Evidence
	for rows.Next() {
		var ev domain.Evidence
		var link sql.NullString
		if err := rows.Scan(&ev.ID, &ev.KRIID, &ev.ReportingDate, &ev.FileName, &link, &ev.UploadedBy, &ev.TS); err != nil {
			return nil, err
		}
		if link.Valid {
			ev.Link = link.String
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}
