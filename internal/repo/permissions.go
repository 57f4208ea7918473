package repo

import (
	"context"

	"riskline/internal/domain"
)

// ReadPermissions returns every permission record for a user, across all
// KRI periods. Action lists stay comma-joined here; the permission index
// parses them once.
func (r Repo) ReadPermissions(ctx context.Context, userUUID string) ([]domain.PermissionRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_uuid,kri_id,reporting_date,actions,effect FROM permission_records WHERE user_uuid=?`, userUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PermissionRecord
	for rows.Next() {
		var p domain.PermissionRecord
		if err := rows.Scan(&p.UserUUID, &p.KRIID, &p.ReportingDate, &p.Actions, &p.Effect); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// UpsertPermission replaces the action list for one (user, kri, date,
// effect) row.
func (r Repo) UpsertPermission(ctx context.Context, p domain.PermissionRecord) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO permission_records(user_uuid,kri_id,reporting_date,actions,effect) VALUES (?,?,?,?,?)
ON CONFLICT(user_uuid,kri_id,reporting_date,effect) DO UPDATE SET actions=excluded.actions`,
		p.UserUUID, p.KRIID, p.ReportingDate, p.Actions, p.Effect)
	return err
}

// RevokePermissions deletes every record for a user on one KRI period.
func (r Repo) RevokePermissions(ctx context.Context, userUUID string, kriID, reportingDate int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM permission_records WHERE user_uuid=? AND kri_id=? AND reporting_date=?`,
		userUUID, kriID, reportingDate)
	return err
}

// ListPermissions returns records for one KRI period across users, for the
// admin surface.
func (r Repo) ListPermissions(ctx context.Context, kriID, reportingDate int64) ([]domain.PermissionRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_uuid,kri_id,reporting_date,actions,effect FROM permission_records WHERE kri_id=? AND reporting_date=? ORDER BY user_uuid`,
		kriID, reportingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PermissionRecord
	for rows.Next() {
		var p domain.PermissionRecord
		if err := rows.Scan(&p.UserUUID, &p.KRIID, &p.ReportingDate, &p.Actions, &p.Effect); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
