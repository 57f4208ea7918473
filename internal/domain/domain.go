package domain

// KRIItem is a key risk indicator value for one reporting period, identified
// by the composite key (kri_id, reporting_date). Status moves only through
// the workflow engine, never by direct write.
type KRIItem struct {
	KRIID            int64    `json:"kri_id"`
	ReportingDate    int64    `json:"reporting_date"`
	Name             string   `json:"name"`
	Owner            string   `json:"owner"`
	DataProvider     string   `json:"data_provider"`
	Status           int      `json:"status"`
	Value            *float64 `json:"value,omitempty"`
	WarningThreshold *float64 `json:"warning_threshold,omitempty"`
	LimitThreshold   *float64 `json:"limit_threshold,omitempty"`
	Formula          string   `json:"formula,omitempty"`
	IsCalculated     bool     `json:"is_calculated"`
	CreatedAt        string   `json:"created_at" format:"date-time"`
	UpdatedAt        string   `json:"updated_at" format:"date-time"`
}

// OwnerEqualsProvider reports whether the KRI owner is also its data
// provider, which collapses the two-stage approval into one.
func (k KRIItem) OwnerEqualsProvider() bool {
	return k.Owner != "" && k.Owner == k.DataProvider
}

// AtomicElement is one input of a calculated KRI. It carries its own status
// and value; its permissions are scoped separately from the parent item.
type AtomicElement struct {
	KRIID         int64    `json:"kri_id"`
	ReportingDate int64    `json:"reporting_date"`
	AtomicID      int64    `json:"atomic_id"`
	Name          string   `json:"name,omitempty"`
	Status        int      `json:"status"`
	Value         *float64 `json:"value,omitempty"`
	CreatedAt     string   `json:"created_at" format:"date-time"`
	UpdatedAt     string   `json:"updated_at" format:"date-time"`
}

// PermissionRecord is one stored grant row. Actions is a comma-joined list;
// atomic-scoped entries use the form atomic<id>_<action>. Effect false is an
// explicit deny.
type PermissionRecord struct {
	UserUUID      string `json:"user_uuid"`
	KRIID         int64  `json:"kri_id"`
	ReportingDate int64  `json:"reporting_date"`
	Actions       string `json:"actions"`
	Effect        bool   `json:"effect"`
}

// AuditEntry records one field mutation performed by the engine.
type AuditEntry struct {
	ID            int64  `json:"id"`
	KRIID         int64  `json:"kri_id"`
	ReportingDate int64  `json:"reporting_date"`
	AtomicID      *int64 `json:"atomic_id,omitempty"`
	Action        string `json:"action"`
	FieldName     string `json:"field_name"`
	OldValue      string `json:"old_value,omitempty"`
	NewValue      string `json:"new_value,omitempty"`
	Actor         string `json:"actor"`
	Comment       string `json:"comment,omitempty"`
	TS            string `json:"ts" format:"date-time"`
}

// Evidence is a supporting document reference attached to a KRI period.
type Evidence struct {
	ID            int64  `json:"id"`
	KRIID         int64  `json:"kri_id"`
	ReportingDate int64  `json:"reporting_date"`
	FileName      string `json:"file_name"`
	Link          string `json:"link,omitempty"`
	UploadedBy    string `json:"uploaded_by"`
	TS            string `json:"ts" format:"date-time"`
}

// APIKey authenticates a machine caller as a user UUID.
type APIKey struct {
	ID        string `json:"id"`
	UserUUID  string `json:"user_uuid"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
