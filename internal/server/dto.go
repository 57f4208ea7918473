package server

import (
	"riskline/internal/action"
	"riskline/internal/domain"
	"riskline/internal/engine"
)

// Request payloads

type DevLoginRequest struct {
	UserUUID string `json:"user_uuid"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

type WhoAmIResponse struct {
	UserUUID string `json:"user_uuid"`
	Source   string `json:"source"`
	Admin    bool   `json:"admin"`
}

type CreateKRIRequest struct {
	KRIID            int64    `json:"kri_id"`
	ReportingDate    int64    `json:"reporting_date"`
	Name             string   `json:"name" required:"false"`
	Owner            string   `json:"owner" required:"false"`
	DataProvider     string   `json:"data_provider" required:"false"`
	Status           *int     `json:"status,omitempty"`
	Value            *float64 `json:"value,omitempty"`
	WarningThreshold *float64 `json:"warning_threshold,omitempty"`
	LimitThreshold   *float64 `json:"limit_threshold,omitempty"`
	Formula          string   `json:"formula,omitempty"`
	IsCalculated     bool     `json:"is_calculated,omitempty"`
}

type CreateAtomicRequest struct {
	AtomicID int64    `json:"atomic_id"`
	Name     string   `json:"name,omitempty"`
	Status   *int     `json:"status,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

type GrantPermissionRequest struct {
	UserUUID string `json:"user_uuid"`
	Actions  string `json:"actions"`
	Effect   *bool  `json:"effect,omitempty"`
}

type ExecuteActionRequest struct {
	Value            *float64 `json:"value,omitempty"`
	Comment          string   `json:"comment,omitempty"`
	EvidenceFileName string   `json:"evidence_file_name,omitempty"`
	EvidenceLink     string   `json:"evidence_link,omitempty"`
	EvidenceID       int64    `json:"evidence_id,omitempty"`
}

type BulkActionRequest struct {
	Action  string               `json:"action"`
	Targets []engine.BulkTarget  `json:"targets"`
	Data    ExecuteActionRequest `json:"data,omitempty"`
}

type BulkTargetsRequest struct {
	Targets []engine.BulkTarget `json:"targets"`
}

// Response payloads

type KRIListResponse struct {
	Items []domain.KRIItem `json:"items"`
}

type KRIDetailResponse struct {
	Item    domain.KRIItem         `json:"item"`
	Atomics []domain.AtomicElement `json:"atomics,omitempty"`
}

type AuditResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
}

type EvidenceResponse struct {
	Evidence []domain.Evidence `json:"evidence"`
}

type PermissionsResponse struct {
	Records []domain.PermissionRecord `json:"records"`
}

type BulkActionResponse struct {
	Results []engine.BulkItemResult `json:"results"`
}

type CommonActionsResponse struct {
	Actions []action.Action `json:"actions"`
}

func (r ExecuteActionRequest) actionData() engine.ActionData {
	return engine.ActionData{
		Value:            r.Value,
		Comment:          r.Comment,
		EvidenceFileName: r.EvidenceFileName,
		EvidenceLink:     r.EvidenceLink,
		EvidenceID:       r.EvidenceID,
	}
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
