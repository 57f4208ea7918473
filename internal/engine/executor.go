package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"riskline/internal/action"
	"riskline/internal/domain"
	"riskline/internal/permission"
	"riskline/internal/repo"
)

// Failure codes of the executor's error taxonomy.
const (
	CodeActionNotAvailable = "ACTION_NOT_AVAILABLE"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeExecutionError     = "EXECUTION_ERROR"
)

// ActionData carries the caller-supplied inputs for one action execution.
type ActionData struct {
	Value            *float64 `json:"value,omitempty"`
	Comment          string   `json:"comment,omitempty"`
	EvidenceFileName string   `json:"evidence_file_name,omitempty"`
	EvidenceLink     string   `json:"evidence_link,omitempty"`
	EvidenceID       int64    `json:"evidence_id,omitempty"`
}

// Result is the structured outcome of one action execution. Execute never
// returns an error; failures are carried here.
type Result struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func success(data map[string]any, message string) Result {
	return Result{Success: true, Data: data, Message: message}
}

func failure(code, message string) Result {
	return Result{Success: false, Code: code, Error: message, Message: message}
}

type handlerFunc func(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result

// handlers is the fixed dispatch table; there is no handler-name synthesis.
var handlers = map[string]handlerFunc{
	permission.ActionSave:           transitionHandler,
	permission.ActionSubmit:         transitionHandler,
	permission.ActionApprove:        transitionHandler,
	permission.ActionReject:         transitionHandler,
	permission.ActionReview:         transitionHandler,
	permission.ActionAcknowledge:    transitionHandler,
	permission.ActionEdit:           noopHandler,
	permission.ActionEditAtomic:     noopHandler,
	permission.ActionUploadEvidence: uploadEvidenceHandler,
	permission.ActionDeleteEvidence: deleteEvidenceHandler,
	permission.ActionViewDetail:     viewDetailHandler,
	permission.ActionViewAuditTrail: viewAuditTrailHandler,
	permission.ActionCalculateKRI:   calculateHandler,
}

// Execute validates and performs one named action against the context's
// item. Preconditions run before any mutation; the primary mutation and its
// audit entries are issued sequentially, with audit failures logged, never
// escalated.
func (e Engine) Execute(ctx context.Context, actionName string, op OperationContext, data ActionData) Result {
	act, ok := findAvailable(op, actionName)
	if !ok {
		return failure(CodeActionNotAvailable, fmt.Sprintf("action %s is not available in status %d", actionName, op.CurrentStatus))
	}
	if act.RequiresComment && strings.TrimSpace(data.Comment) == "" {
		return failure(CodeValidationFailed, fmt.Sprintf("action %s requires a comment", actionName))
	}
	if actionName == permission.ActionSave && data.Value == nil {
		return failure(CodeValidationFailed, "save requires a value")
	}
	h, ok := handlers[actionName]
	if !ok {
		return failure(CodeExecutionError, fmt.Sprintf("no handler for action %s", actionName))
	}
	return h(e, ctx, op, act, data)
}

func findAvailable(op OperationContext, name string) (action.Action, bool) {
	for _, a := range op.Available {
		if a.Name == name {
			return a, true
		}
	}
	return action.Action{}, false
}

// transitionHandler applies the resolved next status (and, for save, the new
// value) under a compare-and-swap on the status the context was built from.
func transitionHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	if act.NextStatus == nil {
		return failure(CodeActionNotAvailable, fmt.Sprintf("action %s does not apply in status %d", act.Name, op.CurrentStatus))
	}
	newStatus := int(*act.NextStatus)
	fields := repo.ItemFields{Status: &newStatus, UpdatedAt: e.now().UTC().Format(time.RFC3339)}
	oldValue := op.Item.Value
	if op.Atomic != nil {
		oldValue = op.Atomic.Value
	}
	if act.Name == permission.ActionSave && data.Value != nil {
		fields.Value = data.Value
	}
	if res, ok := e.applyFields(ctx, op, fields); !ok {
		return res
	}

	entries := []domain.AuditEntry{{
		Action:    act.Name,
		FieldName: "status",
		OldValue:  strconv.Itoa(int(op.CurrentStatus)),
		NewValue:  strconv.Itoa(newStatus),
	}}
	if fields.Value != nil {
		entries = append(entries, domain.AuditEntry{
			Action:    act.Name,
			FieldName: "value",
			OldValue:  formatValue(oldValue),
			NewValue:  formatValue(fields.Value),
		})
	}
	e.appendAudit(ctx, op, data.Comment, entries)

	resultData := map[string]any{
		"kri_id":         op.Item.KRIID,
		"reporting_date": op.Item.ReportingDate,
		"status":         newStatus,
	}
	if op.Atomic != nil {
		resultData["atomic_id"] = op.Atomic.AtomicID
	}
	return success(resultData, fmt.Sprintf("%s completed, status %d", act.Name, newStatus))
}

// applyFields runs the primary mutation in a transaction. Inside the
// transaction the stored status is re-read and compared against the status
// the context was built from; a mismatch means the context is stale.
func (e Engine) applyFields(ctx context.Context, op OperationContext, fields repo.ItemFields) (Result, bool) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return failure(CodeExecutionError, err.Error()), false
	}
	defer tx.Rollback()

	var stored int
	if op.Atomic != nil {
		stored, err = e.Repo.GetAtomicStatusTx(ctx, tx, op.Item.KRIID, op.Item.ReportingDate, op.Atomic.AtomicID)
	} else {
		stored, err = e.Repo.GetItemStatusTx(ctx, tx, op.Item.KRIID, op.Item.ReportingDate)
	}
	if err != nil {
		return failure(CodeExecutionError, err.Error()), false
	}
	if stored == 0 {
		stored = int(e.effectiveStatus(0, op.Item.KRIID, op.Item.ReportingDate, atomicID(op)))
	}
	if stored != int(op.CurrentStatus) {
		return failure(CodeExecutionError, fmt.Sprintf("status changed since context was built (was %d, now %d)", op.CurrentStatus, stored)), false
	}
	if op.Atomic != nil {
		err = e.Repo.UpdateAtomicTx(ctx, tx, op.Item.KRIID, op.Item.ReportingDate, op.Atomic.AtomicID, fields)
	} else {
		err = e.Repo.UpdateItemTx(ctx, tx, op.Item.KRIID, op.Item.ReportingDate, fields)
	}
	if err != nil {
		return failure(CodeExecutionError, err.Error()), false
	}
	if err := tx.Commit(); err != nil {
		return failure(CodeExecutionError, err.Error()), false
	}
	return Result{}, true
}

// appendAudit writes audit entries after the primary mutation committed.
// Failures are logged, never surfaced: durability of the state change is
// prioritized over audit completeness.
func (e Engine) appendAudit(ctx context.Context, op OperationContext, comment string, entries []domain.AuditEntry) {
	for _, entry := range entries {
		entry.KRIID = op.Item.KRIID
		entry.ReportingDate = op.Item.ReportingDate
		if op.Atomic != nil {
			id := op.Atomic.AtomicID
			entry.AtomicID = &id
		}
		entry.Actor = op.UserUUID
		entry.Comment = comment
		entry.TS = e.now().UTC().Format(time.RFC3339)
		if err := e.Audit.Append(ctx, entry); err != nil {
			e.logf("audit: append %s/%s for kri=%d date=%d failed: %v",
				entry.Action, entry.FieldName, entry.KRIID, entry.ReportingDate, err)
		}
	}
}

func noopHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	return success(map[string]any{
		"kri_id":         op.Item.KRIID,
		"reporting_date": op.Item.ReportingDate,
	}, fmt.Sprintf("%s enabled", act.Name))
}

func uploadEvidenceHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	if strings.TrimSpace(data.EvidenceFileName) == "" {
		return failure(CodeValidationFailed, "uploadEvidence requires a file name")
	}
	ev := domain.Evidence{
		KRIID:         op.Item.KRIID,
		ReportingDate: op.Item.ReportingDate,
		FileName:      data.EvidenceFileName,
		Link:          data.EvidenceLink,
		UploadedBy:    op.UserUUID,
		TS:            e.now().UTC().Format(time.RFC3339),
	}
	id, err := e.Repo.InsertEvidence(ctx, ev)
	if err != nil {
		return failure(CodeExecutionError, err.Error())
	}
	e.appendAudit(ctx, op, data.Comment, []domain.AuditEntry{{
		Action:    act.Name,
		FieldName: "evidence",
		NewValue:  data.EvidenceFileName,
	}})
	return success(map[string]any{"evidence_id": id}, "evidence recorded")
}

func deleteEvidenceHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	if data.EvidenceID == 0 {
		return failure(CodeValidationFailed, "deleteEvidence requires an evidence id")
	}
	if err := e.Repo.DeleteEvidence(ctx, op.Item.KRIID, op.Item.ReportingDate, data.EvidenceID); err != nil {
		return failure(CodeExecutionError, err.Error())
	}
	e.appendAudit(ctx, op, data.Comment, []domain.AuditEntry{{
		Action:    act.Name,
		FieldName: "evidence",
		OldValue:  strconv.FormatInt(data.EvidenceID, 10),
	}})
	return success(nil, "evidence deleted")
}

func viewDetailHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	resultData := map[string]any{"item": op.Item}
	if op.Atomic != nil {
		resultData["atomic"] = op.Atomic
	} else if op.Item.IsCalculated {
		atomics, err := e.Repo.ListAtomics(ctx, op.Item.KRIID, op.Item.ReportingDate)
		if err != nil {
			return failure(CodeExecutionError, err.Error())
		}
		resultData["atomics"] = atomics
	}
	return success(resultData, "")
}

func viewAuditTrailHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	entries, err := e.Repo.ListAuditEntries(ctx, op.Item.KRIID, op.Item.ReportingDate, 0)
	if err != nil {
		return failure(CodeExecutionError, err.Error())
	}
	return success(map[string]any{"entries": entries}, "")
}

// calculateHandler recomputes a calculated KRI's value as the sum of its
// atomic values. Formula text is recorded on the item but not interpreted.
func calculateHandler(e Engine, ctx context.Context, op OperationContext, act action.Action, data ActionData) Result {
	if !op.Item.IsCalculated {
		return failure(CodeValidationFailed, "calculateKRI applies only to calculated KRIs")
	}
	atomics, err := e.Repo.ListAtomics(ctx, op.Item.KRIID, op.Item.ReportingDate)
	if err != nil {
		return failure(CodeExecutionError, err.Error())
	}
	var sum float64
	counted := 0
	for _, a := range atomics {
		if a.Value != nil {
			sum += *a.Value
			counted++
		}
	}
	if counted == 0 {
		return failure(CodeValidationFailed, "no atomic values to calculate from")
	}
	fields := repo.ItemFields{Value: &sum, UpdatedAt: e.now().UTC().Format(time.RFC3339)}
	if res, ok := e.applyFields(ctx, op, fields); !ok {
		return res
	}
	e.appendAudit(ctx, op, data.Comment, []domain.AuditEntry{{
		Action:    act.Name,
		FieldName: "value",
		OldValue:  formatValue(op.Item.Value),
		NewValue:  formatValue(&sum),
	}})
	return success(map[string]any{"value": sum, "atomics_counted": counted}, "value recalculated")
}

func atomicID(op OperationContext) int64 {
	if op.Atomic != nil {
		return op.Atomic.AtomicID
	}
	return 0
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
