package engine

import (
	"context"
	"database/sql"
	"log"
	"time"

	"riskline/internal/action"
	"riskline/internal/audit"
	"riskline/internal/config"
	"riskline/internal/domain"
	"riskline/internal/permission"
	"riskline/internal/repo"
	"riskline/internal/status"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Audit  audit.Writer
	Config *config.Config
	Logger *log.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Audit:  audit.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// LoadPermissions reads a user's permission records and parses them into an
// index once, for reuse across every check of the request.
func (e Engine) LoadPermissions(ctx context.Context, userUUID string) (*permission.Index, error) {
	records, err := e.Repo.ReadPermissions(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	return permission.BuildIndex(userUUID, records, e.Logger), nil
}

// Transition is one edge of the workflow visualization.
type Transition struct {
	Action string      `json:"action"`
	To     status.Code `json:"to"`
}

// WorkflowInfo summarizes where an item is and where it can go.
type WorkflowInfo struct {
	Current     status.Code   `json:"current"`
	ValidNext   []status.Code `json:"valid_next"`
	Transitions []Transition  `json:"transitions,omitempty"`
}

// OperationContext is the ephemeral, per-item, per-caller bundle of status
// info and available actions. It is rebuilt on every load and refreshed
// after each executed action; it is never persisted.
type OperationContext struct {
	Item                domain.KRIItem        `json:"item"`
	Atomic              *domain.AtomicElement `json:"atomic,omitempty"`
	UserUUID            string                `json:"user_uuid"`
	CurrentStatus       status.Code           `json:"current_status"`
	StatusInfo          status.Descriptor     `json:"status_info"`
	OwnerEqualsProvider bool                  `json:"owner_equals_provider"`
	Available           []action.Action       `json:"available_actions"`
	Primary             []action.Action       `json:"primary_actions,omitempty"`
	Secondary           []action.Action       `json:"secondary_actions,omitempty"`
	Permissions         []string              `json:"permissions,omitempty"`
	Workflow            WorkflowInfo          `json:"workflow"`
}

// BuildContext composes the status registry, permission index, action
// catalog and workflow resolver for one KRI item. Read-only and cheap; no
// caching.
func (e Engine) BuildContext(item domain.KRIItem, idx *permission.Index) OperationContext {
	current := e.effectiveStatus(item.Status, item.KRIID, item.ReportingDate, 0)
	target := action.Target{
		KRIID:               item.KRIID,
		ReportingDate:       item.ReportingDate,
		Current:             current,
		OwnerEqualsProvider: item.OwnerEqualsProvider(),
	}
	return e.compose(item, nil, idx, target)
}

// BuildAtomicContext is the atomic-scoped variant: only actions marked for
// atomic use qualify, and checks resolve against atomic-scoped grants.
func (e Engine) BuildAtomicContext(item domain.KRIItem, atomic domain.AtomicElement, idx *permission.Index) OperationContext {
	current := e.effectiveStatus(atomic.Status, item.KRIID, item.ReportingDate, atomic.AtomicID)
	target := action.Target{
		KRIID:               item.KRIID,
		ReportingDate:       item.ReportingDate,
		AtomicID:            atomic.AtomicID,
		Current:             current,
		OwnerEqualsProvider: item.OwnerEqualsProvider(),
	}
	return e.compose(item, &atomic, idx, target)
}

func (e Engine) compose(item domain.KRIItem, atomic *domain.AtomicElement, idx *permission.Index, target action.Target) OperationContext {
	available := action.Available(idx, target)
	info := status.Describe(target.Current)
	wf := WorkflowInfo{
		Current:   target.Current,
		ValidNext: status.ValidNext(target.Current, target.OwnerEqualsProvider),
	}
	for _, a := range available {
		if a.NextStatus != nil {
			wf.Transitions = append(wf.Transitions, Transition{Action: a.Name, To: *a.NextStatus})
		}
	}
	return OperationContext{
		Item:                item,
		Atomic:              atomic,
		UserUUID:            idx.UserUUID,
		CurrentStatus:       target.Current,
		StatusInfo:          info,
		OwnerEqualsProvider: target.OwnerEqualsProvider,
		Available:           available,
		Primary:             action.Primary(available),
		Secondary:           action.Secondary(available),
		Permissions:         idx.Granted(item.KRIID, item.ReportingDate),
		Workflow:            wf,
	}
}

// LoadContext fetches the item (and atomic element when atomicID is not 0)
// and composes its operation context for the given permission index.
func (e Engine) LoadContext(ctx context.Context, idx *permission.Index, kriID, reportingDate, atomicID int64) (OperationContext, error) {
	item, err := e.Repo.GetItem(ctx, kriID, reportingDate)
	if err != nil {
		return OperationContext{}, err
	}
	if atomicID == 0 {
		return e.BuildContext(item, idx), nil
	}
	atomic, err := e.Repo.GetAtomic(ctx, kriID, reportingDate, atomicID)
	if err != nil {
		return OperationContext{}, err
	}
	return e.BuildAtomicContext(item, atomic, idx), nil
}

// effectiveStatus maps a missing status to Pending Input and logs the
// fallback.
func (e Engine) effectiveStatus(raw int, kriID, reportingDate, atomicID int64) status.Code {
	if raw == 0 {
		if atomicID != 0 {
			e.logf("engine: atomic %d of kri=%d date=%d has no status, falling back to %d", atomicID, kriID, reportingDate, status.PendingInput)
		} else {
			e.logf("engine: kri=%d date=%d has no status, falling back to %d", kriID, reportingDate, status.PendingInput)
		}
		return status.PendingInput
	}
	return status.Code(raw)
}
