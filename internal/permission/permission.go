// Package permission evaluates a caller's flattened permission set against
// composite-key targets. Records are parsed once at index build time; checks
// are total functions that never return an error.
package permission

import (
	"log"
	"strconv"
	"strings"

	"riskline/internal/domain"
	"riskline/internal/status"
)

// Action name constants as persisted and transmitted.
const (
	ActionView           = "view"
	ActionEdit           = "edit"
	ActionSave           = "save"
	ActionSubmit         = "submit"
	ActionApprove        = "approve"
	ActionReject         = "reject"
	ActionReview         = "review"
	ActionAcknowledge    = "acknowledge"
	ActionUploadEvidence = "uploadEvidence"
	ActionDeleteEvidence = "deleteEvidence"
	ActionViewDetail     = "viewDetail"
	ActionViewAuditTrail = "viewAuditTrail"
	ActionEditAtomic     = "editAtomic"
	ActionCalculateKRI   = "calculateKRI"
)

// categories maps every recognized action to its capability gate.
var categories = map[string]status.Category{
	ActionView:           status.CategoryView,
	ActionEdit:           status.CategoryEdit,
	ActionSave:           status.CategoryEdit,
	ActionSubmit:         status.CategorySubmit,
	ActionApprove:        status.CategoryApprove,
	ActionReject:         status.CategoryReject,
	ActionReview:         status.CategoryApprove,
	ActionAcknowledge:    status.CategoryApprove,
	ActionUploadEvidence: status.CategoryView,
	ActionDeleteEvidence: status.CategoryView,
	ActionViewDetail:     status.CategoryView,
	ActionViewAuditTrail: status.CategoryView,
	ActionEditAtomic:     status.CategoryEdit,
	ActionCalculateKRI:   status.CategoryEdit,
}

// Recognized reports whether name is a known action.
func Recognized(name string) bool {
	_, ok := categories[name]
	return ok
}

// CategoryOf returns the capability category of a recognized action.
func CategoryOf(name string) (status.Category, bool) {
	cat, ok := categories[name]
	return cat, ok
}

// TargetKey identifies one KRI period.
type TargetKey struct {
	KRIID         int64
	ReportingDate int64
}

type grantKey struct {
	action   string
	atomicID int64 // 0 means KRI-level
}

// Index is one user's parsed permission set. Build it once per request from
// the stored records and reuse it for every check.
type Index struct {
	UserUUID string
	grants   map[TargetKey]map[grantKey]bool
	logger   *log.Logger
}

// BuildIndex parses raw permission records into an index. Comma-joined
// action lists are split once here; deny records override allows for the
// same entry, and a positive grant implies view on the same target.
func BuildIndex(userUUID string, records []domain.PermissionRecord, logger *log.Logger) *Index {
	idx := &Index{
		UserUUID: userUUID,
		grants:   make(map[TargetKey]map[grantKey]bool),
		logger:   logger,
	}
	for _, rec := range records {
		if rec.UserUUID != userUUID {
			continue
		}
		key := TargetKey{KRIID: rec.KRIID, ReportingDate: rec.ReportingDate}
		for _, raw := range strings.Split(rec.Actions, ",") {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			gk, ok := parseEntry(name)
			if !ok {
				idx.warnf("permission: unrecognized action %q for kri=%d date=%d", name, rec.KRIID, rec.ReportingDate)
				continue
			}
			idx.set(key, gk, rec.Effect)
		}
	}
	// view is implicitly required by every other capability, so any positive
	// grant carries it unless view was explicitly denied.
	for key, entries := range idx.grants {
		for gk, allowed := range entries {
			if allowed && gk.action != ActionView {
				viewKey := grantKey{action: ActionView, atomicID: gk.atomicID}
				if _, exists := entries[viewKey]; !exists {
					idx.grants[key][viewKey] = true
				}
			}
		}
	}
	return idx
}

func (x *Index) set(key TargetKey, gk grantKey, allow bool) {
	entries, ok := x.grants[key]
	if !ok {
		entries = make(map[grantKey]bool)
		x.grants[key] = entries
	}
	// deny wins over any allow for the same entry
	if prev, exists := entries[gk]; exists && !prev {
		return
	}
	entries[gk] = allow
}

// parseEntry splits a stored action entry into its name and optional atomic
// scope. Atomic entries use the exact pattern atomic<digits>_<action>.
func parseEntry(entry string) (grantKey, bool) {
	if rest, ok := strings.CutPrefix(entry, "atomic"); ok {
		if i := strings.Index(rest, "_"); i > 0 {
			id, err := strconv.ParseInt(rest[:i], 10, 64)
			if err == nil && id > 0 && Recognized(rest[i+1:]) {
				return grantKey{action: rest[i+1:], atomicID: id}, true
			}
		}
		return grantKey{}, false
	}
	if !Recognized(entry) {
		return grantKey{}, false
	}
	return grantKey{action: entry}, true
}

// CanPerform decides whether the indexed user may perform action on the
// target. atomicID zero means the KRI-level scope; atomic and KRI-level
// grants never fall back to one another. The current status's capability
// gate dominates any grant. Never returns an error: unknown actions are
// logged and denied.
func (x *Index) CanPerform(kriID, reportingDate, atomicID int64, action string, current status.Code) bool {
	cat, ok := categories[action]
	if !ok {
		x.warnf("permission: check for unrecognized action %q denied", action)
		return false
	}
	if !status.Describe(current).Capabilities.Allows(cat) {
		return false
	}
	entries, ok := x.grants[TargetKey{KRIID: kriID, ReportingDate: reportingDate}]
	if !ok {
		return false
	}
	allowed, ok := entries[grantKey{action: action, atomicID: atomicID}]
	return ok && allowed
}

// Granted returns the KRI-level action names allowed on a target, for
// exposing a caller's explicit permissions. Sorted order is not guaranteed.
func (x *Index) Granted(kriID, reportingDate int64) []string {
	entries, ok := x.grants[TargetKey{KRIID: kriID, ReportingDate: reportingDate}]
	if !ok {
		return nil
	}
	var names []string
	for gk, allowed := range entries {
		if allowed && gk.atomicID == 0 {
			names = append(names, gk.action)
		}
	}
	return names
}

func (x *Index) warnf(format string, args ...any) {
	if x.logger != nil {
		x.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
