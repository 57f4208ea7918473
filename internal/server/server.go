package server

import (
	"log"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"riskline/internal/domain"
	"riskline/internal/engine"
	"riskline/internal/permission"
	"riskline/internal/repo"
	"riskline/internal/status"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"kri item not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Riskline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(st int, msg string, errs ...error) huma.StatusError {
		return newAPIError(st, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, st int, msg string, errs ...error) huma.StatusError {
		if st == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			st = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(st, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Riskline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	s := service{engine: cfg.Engine, auth: cfg.Auth}

	registerDocs(router, basePath)
	registerHealth(group)
	registerDevAuth(group, cfg.Auth)
	registerMe(group, s)
	registerKRIs(group, s)
	registerContext(group, s)
	registerActions(group, s)
	registerBulk(group, s)
	registerAudit(group, s)
	registerEvidence(group, s)
	registerPermissions(group, s)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

type service struct {
	engine engine.Engine
	auth   AuthConfig
}

func newAPIError(st int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(st)
	}
	return &apiError{
		status: st,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(st int) string {
	switch st {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(st), " ", "_"))
	}
}

func (s service) requireAdmin(ctx context.Context) (Principal, huma.StatusError) {
	principal, authErr := principalFromRequest(ctx)
	if authErr != nil {
		return Principal{}, authErr
	}
	if !s.auth.isAdmin(principal.UserUUID) {
		return Principal{}, newAPIError(http.StatusForbidden, "forbidden", "admin access required", nil)
	}
	return principal, nil
}

func (s service) loadIndex(ctx context.Context, userUUID string) (*permission.Index, huma.StatusError) {
	idx, err := s.engine.LoadPermissions(ctx, userUUID)
	if err != nil {
		return nil, handleError(err)
	}
	return idx, nil
}

// canView checks the caller's view grant on the item. Admins bypass it.
func (s service) canView(idx *permission.Index, userUUID string, item domain.KRIItem) bool {
	if s.auth.isAdmin(userUUID) {
		return true
	}
	return idx.CanPerform(item.KRIID, item.ReportingDate, 0, permission.ActionView, status.Code(item.Status))
}

type KRIPath struct {
	KRIID         int64 `path:"kri_id"`
	ReportingDate int64 `path:"reporting_date"`
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		user := strings.TrimSpace(input.Body.UserUUID)
		if user == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "user_uuid is required", nil)
		}
		token, err := signDevToken(authCfg.JWTSecret, user)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}

func registerMe(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WhoAmIResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body WhoAmIResponse `json:"body"`
		}{Body: WhoAmIResponse{
			UserUUID: principal.UserUUID,
			Source:   principal.Source,
			Admin:    s.auth.isAdmin(principal.UserUUID),
		}}, nil
	})
}

func registerKRIs(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-kris",
		Method:      http.MethodGet,
		Path:        "/kris",
		Summary:     "List KRI items visible to the caller",
	}, func(ctx context.Context, input *struct {
		ReportingDate int64  `query:"reporting_date"`
		Status        int    `query:"status"`
		Owner         string `query:"owner"`
		Limit         int    `query:"limit"`
	}) (*struct {
		Body KRIListResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		items, err := s.engine.Repo.ListItems(ctx, repo.ItemFilters{
			ReportingDate: input.ReportingDate,
			Status:        input.Status,
			Owner:         input.Owner,
			Limit:         input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		visible := make([]domain.KRIItem, 0, len(items))
		for _, item := range items {
			if s.canView(idx, principal.UserUUID, item) {
				visible = append(visible, item)
			}
		}
		return &struct {
			Body KRIListResponse `json:"body"`
		}{Body: KRIListResponse{Items: visible}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-kri",
		Method:      http.MethodPost,
		Path:        "/kris",
		Summary:     "Register a KRI item for a reporting period",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body CreateKRIRequest `json:"body"`
	}) (*struct {
		Body domain.KRIItem `json:"body"`
	}, error) {
		if _, authErr := s.requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if input.Body.KRIID == 0 || input.Body.ReportingDate == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "kri_id and reporting_date are required", nil)
		}
		st := int(status.PendingInput)
		if input.Body.Status != nil {
			if !status.Code(*input.Body.Status).Valid() {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid status %d", *input.Body.Status), nil)
			}
			st = *input.Body.Status
		}
		now := time.Now().UTC().Format(time.RFC3339)
		item := domain.KRIItem{
			KRIID:            input.Body.KRIID,
			ReportingDate:    input.Body.ReportingDate,
			Name:             input.Body.Name,
			Owner:            input.Body.Owner,
			DataProvider:     input.Body.DataProvider,
			Status:           st,
			Value:            input.Body.Value,
			WarningThreshold: input.Body.WarningThreshold,
			LimitThreshold:   input.Body.LimitThreshold,
			Formula:          input.Body.Formula,
			IsCalculated:     input.Body.IsCalculated,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.engine.Repo.InsertItem(ctx, item); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.KRIItem `json:"body"`
		}{Body: item}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-kri",
		Method:      http.MethodGet,
		Path:        "/kris/{kri_id}/{reporting_date}",
		Summary:     "KRI item detail",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *KRIPath) (*struct {
		Body KRIDetailResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		item, err := s.engine.Repo.GetItem(ctx, input.KRIID, input.ReportingDate)
		if err != nil {
			return nil, handleError(err)
		}
		if !s.canView(idx, principal.UserUUID, item) {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "no view permission on this kri period", nil)
		}
		resp := KRIDetailResponse{Item: item}
		if item.IsCalculated {
			atomics, err := s.engine.Repo.ListAtomics(ctx, input.KRIID, input.ReportingDate)
			if err != nil {
				return nil, handleError(err)
			}
			resp.Atomics = atomics
		}
		return &struct {
			Body KRIDetailResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-atomic",
		Method:      http.MethodPost,
		Path:        "/kris/{kri_id}/{reporting_date}/atomics",
		Summary:     "Register an atomic element of a calculated KRI",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KRIPath
		Body CreateAtomicRequest `json:"body"`
	}) (*struct {
		Body domain.AtomicElement `json:"body"`
	}, error) {
		if _, authErr := s.requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if input.Body.AtomicID <= 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "atomic_id must be positive", nil)
		}
		if _, err := s.engine.Repo.GetItem(ctx, input.KRIID, input.ReportingDate); err != nil {
			return nil, handleError(err)
		}
		st := int(status.PendingInput)
		if input.Body.Status != nil {
			st = *input.Body.Status
		}
		now := time.Now().UTC().Format(time.RFC3339)
		a := domain.AtomicElement{
			KRIID:         input.KRIID,
			ReportingDate: input.ReportingDate,
			AtomicID:      input.Body.AtomicID,
			Name:          input.Body.Name,
			Status:        st,
			Value:         input.Body.Value,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.engine.Repo.InsertAtomic(ctx, a); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.AtomicElement `json:"body"`
		}{Body: a}, nil
	})
}

func registerContext(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-context",
		Method:      http.MethodGet,
		Path:        "/kris/{kri_id}/{reporting_date}/context",
		Summary:     "Operation context: status, permissions and available actions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KRIPath
		AtomicID int64 `query:"atomic_id"`
	}) (*struct {
		Body engine.OperationContext `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			log.Printf("DEBUG get-context principal err: %v", authErr)
			return nil, authErr
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			log.Printf("DEBUG get-context loadIndex err: %v", authErr)
			return nil, authErr
		}
		log.Printf("DEBUG get-context kri=%d date=%d atomic=%d", input.KRIID, input.ReportingDate, input.AtomicID)
		op, err := s.engine.LoadContext(ctx, idx, input.KRIID, input.ReportingDate, input.AtomicID)
		if err != nil {
			log.Printf("DEBUG get-context LoadContext err: %v", err)
			return nil, handleError(err)
		}
		return &struct {
			Body engine.OperationContext `json:"body"`
		}{Body: op}, nil
	})
}

func registerActions(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "execute-action",
		Method:      http.MethodPost,
		Path:        "/kris/{kri_id}/{reporting_date}/actions/{action}",
		Summary:     "Execute a workflow action",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KRIPath
		Action   string               `path:"action"`
		AtomicID int64                `query:"atomic_id"`
		Body     ExecuteActionRequest `json:"body"`
	}) (*struct {
		Body engine.Result `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		op, err := s.engine.LoadContext(ctx, idx, input.KRIID, input.ReportingDate, input.AtomicID)
		if err != nil {
			return nil, handleError(err)
		}
		res := s.engine.Execute(ctx, input.Action, op, input.Body.actionData())
		return &struct {
			Body engine.Result `json:"body"`
		}{Body: res}, nil
	})
}

func registerBulk(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "bulk-action",
		Method:      http.MethodPost,
		Path:        "/actions/bulk",
		Summary:     "Execute one action against several targets sequentially",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body BulkActionRequest `json:"body"`
	}) (*struct {
		Body BulkActionResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if strings.TrimSpace(input.Body.Action) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "action is required", nil)
		}
		if len(input.Body.Targets) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "targets are required", nil)
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		results := s.engine.RunBulk(ctx, idx, input.Body.Action, input.Body.Targets, input.Body.Data.actionData())
		return &struct {
			Body BulkActionResponse `json:"body"`
		}{Body: BulkActionResponse{Results: results}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "common-actions",
		Method:      http.MethodPost,
		Path:        "/actions/common",
		Summary:     "Actions available on every listed target",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body BulkTargetsRequest `json:"body"`
	}) (*struct {
		Body CommonActionsResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(input.Body.Targets) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "targets are required", nil)
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		actions, err := s.engine.CommonActions(ctx, idx, input.Body.Targets)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CommonActionsResponse `json:"body"`
		}{Body: CommonActionsResponse{Actions: nonNilSlice(actions)}}, nil
	})
}

func registerAudit(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit",
		Method:      http.MethodGet,
		Path:        "/kris/{kri_id}/{reporting_date}/audit",
		Summary:     "Audit trail, newest first",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KRIPath
		Limit int `query:"limit"`
	}) (*struct {
		Body AuditResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		item, err := s.engine.Repo.GetItem(ctx, input.KRIID, input.ReportingDate)
		if err != nil {
			return nil, handleError(err)
		}
		if !s.canView(idx, principal.UserUUID, item) {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "no view permission on this kri period", nil)
		}
		entries, err := s.engine.Repo.ListAuditEntries(ctx, input.KRIID, input.ReportingDate, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AuditResponse `json:"body"`
		}{Body: AuditResponse{Entries: nonNilSlice(entries)}}, nil
	})
}

func registerEvidence(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-evidence",
		Method:      http.MethodGet,
		Path:        "/kris/{kri_id}/{reporting_date}/evidence",
		Summary:     "Evidence references, newest first",
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *KRIPath) (*struct {
		Body EvidenceResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		idx, authErr := s.loadIndex(ctx, principal.UserUUID)
		if authErr != nil {
			return nil, authErr
		}
		item, err := s.engine.Repo.GetItem(ctx, input.KRIID, input.ReportingDate)
		if err != nil {
			return nil, handleError(err)
		}
		if !s.canView(idx, principal.UserUUID, item) {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "no view permission on this kri period", nil)
		}
		evidence, err := s.engine.Repo.ListEvidence(ctx, input.KRIID, input.ReportingDate)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EvidenceResponse `json:"body"`
		}{Body: EvidenceResponse{Evidence: nonNilSlice(evidence)}}, nil
	})
}

func registerPermissions(api huma.API, s service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-permissions",
		Method:      http.MethodGet,
		Path:        "/kris/{kri_id}/{reporting_date}/permissions",
		Summary:     "Permission records on a KRI period",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *KRIPath) (*struct {
		Body PermissionsResponse `json:"body"`
	}, error) {
		if _, authErr := s.requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		records, err := s.engine.Repo.ListPermissions(ctx, input.KRIID, input.ReportingDate)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PermissionsResponse `json:"body"`
		}{Body: PermissionsResponse{Records: nonNilSlice(records)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "grant-permission",
		Method:      http.MethodPut,
		Path:        "/kris/{kri_id}/{reporting_date}/permissions",
		Summary:     "Grant or deny actions for a user on a KRI period",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		KRIPath
		Body GrantPermissionRequest `json:"body"`
	}) (*struct {
		Body domain.PermissionRecord `json:"body"`
	}, error) {
		if _, authErr := s.requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		user := strings.TrimSpace(input.Body.UserUUID)
		if user == "" || strings.TrimSpace(input.Body.Actions) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "user_uuid and actions are required", nil)
		}
		effect := true
		if input.Body.Effect != nil {
			effect = *input.Body.Effect
		}
		rec := domain.PermissionRecord{
			UserUUID:      user,
			KRIID:         input.KRIID,
			ReportingDate: input.ReportingDate,
			Actions:       input.Body.Actions,
			Effect:        effect,
		}
		if err := s.engine.Repo.UpsertPermission(ctx, rec); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.PermissionRecord `json:"body"`
		}{Body: rec}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-permissions",
		Method:      http.MethodDelete,
		Path:        "/kris/{kri_id}/{reporting_date}/permissions/{user_uuid}",
		Summary:     "Revoke every record for a user on a KRI period",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		KRIPath
		UserUUID string `path:"user_uuid"`
	}) (*struct {
		Body map[string]bool `json:"body"`
	}, error) {
		if _, authErr := s.requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		if err := s.engine.Repo.RevokePermissions(ctx, input.UserUUID, input.KRIID, input.ReportingDate); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]bool `json:"body"`
		}{Body: map[string]bool{"revoked": true}}, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	open := map[string]bool{
		path.Join("/", basePath, "health"):         true,
		path.Join("/", basePath, "auth/dev/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Riskline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}
