package server

import (
	"bytes"
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
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"atelier/internal/app"
	"atelier/internal/domain"
	"atelier/internal/engine"
	"atelier/internal/engine/auth"
	"atelier/internal/repo"
	"atelier/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Service  *app.Service
	BasePath string
	Logger   *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"project p9: not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"field\":\"room\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Atelier API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("server: service required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(log))
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newActorMiddleware(basePath, cfg.Service, log))
	hcfg := huma.DefaultConfig("Atelier API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	svc := cfg.Service
	registerDocs(router, basePath)
	registerHealth(group, svc)
	registerSession(group, svc)
	registerProjects(group, svc)
	registerTasks(group, svc)
	registerRecords(group, svc)
	registerCalendar(group, svc)
	registerViews(group, svc)
	registerStock(group, svc)
	registerEvents(group, svc)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
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
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"role": fe.Role, "affordance": fe.Affordance})
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), map[string]any{"field": ve.Field, "reason": ve.Reason})
	}
	var pe *store.PersistenceError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrInvalidStatus):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, engine.ErrCancelled):
		return newAPIError(http.StatusConflict, "cancelled", "change cancelled: a comment is required", nil)
	case errors.Is(err, engine.ErrTransition):
		return newAPIError(http.StatusConflict, "transition_not_allowed", err.Error(), nil)
	case errors.Is(err, repo.ErrDuplicate):
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	case errors.As(err, &pe):
		return newAPIError(http.StatusInternalServerError, "persistence_error", "storage unavailable", map[string]any{"key": pe.Key, "op": pe.Op})
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
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
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var doc []byte
	docPath := path.Join(basePath, "openapi.json")
	r.Get(docPath, func(w http.ResponseWriter, r *http.Request) {
		if doc == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyActorSecurity(oas, basePath)
			doc, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(doc)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyActorSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["actorHeader"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: ActorHeader,
	}
	security := []map[string][]string{{"actorHeader": {}}}
	oas.Security = security
	open := map[string]bool{
		path.Join(basePath, "health"): true,
		path.Join(basePath, "login"):  true,
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
    <title>Atelier API Docs</title>
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
      Identify yourself with the %s header.
    </p>
  </body>
</html>`, specURL, ActorHeader)
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

func requireBody(ctx context.Context) huma.StatusError {
	if len(bodyBytes(ctx)) == 0 {
		return newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
	}
	return nil
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}

type projectPath struct {
	ID string `path:"id"`
}

type projectOutput struct {
	Body ProjectResponse `json:"body"`
}

func registerHealth(api huma.API, svc *app.Service) {
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
		}{Body: map[string]string{"status": "ok", "workshop": svc.WorkshopName}}, nil
	})
}

func registerSession(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Resolve a user by email",
		Description: "No password is checked. An unknown email resolves to the first user.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		u, err := svc.Login(ctx, input.Body.Email)
		if err != nil {
			return nil, handleError(err)
		}
		u.Password = ""
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: MeResponse{User: u, Affordances: auth.Affordances(u.Role)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current actor and affordances",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MeResponse `json:"body"`
	}, error) {
		p, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "actor required", nil)
		}
		u := p.User
		u.Password = ""
		return &struct {
			Body MeResponse `json:"body"`
		}{Body: MeResponse{User: u, Affordances: p.Affordances}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.User `json:"body"`
	}, error) {
		users, err := svc.Users(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		for i := range users {
			users[i].Password = ""
		}
		return &struct {
			Body []domain.User `json:"body"`
		}{Body: users}, nil
	})
}

func registerProjects(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*projectOutput, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actor, authErr := requireAffordance(ctx, auth.ProjectCreate)
		if authErr != nil {
			return nil, authErr
		}
		p, err := svc.CreateProject(ctx, input.Body.input(), actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &projectOutput{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status"`
	}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		items, err := svc.Projects(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if input.Status != "" {
			want, ok := domain.ParseStatus(input.Status)
			if !ok {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown status", map[string]any{"status": input.Status})
			}
			filtered := items[:0]
			for _, p := range items {
				if p.Status == want {
					filtered = append(filtered, p)
				}
			}
			items = filtered
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get project",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*projectOutput, error) {
		p, err := svc.Project(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &projectOutput{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-project-status",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/status",
		Summary:     "Change project status",
		Description: "Appends one history event. Moving to returned without a comment is treated as cancelled and answers 409.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string              `path:"id"`
		Body ChangeStatusRequest `json:"body"`
	}) (*projectOutput, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actor, authErr := requireAffordance(ctx, auth.ProjectStatusChange)
		if authErr != nil {
			return nil, authErr
		}
		to, ok := domain.ParseStatus(input.Body.Status)
		if !ok {
			return nil, handleError(fmt.Errorf("%q: %w", input.Body.Status, engine.ErrInvalidStatus))
		}
		p, err := svc.ChangeStatus(ctx, input.ID, to, input.Body.Comment, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &projectOutput{Body: projectResponse(p)}, nil
	})
}

func registerTasks(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/tasks",
		Summary:       "Add a production task",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actor, authErr := requireAffordance(ctx, auth.TaskEdit)
		if authErr != nil {
			return nil, authErr
		}
		task, err := svc.AddTask(ctx, input.ID, input.Body.Title, input.Body.Assignee, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/projects/{id}/tasks/{task_id}",
		Summary:     "Update task progress or status",
		Description: "Send exactly one of progress or status; the other is derived.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID     string            `path:"id"`
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actor, authErr := requireAffordance(ctx, auth.TaskEdit)
		if authErr != nil {
			return nil, authErr
		}
		task, err := svc.UpdateTask(ctx, input.ID, input.TaskID, input.Body.update(), actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: task}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}/tasks/{task_id}",
		Summary:       "Delete task",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID     string `path:"id"`
		TaskID string `path:"task_id"`
	}) (*struct{}, error) {
		actor, authErr := requireAffordance(ctx, auth.TaskEdit)
		if authErr != nil {
			return nil, authErr
		}
		if err := svc.DeleteTask(ctx, input.ID, input.TaskID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerRecords(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-measurement",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/measurements",
		Summary:       "Add a measurement",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body MeasurementRequest `json:"body"`
	}) (*struct {
		Body domain.Measurement `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actor, authErr := requireAffordance(ctx, auth.MeasurementEdit)
		if authErr != nil {
			return nil, authErr
		}
		m, err := svc.AddMeasurement(ctx, input.ID, input.Body.input(), actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Measurement `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-measurement",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}/measurements/{mid}",
		Summary:       "Delete a measurement",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID  string `path:"id"`
		MID string `path:"mid"`
	}) (*struct{}, error) {
		actor, authErr := requireAffordance(ctx, auth.MeasurementEdit)
		if authErr != nil {
			return nil, authErr
		}
		if err := svc.DeleteMeasurement(ctx, input.ID, input.MID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-attachment",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/attachments",
		Summary:       "Record attachment metadata",
		Description:   "The file itself lives in external storage; locator is its reference.",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body AttachmentRequest `json:"body"`
	}) (*struct {
		Body domain.Attachment `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		affordance := auth.AttachmentEdit
		if domain.AttachmentKind(input.Body.Kind) == domain.AttachmentDeliveryProof {
			affordance = auth.DeliveryProofUpload
		}
		actor, authErr := requireAffordance(ctx, affordance)
		if authErr != nil {
			return nil, authErr
		}
		a, err := svc.AddAttachment(ctx, input.ID, input.Body.input(), actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Attachment `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-attachment",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}/attachments/{aid}",
		Summary:       "Delete attachment metadata",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID  string `path:"id"`
		AID string `path:"aid"`
	}) (*struct{}, error) {
		actor, authErr := requireAffordance(ctx, auth.AttachmentEdit)
		if authErr != nil {
			return nil, authErr
		}
		if err := svc.DeleteAttachment(ctx, input.ID, input.AID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerCalendar(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-calendar",
		Method:      http.MethodGet,
		Path:        "/projects/{id}/calendar",
		Summary:     "Delivery calendar month",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Year  int    `query:"year"`
		Month int    `query:"month" minimum:"0" maximum:"12"`
	}) (*struct {
		Body engine.MonthGrid `json:"body"`
	}, error) {
		now := svc.Engine.Now()
		year, month := input.Year, time.Month(input.Month)
		if year == 0 {
			year = now.Year()
		}
		if month == 0 {
			month = now.Month()
		}
		grid, err := svc.Calendar(ctx, input.ID, year, month)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.MonthGrid `json:"body"`
		}{Body: grid}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-calendar-day",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/calendar",
		Summary:     "Propose, validate or clear a delivery day",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string          `path:"id"`
		Body CalendarRequest `json:"body"`
	}) (*projectOutput, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		day, ok := engine.ParseDate(input.Body.Date)
		if !ok || len(input.Body.Date) != len("2006-01-02") {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "date must be YYYY-MM-DD", map[string]any{"date": input.Body.Date})
		}
		intent := engine.Intent(input.Body.Intent)
		affordance := auth.DeliveryPropose
		if intent == engine.IntentValidate {
			affordance = auth.DeliveryValidate
		}
		actor, authErr := requireAffordance(ctx, affordance)
		if authErr != nil {
			return nil, authErr
		}
		p, err := svc.ResolveCalendarDay(ctx, input.ID, day, intent, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &projectOutput{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "notify-client",
		Method:      http.MethodPost,
		Path:        "/projects/{id}/delivery/notify",
		Summary:     "Mark the client as notified of the delivery date",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *projectPath) (*projectOutput, error) {
		actor, authErr := requireAffordance(ctx, auth.DeliveryValidate)
		if authErr != nil {
			return nil, authErr
		}
		p, err := svc.NotifyClient(ctx, input.ID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &projectOutput{Body: projectResponse(p)}, nil
	})
}

func registerViews(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "Late and approaching deadlines",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body NotificationsResponse `json:"body"`
	}, error) {
		c, err := svc.Notifications(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body NotificationsResponse `json:"body"`
		}{Body: NotificationsResponse{Late: c.Late, Approaching: c.Approaching, Count: c.Count()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Dashboard counters",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.Dashboard `json:"body"`
	}, error) {
		d, err := svc.Dashboard(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.Dashboard `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "workshop",
		Method:      http.MethodGet,
		Path:        "/workshop",
		Summary:     "Production-floor board",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []engine.Lane `json:"body"`
	}, error) {
		lanes, err := svc.Workshop(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.Lane `json:"body"`
		}{Body: lanes}, nil
	})
}

func registerStock(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-stock",
		Method:      http.MethodGet,
		Path:        "/stock",
		Summary:     "List stock items",
	}, func(ctx context.Context, input *struct {
		Low bool `query:"low"`
	}) (*struct {
		Body []domain.StockItem `json:"body"`
	}, error) {
		var (
			items []domain.StockItem
			err   error
		)
		if input.Low {
			items, err = svc.LowStock(ctx)
		} else {
			items, err = svc.Stock(ctx)
		}
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.StockItem{}
		}
		return &struct {
			Body []domain.StockItem `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "adjust-stock",
		Method:      http.MethodPatch,
		Path:        "/stock/{sid}",
		Summary:     "Set stock quantity",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		SID  string             `path:"sid"`
		Body StockAdjustRequest `json:"body"`
	}) (*struct {
		Body domain.StockItem `json:"body"`
	}, error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actor, authErr := requireAffordance(ctx, auth.StockEdit)
		if authErr != nil {
			return nil, authErr
		}
		it, err := svc.AdjustStock(ctx, input.SID, input.Body.Quantity, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.StockItem `json:"body"`
		}{Body: it}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-purchase-orders",
		Method:      http.MethodGet,
		Path:        "/purchase-orders",
		Summary:     "List purchase orders",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.PurchaseOrder `json:"body"`
	}, error) {
		orders, err := svc.PurchaseOrders(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.PurchaseOrder `json:"body"`
		}{Body: orders}, nil
	})
}

func registerEvents(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent journal events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"project_id"`
		Type      string `query:"type"`
		Limit     int    `query:"limit" default:"50"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		items, err := svc.Events(ctx, normalizeLimit(input.Limit), input.ProjectID, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: paginatedEvents{Items: items}}, nil
	})
}
