package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"modgate/internal/moderation/models"
	"modgate/internal/moderation/query"
	"modgate/internal/moderation/service"
	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/platform/httputil"
	"modgate/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler exposes.
type Service interface {
	ApplyTransition(ctx context.Context, req service.ApplyRequest) (*service.TransitionResult, error)
	CreateSubmission(ctx context.Context, req service.CreateSubmissionRequest) (*models.Resource, error)
	CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*models.Resource, error)
	GetResource(ctx context.Context, kind models.Kind, resourceID id.ResourceID) (*models.Resource, error)
	AuditTrail(ctx context.Context, kind models.Kind, resourceID id.ResourceID) ([]models.AuditEntry, error)
	AllowedActions(ctx context.Context, kind models.Kind, resourceID id.ResourceID) ([]models.Action, error)
}

// Query defines the read-only listing gateway.
type Query interface {
	List(ctx context.Context, p query.ListParams) (*query.ListResult, error)
}

// IdempotencyStore records transition responses keyed by the client-supplied
// Idempotency-Key header so duplicate submissions replay the original outcome.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

const idempotencyTTL = 24 * time.Hour

// Handler wires moderation endpoints to the lifecycle engine and query gateway.
type Handler struct {
	service     Service
	query       Query
	idempotency IdempotencyStore
	logger      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithIdempotencyStore enables Idempotency-Key replay on the transition endpoint.
func WithIdempotencyStore(store IdempotencyStore) Option {
	return func(h *Handler) { h.idempotency = store }
}

// New constructs a moderation handler with its dependencies.
func New(service Service, query Query, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		query:   query,
		logger:  logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts moderation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/resources/{kind}", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Route("/{resourceID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Post("/transition", h.HandleTransition)
			r.Get("/audit", h.HandleAuditTrail)
			r.Get("/actions", h.HandleActions)
		})
	})
}

// HandleTransition handles POST /resources/{kind}/{resourceID}/transition.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	moderatorID := requestcontext.ModeratorID(ctx)
	if moderatorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	kind, resourceID, ok := h.pathResource(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	idemKey := idempotencyKey(r, moderatorID)
	if idemKey != "" && h.idempotency != nil {
		if payload, found, err := h.idempotency.Get(ctx, idemKey); err != nil {
			h.logger.WarnContext(ctx, "idempotency lookup failed",
				"request_id", requestID,
				"error", err,
			)
		} else if found {
			w.Header().Set("Idempotency-Replayed", "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(payload)
			return
		}
	}

	result, err := h.service.ApplyTransition(ctx, service.ApplyRequest{
		ResourceID:  resourceID,
		Kind:        kind,
		Action:      req.ParsedAction(),
		ModeratorID: moderatorID,
		Message:     req.Message,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := FromTransitionResult(result)
	if idemKey != "" && h.idempotency != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.idempotency.Put(ctx, idemKey, payload, idempotencyTTL); err != nil {
				h.logger.WarnContext(ctx, "idempotency record failed",
					"request_id", requestID,
					"error", err,
				)
			}
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /resources/{kind} intake requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	kind, ok := h.pathKind(w, r)
	if !ok {
		return
	}

	var (
		created *models.Resource
		err     error
	)
	switch kind {
	case models.KindSubmission:
		req, decoded := httputil.DecodeAndPrepare[CreateSubmissionRequest](w, r, h.logger, ctx, requestID)
		if !decoded {
			return
		}
		created, err = h.service.CreateSubmission(ctx, service.CreateSubmissionRequest{
			OwnerID: req.ParsedOwnerID(),
			Title:   req.Title,
			Meta:    req.ToMeta(),
			Assets:  req.ToAssets(),
		})
	case models.KindAccount:
		req, decoded := httputil.DecodeAndPrepare[CreateAccountRequest](w, r, h.logger, ctx, requestID)
		if !decoded {
			return
		}
		created, err = h.service.CreateAccount(ctx, service.CreateAccountRequest{
			OwnerID: req.ParsedOwnerID(),
			Profile: req.ToProfile(),
		})
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromResource(created))
}

// HandleGet handles GET /resources/{kind}/{resourceID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	kind, resourceID, ok := h.pathResource(w, r)
	if !ok {
		return
	}

	resource, err := h.service.GetResource(r.Context(), kind, resourceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResource(resource))
}

// HandleList handles GET /resources/{kind} dashboard listings.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ok := h.pathKind(w, r)
	if !ok {
		return
	}

	params := query.ListParams{
		Kind:     kind,
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize", "page_size"),
	}
	if raw := queryValue(r, "owner", "owner_id"); raw != "" {
		ownerID, err := id.ParseOwnerID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		params.OwnerID = ownerID
	}

	result, err := h.query.List(ctx, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListResult(result))
}

// HandleAuditTrail handles GET /resources/{kind}/{resourceID}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	kind, resourceID, ok := h.pathResource(w, r)
	if !ok {
		return
	}

	entries, err := h.service.AuditTrail(r.Context(), kind, resourceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditTrail(entries))
}

// HandleActions handles GET /resources/{kind}/{resourceID}/actions.
func (h *Handler) HandleActions(w http.ResponseWriter, r *http.Request) {
	kind, resourceID, ok := h.pathResource(w, r)
	if !ok {
		return
	}

	actions, err := h.service.AllowedActions(r.Context(), kind, resourceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromActions(actions))
}

func (h *Handler) pathKind(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return kind, true
}

func (h *Handler) pathResource(w http.ResponseWriter, r *http.Request) (models.Kind, id.ResourceID, bool) {
	kind, ok := h.pathKind(w, r)
	if !ok {
		return "", id.ResourceID{}, false
	}
	resourceID, err := id.ParseResourceID(chi.URLParam(r, "resourceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", id.ResourceID{}, false
	}
	return kind, resourceID, true
}

// idempotencyKey scopes the client-supplied key to the moderator and path so
// two moderators reusing the same key never collide.
func idempotencyKey(r *http.Request, moderatorID id.ModeratorID) string {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return ""
	}
	return moderatorID.String() + ":" + r.URL.Path + ":" + key
}

// queryValue returns the first non-empty query parameter among names; later
// names are aliases kept for older clients.
func queryValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if raw := r.URL.Query().Get(name); raw != "" {
			return raw
		}
	}
	return ""
}

func queryInt(r *http.Request, names ...string) int {
	raw := queryValue(r, names...)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
