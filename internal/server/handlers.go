package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/zerolog"

	"CoverPool/internal/access"
	"CoverPool/internal/engine"
	"CoverPool/internal/params"
	"CoverPool/internal/pricing"
	"CoverPool/internal/query"
)

// apiHandler serves the HTTP/JSON API. Write operations go straight to
// the engine; reads go through the query service.
type apiHandler struct {
	engine *engine.Engine
	query  *query.Service
	access engine.AccessController
	pause  *access.Switch
	logger zerolog.Logger
}

func (h *apiHandler) register(mux *runtime.ServeMux) {
	// Reads
	mux.HandlePath(http.MethodGet, "/v1/quote", h.quote)
	mux.HandlePath(http.MethodGet, "/v1/pool", h.pool)
	mux.HandlePath(http.MethodGet, "/v1/events", h.events)
	mux.HandlePath(http.MethodGet, "/v1/policies/{account}", h.getPolicy)
	mux.HandlePath(http.MethodGet, "/v1/policies/{account}/claims", h.listClaims)

	// Policy lifecycle
	mux.HandlePath(http.MethodPost, "/v1/policies", h.openPolicy)
	mux.HandlePath(http.MethodPost, "/v1/policies/{account}/settle", h.settle)
	mux.HandlePath(http.MethodPost, "/v1/policies/{account}/expire", h.expire)

	// Administration
	mux.HandlePath(http.MethodPost, "/v1/admin/parameters", h.updateParameter)
	mux.HandlePath(http.MethodPost, "/v1/admin/keeper", h.setKeeper)
	mux.HandlePath(http.MethodPost, "/v1/admin/withdraw", h.withdraw)
	mux.HandlePath(http.MethodPost, "/v1/admin/batch-expire", h.batchExpire)
	mux.HandlePath(http.MethodPost, "/v1/admin/pause", h.setPaused)
}

func (h *apiHandler) quote(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	coverage, err1 := queryInt64(r, "coverage")
	threshold, err2 := queryInt64(r, "price_threshold")
	duration, err3 := queryInt64(r, "duration")
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "coverage, price_threshold and duration are required integers")
		return
	}

	premium, err := h.engine.QuotePremium(r.Context(), coverage, threshold, duration)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"premium": premium})
}

func (h *apiHandler) openPolicy(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Account        uuid.UUID `json:"account"`
		Coverage       int64     `json:"coverage"`
		PriceThreshold int64     `json:"price_threshold"`
		Duration       int64     `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Account == uuid.Nil {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}

	pol, err := h.engine.Open(r.Context(), req.Account, req.Coverage, req.PriceThreshold, req.Duration)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pol)
}

func (h *apiHandler) settle(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	account, ok := h.pathAccount(w, pathParams)
	if !ok {
		return
	}

	res, err := h.engine.Settle(r.Context(), account)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":            res.Outcome.String(),
		"paid":               res.Paid,
		"remaining_coverage": res.Remaining,
		"reason":             res.Reason,
	})
}

func (h *apiHandler) expire(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	account, ok := h.pathAccount(w, pathParams)
	if !ok {
		return
	}
	if err := h.engine.Expire(r.Context(), account); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "expired"})
}

func (h *apiHandler) getPolicy(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	account, ok := h.pathAccount(w, pathParams)
	if !ok {
		return
	}
	pol, err := h.query.GetPolicy(account)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pol)
}

func (h *apiHandler) pool(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	summary, err := h.query.GetPool(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *apiHandler) listClaims(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	account, ok := h.pathAccount(w, pathParams)
	if !ok {
		return
	}
	limit, _ := queryInt64(r, "limit")
	offset, _ := queryInt64(r, "offset")

	claims, err := h.query.ListClaims(r.Context(), account, int(limit), int(offset))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": claims})
}

func (h *apiHandler) events(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	from, _ := queryInt64(r, "from")
	limit, _ := queryInt64(r, "limit")

	events, err := h.query.ListEvents(r.Context(), from, int(limit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *apiHandler) updateParameter(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Admin uuid.UUID `json:"admin"`
		Name  string    `json:"name"`
		Value int64     `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := params.KindFromName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.UpdateParameter(r.Context(), req.Admin, kind, req.Value); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *apiHandler) setKeeper(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Admin  uuid.UUID `json:"admin"`
		Keeper uuid.UUID `json:"keeper"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.SetKeeper(r.Context(), req.Admin, req.Keeper); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *apiHandler) withdraw(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Admin     uuid.UUID `json:"admin"`
		Recipient uuid.UUID `json:"recipient"`
		Amount    int64     `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.engine.WithdrawExcess(r.Context(), req.Admin, req.Recipient, req.Amount); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (h *apiHandler) batchExpire(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Caller   uuid.UUID   `json:"caller"`
		Accounts []uuid.UUID `json:"accounts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	expired, err := h.engine.BatchExpire(r.Context(), req.Caller, req.Accounts)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": expired})
}

func (h *apiHandler) setPaused(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req struct {
		Admin  uuid.UUID `json:"admin"`
		Paused bool      `json:"paused"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if h.access == nil || !h.access.IsAdministrator(req.Admin) {
		writeError(w, http.StatusForbidden, engine.ErrUnauthorized.Error())
		return
	}
	if h.pause == nil {
		writeError(w, http.StatusNotImplemented, "pause switch not configured")
		return
	}
	h.pause.SetPaused(req.Paused)
	h.logger.Warn().
		Str("admin", req.Admin.String()).
		Bool("paused", req.Paused).
		Msg("pause state changed")
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

func (h *apiHandler) pathAccount(w http.ResponseWriter, pathParams map[string]string) (uuid.UUID, bool) {
	raw, ok := pathParams["account"]
	if !ok {
		writeError(w, http.StatusBadRequest, "account is required")
		return uuid.Nil, false
	}
	account, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account: "+err.Error())
		return uuid.Nil, false
	}
	return account, true
}

// writeEngineError maps engine errors onto HTTP statuses.
func (h *apiHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrNoActivePolicy):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrPolicyExists),
		errors.Is(err, engine.ErrNotExpired),
		errors.Is(err, engine.ErrReentrantCall):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrPaused):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, engine.ErrInvalidCoverage),
		errors.Is(err, engine.ErrInsufficientCapacity),
		errors.Is(err, engine.ErrExceedsExcess),
		errors.Is(err, engine.ErrOracleUnhealthy),
		errors.Is(err, pricing.ErrInvalidDuration),
		errors.Is(err, pricing.ErrInvalidThreshold),
		errors.Is(err, pricing.ErrInvalidCoverage),
		errors.Is(err, params.ErrUnknownParameter):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt64(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
}
