package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	authorization "aegis/contexts/identity-access/resource-authorization"
	authzerrors "aegis/contexts/identity-access/resource-authorization/domain/errors"
	authzhttp "aegis/contexts/identity-access/resource-authorization/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "aegis/internal/platform/httpserver/docs"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	authorization authorization.Module
}

func New(
	authorizationModule authorization.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8203"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		authorization: authorizationModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/v1/authorization/grant", s.handleGrant)
	s.mux.HandleFunc("POST /api/v1/authorization/revoke", s.handleRevoke)
	s.mux.HandleFunc("POST /api/v1/authorization/check-access", s.handleCheckAccess)
	s.mux.HandleFunc("POST /api/v1/authorization/check-access/batch", s.handleCheckAccessBatch)
	s.mux.HandleFunc("GET /api/v1/authorization/users/{user_id}/grants", s.handleListGrants)
	s.mux.HandleFunc("POST /api/v1/authorization/resource-configs", s.handleRegisterPolicy)
	s.mux.HandleFunc("GET /api/v1/authorization/resource-configs", s.handleListPolicies)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.authorization.Handler.GrantAccessHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.authorization.Handler.RevokeGrantHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CheckAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.authorization.Handler.CheckAccessHandler(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckAccessBatch(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CheckAccessBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.authorization.Handler.CheckAccessBatchHandler(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListGrants(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	query := r.URL.Query()

	resp, err := s.authorization.Handler.ListGrantsHandler(
		r.Context(),
		userID,
		query.Get("resource_type"),
		query.Get("resource_name"),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterPolicy(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.RegisterPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.authorization.Handler.RegisterPolicyHandler(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	resp, err := s.authorization.Handler.ListPoliciesHandler(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidUserID),
		errors.Is(err, authzerrors.ErrInvalidResourceType),
		errors.Is(err, authzerrors.ErrInvalidResourceName),
		errors.Is(err, authzerrors.ErrInvalidAccessLevel),
		errors.Is(err, authzerrors.ErrInvalidSubscription),
		errors.Is(err, authzerrors.ErrInvalidGrantID):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrGrantNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, authzerrors.ErrGrantAlreadyRevoked),
		errors.Is(err, authzerrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
