package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
)

type ensureTenantRequest struct {
	Name      string                     `json:"name,omitempty"`
	User      string                     `json:"user,omitempty"`
	Workflows []model.WorkflowDefinition `json:"workflows,omitempty"`
}

func (s *Server) HandleEnsureTenant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenantID := vars["tid"]
	var req ensureTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()

	service := s.container.GetTenantService()
	if err := service.EnsureExists(tenantID, map[string]any{"name": req.Name}); err != nil {
		logger.Error("error ensuring tenant", zap.String("tenant", tenantID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error ensuring tenant")
		return
	}
	if len(req.Workflows) > 0 {
		if err := service.EnsureDefaultWorkflows(tenantID, req.Workflows); err != nil {
			logger.Error("error ensuring default workflows", zap.String("tenant", tenantID), zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "error ensuring default workflows")
			return
		}
	}
	if req.User != "" {
		if _, err := service.EnsureUserExists(tenantID, req.User, map[string]any{"defaultTenantId": tenantID}); err != nil {
			logger.Error("error ensuring user", zap.String("user", req.User), zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "error ensuring user")
			return
		}
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"id": tenantID})
}
