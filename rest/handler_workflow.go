package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
)

func (s *Server) HandleEnsureWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenantID := vars["tid"]
	var def model.WorkflowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	if err := s.container.GetWorkflowEngine().EnsureExists(tenantID, &def); err != nil {
		logger.Error("error creating workflow",
			zap.String("tenant", tenantID), zap.String("workflow", def.ID), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error creating workflow")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"id": def.ID})
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenantID, workflowID := vars["tid"], vars["id"]
	def, err := s.container.GetWorkflowEngine().FetchDefinition(tenantID, workflowID)
	if err != nil {
		logger.Error("error fetching workflow", zap.String("workflow", workflowID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error fetching workflow")
		return
	}
	if def == nil {
		respondWithError(w, http.StatusNotFound, "workflow does not exist")
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}
