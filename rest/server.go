package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/container"
	"github.com/docuflow/docuflow/logger"
)

type Server struct {
	http.Server
	Port      int
	container *container.DIContainer
}

func NewServer(httpPort int, container *container.DIContainer) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		container: container,
		Port:      httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/tenants/{tid}", s.HandleEnsureTenant).Methods(http.MethodPost)
	router.HandleFunc("/api/workflows/{tid}", s.HandleEnsureWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/api/workflows/{tid}/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/api/documents/{tid}", s.HandleListDocuments).Methods(http.MethodGet)
	router.HandleFunc("/api/documents/{tid}", s.HandleCreateDocument).Methods(http.MethodPost)
	router.HandleFunc("/api/documents/{tid}/{id}", s.HandleGetDocument).Methods(http.MethodGet)
	router.HandleFunc("/api/documents/{tid}/{id}", s.HandlePatchDocument).Methods(http.MethodPatch)
	router.HandleFunc("/api/documents/{tid}/{id}/parts/{part}", s.HandlePutDocumentPart).Methods(http.MethodPut)
	router.HandleFunc("/api/documents/{tid}/{id}/transitions", s.HandleGetTransitions).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.Shutdown(ctx)
	if err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithFailure(w http.ResponseWriter, failure string) {
	respondWithJSON(w, http.StatusBadRequest, map[string]string{"failure": failure})
}
