package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"voipbits/internal/constants"
	"voipbits/internal/errors"
	"voipbits/internal/middleware"
	"voipbits/internal/models"
	"voipbits/internal/service"
	"voipbits/internal/tracing"
)

// maxEnvelopeBytes bounds the request body; a credential envelope is a
// few hundred bytes of base64.
const maxEnvelopeBytes = 8 * 1024

type Server struct {
	router *mux.Router
	logger *logrus.Logger
	relay  *service.RelayService
	fanout *service.NotificationFanout
	server *http.Server
	addr   string
}

func NewServer(addr string, relay *service.RelayService, fanout *service.NotificationFanout, logger *logrus.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		relay:  relay,
		fanout: fanout,
		addr:   addr,
	}

	s.router.Use(middleware.Observability(logger))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	// Softphone-facing operations carry the credential envelope as the
	// POST body.
	s.router.HandleFunc("/send", s.handleSend()).Methods(http.MethodPost)
	s.router.HandleFunc("/fetch", s.handleFetch()).Methods(http.MethodPost)
	s.router.HandleFunc("/report", s.handleReport()).Methods(http.MethodPost)
	s.router.HandleFunc("/provision", s.handleProvision()).Methods(http.MethodPost)

	// Provider callback, registered via provisioning.
	s.router.HandleFunc("/notify", s.handleNotify()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}

	s.logger.WithField("addr", s.addr).Info("Starting server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// readEnvelope drains the request body. An empty body surfaces later
// as a missing-account-info error from the relay.
func (s *Server) readEnvelope(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeBytes))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read request body")
	}
	return string(body), nil
}

func requireQuery(r *http.Request, name string) (string, error) {
	if !r.URL.Query().Has(name) {
		return "", errors.NewMissingParameterError(name)
	}
	return r.URL.Query().Get(name), nil
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope, err := s.readEnvelope(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		to, err := requireQuery(r, "to")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		body, err := requireQuery(r, "body")
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		id, err := s.relay.Send(r.Context(), envelope, to, body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"sms_id": id})
	}
}

func (s *Server) handleFetch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope, err := s.readEnvelope(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var lastID *string
		if r.URL.Query().Has("last_id") {
			id := r.URL.Query().Get("last_id")
			lastID = &id
		}

		resp, err := s.relay.Fetch(r.Context(), envelope, lastID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope, err := s.readEnvelope(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		token, err := requireQuery(r, "token")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		appID, err := requireQuery(r, "appid")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		selector, err := requireQuery(r, "selector")
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		reg := models.PushRegistration{AppID: appID, PushToken: token, Selector: selector}
		if err := s.relay.Report(r.Context(), envelope, reg); err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleProvision() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelope, err := s.readEnvelope(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		xml, err := s.relay.Provision(r.Context(), envelope)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(xml)); err != nil {
			s.logger.WithError(err).Error("Failed to write provision response")
		}
	}
}

func (s *Server) handleNotify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message, err := requireQuery(r, "message")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		from, err := requireQuery(r, "from")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		did, err := requireQuery(r, "to")
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if err := s.fanout.Deliver(r.Context(), did, from, message); err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatusCode(err)
	requestInfo := tracing.GetRequestInfo(r.Context())

	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		service.LogFieldRequestID: requestInfo.RequestID,
		service.LogFieldTraceID:   requestInfo.TraceID,
		service.LogFieldURL:       r.URL.Path,
	})
	if status >= 500 {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(errors.ToHTTPResponse(err, requestInfo.RequestID)); encErr != nil {
		s.logger.WithError(encErr).Error("Failed to encode error response")
	}
}
