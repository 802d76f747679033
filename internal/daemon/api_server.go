package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"trickplay/internal/convert"
	"trickplay/internal/logging"
	"trickplay/internal/progress"
)

// triggerWindow is how long a trigger handler waits for a run to either be
// rejected by the gate or finish outright before answering "started".
const triggerWindow = 100 * time.Millisecond

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/convert", srv.handleConvert)
	mux.HandleFunc("/api/convert/log", srv.progressHandler(d.converter.ConvertLog))
	mux.HandleFunc("/api/clean", srv.handleClean)
	mux.HandleFunc("/api/clean/log", srv.progressHandler(d.converter.CleanLog))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts := convert.ConvertOptions{Force: boolQuery(r, "force")}
	s.trigger(w, "conversion", func() error {
		_, err := s.daemon.converter.RunConversion(context.Background(), opts)
		return err
	})
}

func (s *apiServer) handleClean(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts := convert.CleanOptions{
		Force:          boolQuery(r, "force"),
		DeleteNonEmpty: boolQuery(r, "delete_non_empty"),
	}
	s.trigger(w, "cleanup", func() error {
		_, err := s.daemon.converter.RunCleanup(context.Background(), opts)
		return err
	})
}

// trigger starts run in the background. A gate rejection surfaces immediately
// as 409; runs still going after the trigger window answer 202 and are left
// to the progress log endpoints.
func (s *apiServer) trigger(w http.ResponseWriter, name string, run func() error) {
	errCh := make(chan error, 1)
	go func() {
		errCh <- run()
	}()

	select {
	case err := <-errCh:
		switch {
		case errors.Is(err, convert.ErrBusy):
			s.writeError(w, http.StatusConflict, name+" run already in progress")
		case err != nil:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		default:
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
		}
	case <-time.After(triggerWindow):
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	}
}

// progressHandler serves a progress buffer snapshot as plain text.
func (s *apiServer) progressHandler(source func() *progress.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(source().Render())); err != nil {
			s.log().Error("failed to write progress snapshot", logging.Error(err))
		}
	}
}

func boolQuery(r *http.Request, key string) bool {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.WithComponent(s.logger, "api-server")
}
