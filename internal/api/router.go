// Package api exposes the command gateway over HTTP: one POST route
// per command name, flat JSON payloads in both directions.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tavisham/lobbygate/internal/command"
	"github.com/tavisham/lobbygate/internal/middleware"
)

// maxBodyBytes bounds a command payload. Commands are small key/value
// maps; anything past this is garbage.
const maxBodyBytes = 1 << 20

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Dispatcher *command.Dispatcher
}

// NewRouter creates the API router. Every command shares one handler;
// the dispatcher resolves the name from the request path.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, panicHandler))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/{command:.+}", commandHandler(cfg)).Methods(http.MethodPost)

	return r
}

func commandHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["command"]

		fields, err := decodeFields(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, command.Fail("Malformed request"))
			return
		}

		req := &command.Request{
			Command: name,
			Origin:  r.RemoteAddr,
			Fields:  fields,
		}

		resp, found := cfg.Dispatcher.Dispatch(r.Context(), req)
		if !found {
			// Web app methods address the app by path; retry with the
			// trailing segment as the method field.
			if rewritten, ok := rewriteWebApp(req); ok {
				resp, found = cfg.Dispatcher.Dispatch(r.Context(), rewritten)
			}
		}
		if !found {
			writeJSON(w, http.StatusNotFound, command.Fail("Unknown command"))
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// decodeFields reads the flat JSON payload. An empty body is a valid
// empty payload.
func decodeFields(r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	fields := make(map[string]any)
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return fields, nil
		}
		return nil, err
	}
	return fields, nil
}

// rewriteWebApp turns "webapp/<app>/<method>" into a request for
// "webapp/<app>" carrying the method as a field.
func rewriteWebApp(req *command.Request) (*command.Request, bool) {
	parts := strings.Split(req.Command, "/")
	if len(parts) != 3 || parts[0] != "webapp" {
		return nil, false
	}

	fields := make(map[string]any, len(req.Fields)+1)
	for key, value := range req.Fields {
		fields[key] = value
	}
	fields["method"] = parts[2]

	return &command.Request{
		Command: parts[0] + "/" + parts[1],
		Origin:  req.Origin,
		Fields:  fields,
	}, true
}

func writeJSON(w http.ResponseWriter, status int, resp command.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func panicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	writeJSON(w, http.StatusInternalServerError, command.Fail("Internal error"))
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
