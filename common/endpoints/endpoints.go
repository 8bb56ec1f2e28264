// Package endpoints serves the admin HTTP surface shared by the heft binaries:
// a health check and a JSON rendering of the process stats.
package endpoints

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/heft/common/stats"
)

// Addr is the bind address (host:port) of the admin server.
type Addr string

func NewTwitterServer(addr Addr, stat stats.StatsReceiver) *TwitterServer {
	s := &TwitterServer{
		Addr:   addr,
		Stats:  stat,
		Router: mux.NewRouter(),
	}
	s.Router.HandleFunc("/", helpHandler)
	s.Router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	s.Router.HandleFunc("/admin/metrics.json", s.statsHandler).Methods(http.MethodGet)
	return s
}

type TwitterServer struct {
	Addr   Addr
	Stats  stats.StatsReceiver
	Router *mux.Router
}

// Serve blocks until the listener fails.
func (s *TwitterServer) Serve() error {
	log.Infof("Serving http & stats on %s", s.Addr)
	return http.ListenAndServe(string(s.Addr), s.Router)
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Common paths: '/health', '/admin/metrics.json'", http.StatusNotImplemented)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (s *TwitterServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	pretty := r.URL.Query().Get("pretty") == "true"
	if _, err := w.Write(s.Stats.Render(pretty)); err != nil {
		log.Errorf("Failed writing stats response: %v", err)
	}
}
