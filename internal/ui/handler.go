package ui

import (
	"encoding/json"
	"net/http"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
	"gorm.io/gorm"
)

// Handler serves the JSON inspection API over the harvested tables.
type Handler struct {
	Logger log.Logger
	Config *cfg.Config
	Mysql  *db.Mysql
	db     *gorm.DB
}

func NewHandler(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*Handler, error) {
	gdb, err := mysql.Db()
	if err != nil {
		return nil, err
	}

	return &Handler{
		Logger: logger,
		Config: config,
		Mysql:  mysql,
		db:     gdb,
	}, nil
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/repos", h.getRepos)
	mux.HandleFunc("/api/run-stats", h.getRunStats)
	mux.HandleFunc("/healthz", h.getHealth)
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error(r.Context(), "Failed to encode JSON response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
