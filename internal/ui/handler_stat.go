package ui

import (
	"net/http"

	"github.com/minhlq/github-harvester/internal/model"
)

// RunStat is the list-view shape of one harvest run.
type RunStat struct {
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt"`
	DurationSec int64  `json:"durationSec"`
	Collected   int64  `json:"collected"`
	Enriched    int64  `json:"enriched"`
	Failed      int64  `json:"failed"`
	Skipped     int64  `json:"skipped"`
}

func (h *Handler) getRunStats(w http.ResponseWriter, r *http.Request) {
	var stats []model.RunStat
	result := h.db.Model(&model.RunStat{}).Order("started_at DESC").Limit(50).Find(&stats)
	if result.Error != nil {
		h.Logger.Error(r.Context(), "Failed to fetch run stats: %v", result.Error)
		http.Error(w, "Failed to fetch run stats", http.StatusInternalServerError)
		return
	}

	items := make([]RunStat, 0, len(stats))
	for _, stat := range stats {
		items = append(items, RunStat{
			StartedAt:   stat.StartedAt.Format("2006-01-02 15:04:05"),
			FinishedAt:  stat.FinishedAt.Format("2006-01-02 15:04:05"),
			DurationSec: stat.DurationSec,
			Collected:   stat.Collected,
			Enriched:    stat.Enriched,
			Failed:      stat.Failed,
			Skipped:     stat.Skipped,
		})
	}

	h.writeJSON(w, r, map[string]interface{}{"runs": items})
}
