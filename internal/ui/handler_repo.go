package ui

import (
	"net/http"
	"strconv"

	"github.com/minhlq/github-harvester/internal/model"
)

// Repository is the list-view shape of a harvested repository.
type Repository struct {
	GithubID        int64  `json:"githubId"`
	FullName        string `json:"fullName"`
	Owner           string `json:"owner"`
	Language        string `json:"language"`
	Stars           int64  `json:"stars"`
	Forks           int64  `json:"forks"`
	OpenIssues      int64  `json:"openIssues"`
	BasicCompleted  bool   `json:"basicCompleted"`
	DetailCompleted bool   `json:"detailCompleted"`
	MainLanguage    string `json:"mainLanguage"`
	Contributors    int    `json:"contributors"`
	CreatedAt       string `json:"createdAt"`
}

func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	search := r.URL.Query().Get("search")
	detailOnly := r.URL.Query().Get("detailOnly") == "true"
	offset := (page - 1) * pageSize
	query := h.db.Model(&model.Repo{}).Offset(offset).Limit(pageSize).Order("stargazers_count DESC")
	if search != "" {
		search = "%" + search + "%"
		query = query.Where("full_name LIKE ? OR owner_login LIKE ?", search, search)
	}
	if detailOnly {
		query = query.Where("detail_completed = ?", true)
	}

	var repos []model.Repo
	if result := query.Find(&repos); result.Error != nil {
		h.Logger.Error(r.Context(), "Failed to fetch repositories: %v", result.Error)
		http.Error(w, "Failed to fetch repositories", http.StatusInternalServerError)
		return
	}

	// The count must see the same filters as the page, or totalPages lies.
	var totalCount int64
	countQuery := h.db.Model(&model.Repo{})
	if search != "" {
		countQuery = countQuery.Where("full_name LIKE ? OR owner_login LIKE ?", search, search)
	}
	if detailOnly {
		countQuery = countQuery.Where("detail_completed = ?", true)
	}
	countQuery.Count(&totalCount)

	repositories := make([]Repository, 0, len(repos))
	for _, repo := range repos {
		item := Repository{
			GithubID:        repo.GithubID,
			FullName:        repo.FullName,
			Owner:           repo.OwnerLogin,
			Language:        repo.Language,
			Stars:           repo.StargazersCount,
			Forks:           repo.ForksCount,
			OpenIssues:      repo.OpenIssuesCount,
			BasicCompleted:  repo.BasicCompleted,
			DetailCompleted: repo.DetailCompleted,
			MainLanguage:    repo.MainLanguage,
			Contributors:    repo.ContributorsCount,
		}
		if repo.RepoCreatedAt != nil {
			item.CreatedAt = repo.RepoCreatedAt.Format("2006-01-02")
		}
		repositories = append(repositories, item)
	}

	h.writeJSON(w, r, map[string]interface{}{
		"repositories": repositories,
		"pagination": map[string]interface{}{
			"page":       page,
			"pageSize":   pageSize,
			"totalCount": totalCount,
			"totalPages": (totalCount + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}
