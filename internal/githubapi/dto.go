// Data transfer objects for the GitHub REST API responses consumed by the
// harvester. Only the fields the engine reads are mapped.

package githubapi

import "time"

type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

type License struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type RepoItem struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     string     `json:"description"`
	HtmlUrl         string     `json:"html_url"`
	Owner           Owner      `json:"owner"`
	Size            int64      `json:"size"`
	StargazersCount int64      `json:"stargazers_count"`
	WatchersCount   int64      `json:"watchers_count"`
	ForksCount      int64      `json:"forks_count"`
	OpenIssuesCount int64      `json:"open_issues_count"`
	Language        string     `json:"language"`
	Topics          []string   `json:"topics"`
	DefaultBranch   string     `json:"default_branch"`
	License         *License   `json:"license"`
	Visibility      string     `json:"visibility"`
	Private         bool       `json:"private"`
	Fork            bool       `json:"fork"`
	Archived        bool       `json:"archived"`
	Disabled        bool       `json:"disabled"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
	PushedAt        *time.Time `json:"pushed_at"`
}

type SearchResponse struct {
	TotalCount        int        `json:"total_count"`
	IncompleteResults bool       `json:"incomplete_results"`
	Items             []RepoItem `json:"items"`
}

type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

type Branch struct {
	Name string `json:"name"`
}

type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
}

type Readme struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}
