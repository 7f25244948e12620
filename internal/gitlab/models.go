package gitlab

import "time"

// Project is a GitLab project as returned by the projects endpoints.
type Project struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	PathWithNamespace string    `json:"path_with_namespace"`
	DefaultBranch     string    `json:"default_branch"`
	Visibility        string    `json:"visibility"`
	Archived          bool      `json:"archived"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// Group is a GitLab group.
type Group struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
}

// CommitStats are the line change counters of a single commit.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// Commit is a repository commit. ID is the full SHA.
type Commit struct {
	ID          string      `json:"id"`
	ShortID     string      `json:"short_id"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	AuthorName  string      `json:"author_name"`
	AuthorEmail string      `json:"author_email"`
	CreatedAt   time.Time   `json:"created_at"`
	Stats       CommitStats `json:"stats"`
}

// User is the author/assignee shape embedded in issues and merge requests.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Issue is a project issue.
type Issue struct {
	ID        int        `json:"id"`
	IID       int        `json:"iid"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Labels    []string   `json:"labels"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	DueDate   string     `json:"due_date"`
	Author    *User      `json:"author"`
	Assignee  *User      `json:"assignee"`
	ClosedBy  *User      `json:"closed_by"`
}

// Overdue reports whether an open issue is past its due date at ref time.
func (i *Issue) Overdue(ref time.Time) bool {
	if i.State != "opened" || i.DueDate == "" {
		return false
	}
	due, err := time.Parse("2006-01-02", i.DueDate)
	if err != nil {
		return false
	}
	return due.Before(ref)
}

// MergeRequest is a project merge request.
type MergeRequest struct {
	ID        int        `json:"id"`
	IID       int        `json:"iid"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at"`
	Author    *User      `json:"author"`
}

// Contributor is a raw repository contributor identity, keyed by the
// name/email pair git recorded.
type Contributor struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Commits   int    `json:"commits"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}
