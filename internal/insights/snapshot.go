package insights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/kmensah/gitlab-insights/internal/errors"
	"github.com/kmensah/gitlab-insights/internal/gitlab"
	"github.com/kmensah/gitlab-insights/internal/models"
)

// Snapshot section names used for degradation reporting.
const (
	sectionCommits      = "commits"
	sectionIssues       = "issues"
	sectionMerges       = "merges"
	sectionContributors = "contributors"
)

// Fetcher is the slice of the GitLab client the builder needs.
type Fetcher interface {
	GetProject(ctx context.Context, projectID string) (*gitlab.Project, error)
	GetGroup(ctx context.Context, groupID string) (*gitlab.Group, error)
	GetGroupProjects(ctx context.Context, groupID string) ([]*gitlab.Project, error)
	GetCommits(ctx context.Context, projectID string, since, until time.Time) ([]*gitlab.Commit, error)
	GetIssues(ctx context.Context, projectID string, since, until time.Time) ([]*gitlab.Issue, error)
	GetMergeRequests(ctx context.Context, projectID string, since, until time.Time) ([]*gitlab.MergeRequest, error)
	GetContributors(ctx context.Context, projectID string) ([]*gitlab.Contributor, error)
}

// Builder assembles normalized activity snapshots for projects and groups.
// Section fetches run concurrently; a section whose fetch fails fatally is
// dropped from the snapshot with its reason recorded, and only a snapshot
// with no usable section at all is an error.
type Builder struct {
	fetcher       Fetcher
	resolver      *Resolver
	workflowOrder []string
	maxConcurrent int
	logger        *logrus.Logger
	now           func() time.Time
}

// NewBuilder wires a builder. maxConcurrent bounds how many projects of a
// group are fetched in parallel; values below 1 are treated as 1.
func NewBuilder(fetcher Fetcher, resolver *Resolver, workflowOrder []string, maxConcurrent int, logger *logrus.Logger) *Builder {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Builder{
		fetcher:       fetcher,
		resolver:      resolver,
		workflowOrder: workflowOrder,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		now:           time.Now,
	}
}

// projectData is the raw per-project fetch result before aggregation.
type projectData struct {
	project      *gitlab.Project
	commits      []*gitlab.Commit
	issues       []*gitlab.Issue
	merges       []*gitlab.MergeRequest
	contributors []*gitlab.Contributor
	errs         map[string]error
}

// Build fetches and aggregates the snapshot for a target over a window. The
// target itself must exist; unknown projects and groups return a not found
// error rather than an empty snapshot.
func (b *Builder) Build(ctx context.Context, target models.Target, window models.Window) (*models.Snapshot, error) {
	switch target.Kind {
	case models.TargetProject:
		project, err := b.fetcher.GetProject(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		data := b.fetchProject(ctx, project, window)
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewDeadlineExceededError("snapshot build interrupted", err)
		}
		return b.assemble(target, window, []*projectData{data})
	case models.TargetGroup:
		return b.buildGroup(ctx, target, window)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown target kind %q", target.Kind), nil)
	}
}

func (b *Builder) buildGroup(ctx context.Context, target models.Target, window models.Window) (*models.Snapshot, error) {
	projects, err := b.fetcher.GetGroupProjects(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, apperrors.NewInsufficientDataError("group "+target.ID, nil)
	}

	results := make([]*projectData, len(projects))
	sem := make(chan struct{}, b.maxConcurrent)
	var wg sync.WaitGroup
	for i, project := range projects {
		wg.Add(1)
		go func(i int, project *gitlab.Project) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = b.fetchProject(ctx, project, window)
		}(i, project)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDeadlineExceededError("snapshot build interrupted", err)
	}
	return b.assemble(target, window, results)
}

// fetchProject gathers the four raw sections of one project concurrently.
// A not found answer on a section means the project simply has none of that
// resource and is treated as empty.
func (b *Builder) fetchProject(ctx context.Context, project *gitlab.Project, window models.Window) *projectData {
	id := fmt.Sprintf("%d", project.ID)
	data := &projectData{project: project, errs: make(map[string]error)}

	var wg sync.WaitGroup
	var mu sync.Mutex
	run := func(section string, fetch func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fetch()
			if err == nil || apperrors.IsNotFound(err) {
				return
			}
			mu.Lock()
			data.errs[section] = err
			mu.Unlock()
			b.logger.WithFields(logrus.Fields{
				"project": project.PathWithNamespace,
				"section": section,
			}).WithError(err).Warn("snapshot section fetch failed")
		}()
	}

	run(sectionCommits, func() error {
		commits, err := b.fetcher.GetCommits(ctx, id, window.Since, window.Until)
		data.commits = commits
		return err
	})
	run(sectionIssues, func() error {
		issues, err := b.fetcher.GetIssues(ctx, id, window.Since, window.Until)
		data.issues = issues
		return err
	})
	run(sectionMerges, func() error {
		merges, err := b.fetcher.GetMergeRequests(ctx, id, window.Since, window.Until)
		data.merges = merges
		return err
	})
	run(sectionContributors, func() error {
		contributors, err := b.fetcher.GetContributors(ctx, id)
		data.contributors = contributors
		return err
	})
	wg.Wait()
	return data
}

// assemble merges raw per-project data into one snapshot. A section survives
// if at least one project delivered it; it is dropped only when every
// project's fetch for it failed.
func (b *Builder) assemble(target models.Target, window models.Window, data []*projectData) (*models.Snapshot, error) {
	snap := &models.Snapshot{
		Target:        target,
		Window:        window,
		ProjectCount:  len(data),
		SectionErrors: make(map[string]string),
		BuiltAt:       b.now().UTC(),
	}

	var commits []*gitlab.Commit
	var issues []*gitlab.Issue
	var merges []*gitlab.MergeRequest
	var identities []models.RawIdentity
	failed := map[string]int{}

	for _, d := range data {
		for section, err := range d.errs {
			failed[section]++
			key := section
			if len(data) > 1 {
				key = section + "/" + d.project.PathWithNamespace
			}
			snap.SectionErrors[key] = err.Error()
		}
		if _, bad := d.errs[sectionCommits]; !bad {
			commits = append(commits, d.commits...)
		}
		if _, bad := d.errs[sectionIssues]; !bad {
			issues = append(issues, d.issues...)
		}
		if _, bad := d.errs[sectionMerges]; !bad {
			merges = append(merges, d.merges...)
		}
		if _, bad := d.errs[sectionContributors]; !bad {
			for _, c := range d.contributors {
				identities = append(identities, models.RawIdentity{
					Name:      c.Name,
					Email:     c.Email,
					Project:   d.project.PathWithNamespace,
					Commits:   c.Commits,
					Additions: c.Additions,
					Deletions: c.Deletions,
				})
			}
		}
	}

	if failed[sectionCommits] < len(data) {
		snap.Commits = b.commitMetrics(commits, window)
	}
	if failed[sectionIssues] < len(data) {
		snap.Issues = b.issueMetrics(issues, window)
	}
	if failed[sectionMerges] < len(data) {
		snap.Merges = b.mergeMetrics(merges, window)
	}
	if failed[sectionContributors] < len(data) {
		resolved := b.resolver.Resolve(identities)
		snap.Contributors = &models.ContributorMetrics{
			Total:        len(resolved),
			Contributors: resolved,
		}
	}

	if snap.Commits == nil && snap.Issues == nil && snap.Merges == nil && snap.Contributors == nil {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("%s %s", target.Kind, target.ID), nil)
	}
	if len(snap.SectionErrors) == 0 {
		snap.SectionErrors = nil
	}
	return snap, nil
}

func (b *Builder) commitMetrics(commits []*gitlab.Commit, window models.Window) *models.CommitMetrics {
	m := &models.CommitMetrics{ByAuthor: make(map[string]int)}

	byDay := make(map[time.Time]int)
	weekdays := make(map[time.Weekday]int)
	goodMessages := 0
	weeks := int(math.Ceil(window.Weeks()))
	if weeks < 1 {
		weeks = 1
	}
	weekly := make([]float64, weeks)

	for _, c := range commits {
		if !window.Contains(c.CreatedAt) {
			continue
		}
		m.Total++
		m.Additions += c.Stats.Additions
		m.Deletions += c.Stats.Deletions
		m.ByAuthor[b.resolver.Canonical(c.AuthorName, c.AuthorEmail)]++

		day := c.CreatedAt.UTC().Truncate(24 * time.Hour)
		byDay[day]++
		weekdays[c.CreatedAt.UTC().Weekday()]++

		week := int(c.CreatedAt.Sub(window.Since).Hours() / (24 * 7))
		if week >= 0 && week < weeks {
			weekly[week]++
		}
		if goodCommitMessage(c.Message) {
			goodMessages++
		}
	}

	m.UniqueAuthors = len(m.ByAuthor)
	m.WeeklyAverage = float64(m.Total) / window.Weeks()
	m.TrendCoefficient = trendCoefficient(weekly)
	m.MostActiveDay = mostActiveWeekday(weekdays)
	if m.Total > 0 {
		m.MessageQuality = float64(goodMessages) / float64(m.Total) * 100
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	for _, day := range days {
		m.PerDay = append(m.PerDay, models.MetricSample{Bucket: day, Count: byDay[day]})
	}
	return m
}

func (b *Builder) issueMetrics(issues []*gitlab.Issue, window models.Window) *models.IssueMetrics {
	m := &models.IssueMetrics{
		ByLabel:         make(map[string]int),
		ByWorkflowState: make(map[string]int),
	}
	ref := b.now().UTC()
	var resolutionDays []float64

	for _, issue := range issues {
		if !window.Contains(issue.CreatedAt) {
			continue
		}
		m.Total++
		switch issue.State {
		case "closed":
			m.Closed++
			if issue.ClosedAt != nil && issue.ClosedAt.After(issue.CreatedAt) {
				resolutionDays = append(resolutionDays, issue.ClosedAt.Sub(issue.CreatedAt).Hours()/24)
			}
		default:
			m.Open++
		}
		if issue.Assignee == nil && issue.State == "opened" {
			m.Unassigned++
		}
		if issue.Overdue(ref) {
			m.Overdue++
		}
		for _, label := range issue.Labels {
			m.ByLabel[label]++
		}
		if state := b.workflowState(issue.Labels); state != "" {
			m.ByWorkflowState[state]++
		}
	}

	if m.Total > 0 {
		m.ClosureRate = float64(m.Closed) / float64(m.Total)
	}
	m.ResolvedCount = len(resolutionDays)
	if m.ResolvedCount > 0 {
		m.AvgResolutionDays = mean(resolutionDays)
		m.MedianResolutionDays = median(resolutionDays)
	}
	return m
}

func (b *Builder) mergeMetrics(merges []*gitlab.MergeRequest, window models.Window) *models.MergeMetrics {
	m := &models.MergeMetrics{}
	authors := make(map[string]struct{})
	var mergeHours []float64

	for _, mr := range merges {
		if !window.Contains(mr.CreatedAt) {
			continue
		}
		m.Total++
		switch mr.State {
		case "merged":
			m.Merged++
			if mr.MergedAt != nil && mr.MergedAt.After(mr.CreatedAt) {
				mergeHours = append(mergeHours, mr.MergedAt.Sub(mr.CreatedAt).Hours())
			}
		case "closed":
			m.Closed++
		default:
			m.Open++
		}
		if mr.Author != nil {
			authors[mr.Author.Username] = struct{}{}
		}
	}

	if m.Total > 0 {
		m.MergeRate = float64(m.Merged) / float64(m.Total)
	}
	m.MergedWithTime = len(mergeHours)
	if m.MergedWithTime > 0 {
		m.AvgMergeHours = mean(mergeHours)
		m.MedianMergeHours = median(mergeHours)
	}
	m.Authors = len(authors)
	return m
}

// workflowState returns the first configured workflow label an issue
// carries; earlier entries in the configured ordering take precedence.
func (b *Builder) workflowState(labels []string) string {
	for _, state := range b.workflowOrder {
		for _, label := range labels {
			if strings.EqualFold(label, state) {
				return state
			}
		}
	}
	return ""
}

// trendCoefficient is the least squares slope of the weekly counts,
// normalized by the mean and clamped to [-1, 1]. Fewer than two buckets, or
// no activity at all, yields zero.
func trendCoefficient(weekly []float64) float64 {
	n := len(weekly)
	if n < 2 {
		return 0
	}
	yMean := mean(weekly)
	if yMean == 0 {
		return 0
	}
	xMean := float64(n-1) / 2
	var num, den float64
	for i, y := range weekly {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	slope := num / den / yMean
	return math.Max(-1, math.Min(1, slope))
}

// mostActiveWeekday breaks count ties in weekday order starting at Sunday.
func mostActiveWeekday(counts map[time.Weekday]int) string {
	best := -1
	var bestDay time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if counts[day] > best {
			best = counts[day]
			bestDay = day
		}
	}
	if best <= 0 {
		return ""
	}
	return bestDay.String()
}

// goodCommitMessage applies the hygiene heuristic: a subject line that is
// neither trivially short nor overflowing the conventional 72 columns.
func goodCommitMessage(message string) bool {
	subject := message
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		subject = message[:idx]
	}
	subject = strings.TrimSpace(subject)
	return len(subject) >= 10 && len(subject) <= 72
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
