package insights

import (
	"sort"
	"strings"

	"github.com/kmensah/gitlab-insights/internal/models"
)

// Resolver merges raw author identities into canonical contributors using a
// configured alias map. Resolution is total: every raw identity lands on
// exactly one canonical contributor, and unmapped identities become their
// own canonical contributor keyed by their raw name.
type Resolver struct {
	byName  map[string]string
	byEmail map[string]string
}

// NewResolver builds lookup tables from the configured alias map. Alias
// matching is case-insensitive; aliases containing '@' are additionally
// indexed as emails.
func NewResolver(aliasMap map[string][]string) *Resolver {
	r := &Resolver{
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
	}
	for canonical, aliases := range aliasMap {
		r.byName[strings.ToLower(canonical)] = canonical
		for _, alias := range aliases {
			lower := strings.ToLower(alias)
			r.byName[lower] = canonical
			if strings.Contains(alias, "@") {
				r.byEmail[lower] = canonical
			}
		}
	}
	return r
}

// Canonical maps one raw name/email pair to its canonical contributor name.
// Precedence: exact email, name, then the email local part. Unmapped
// identities resolve to their own raw name.
func (r *Resolver) Canonical(name, email string) string {
	if email != "" {
		if canonical, ok := r.byEmail[strings.ToLower(email)]; ok {
			return canonical
		}
	}
	if canonical, ok := r.byName[strings.ToLower(name)]; ok {
		return canonical
	}
	if email != "" {
		local := strings.ToLower(strings.SplitN(email, "@", 2)[0])
		if canonical, ok := r.byName[local]; ok {
			return canonical
		}
	}
	return name
}

// Resolve folds raw identities into the canonical contributor set, summing
// metrics per canonical contributor across all of its raw identities and
// projects. The result is independent of input order.
func (r *Resolver) Resolve(raw []models.RawIdentity) []*models.CanonicalContributor {
	sorted := make([]models.RawIdentity, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		if sorted[i].Email != sorted[j].Email {
			return sorted[i].Email < sorted[j].Email
		}
		return sorted[i].Project < sorted[j].Project
	})

	merged := make(map[string]*models.CanonicalContributor)
	aliases := make(map[string]map[string]struct{})
	emails := make(map[string]map[string]struct{})
	projects := make(map[string]map[string]struct{})

	for _, id := range sorted {
		canonical := r.Canonical(id.Name, id.Email)
		c, ok := merged[canonical]
		if !ok {
			c = &models.CanonicalContributor{Name: canonical}
			merged[canonical] = c
			aliases[canonical] = make(map[string]struct{})
			emails[canonical] = make(map[string]struct{})
			projects[canonical] = make(map[string]struct{})
		}
		c.Commits += id.Commits
		c.Additions += id.Additions
		c.Deletions += id.Deletions
		if id.Name != "" && id.Name != canonical {
			aliases[canonical][id.Name] = struct{}{}
		}
		if id.Email != "" {
			emails[canonical][id.Email] = struct{}{}
		}
		if id.Project != "" {
			projects[canonical][id.Project] = struct{}{}
		}
	}

	out := make([]*models.CanonicalContributor, 0, len(merged))
	for canonical, c := range merged {
		c.Aliases = sortedKeys(aliases[canonical])
		c.Emails = sortedKeys(emails[canonical])
		c.Projects = sortedKeys(projects[canonical])
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
