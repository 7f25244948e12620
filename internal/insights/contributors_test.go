package insights

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmensah/gitlab-insights/internal/models"
)

func TestCanonicalPrecedence(t *testing.T) {
	r := NewResolver(map[string][]string{
		"Alice J.": {"alice@x.com", "alice.j"},
		"Bob":      {"robert", "bob@y.com"},
	})

	// Exact email match
	assert.Equal(t, "Alice J.", r.Canonical("A. Johnson", "alice@x.com"))
	// Exact name match
	assert.Equal(t, "Alice J.", r.Canonical("alice.j", "someone@else.com"))
	// Case-insensitive name match
	assert.Equal(t, "Bob", r.Canonical("ROBERT", ""))
	// Email local part match
	assert.Equal(t, "Alice J.", r.Canonical("Unknown", "alice.j@corp.example"))
	// Canonical name matches itself regardless of case
	assert.Equal(t, "Alice J.", r.Canonical("alice j.", ""))
	// Unmapped identities become their own canonical contributor
	assert.Equal(t, "Carol", r.Canonical("Carol", "carol@z.com"))
}

func TestCanonicalEmailWinsOverName(t *testing.T) {
	r := NewResolver(map[string][]string{
		"Alice J.": {"alice@x.com"},
		"Bob":      {"shared-name"},
	})

	// The email alias binds harder than the name alias.
	assert.Equal(t, "Alice J.", r.Canonical("shared-name", "alice@x.com"))
}

func TestResolveMergesAliases(t *testing.T) {
	r := NewResolver(map[string][]string{
		"Alice J.": {"alice@x.com", "alice.j"},
	})

	raw := []models.RawIdentity{
		{Name: "alice.j", Email: "a@old.com", Project: "acme/app", Commits: 30, Additions: 100, Deletions: 40},
		{Name: "A. Johnson", Email: "alice@x.com", Project: "acme/lib", Commits: 12, Additions: 50, Deletions: 10},
		{Name: "Carol", Email: "carol@z.com", Project: "acme/app", Commits: 5},
	}

	resolved := r.Resolve(raw)
	require.Len(t, resolved, 2)

	alice := resolved[0]
	assert.Equal(t, "Alice J.", alice.Name)
	assert.Equal(t, 42, alice.Commits)
	assert.Equal(t, 150, alice.Additions)
	assert.Equal(t, 50, alice.Deletions)
	assert.Equal(t, []string{"A. Johnson", "alice.j"}, alice.Aliases)
	assert.Equal(t, []string{"a@old.com", "alice@x.com"}, alice.Emails)
	assert.Equal(t, []string{"acme/app", "acme/lib"}, alice.Projects)

	carol := resolved[1]
	assert.Equal(t, "Carol", carol.Name)
	assert.Equal(t, 5, carol.Commits)
	assert.Empty(t, carol.Aliases)
}

func TestResolveOrderIndependent(t *testing.T) {
	r := NewResolver(map[string][]string{
		"Alice J.": {"alice@x.com", "alice.j"},
		"Bob":      {"robert"},
	})

	raw := []models.RawIdentity{
		{Name: "alice.j", Email: "a@old.com", Project: "p1", Commits: 3},
		{Name: "A. Johnson", Email: "alice@x.com", Project: "p2", Commits: 7},
		{Name: "robert", Email: "bob@y.com", Project: "p1", Commits: 2},
		{Name: "Bob", Email: "bob@y.com", Project: "p3", Commits: 9},
		{Name: "Dora", Email: "dora@z.com", Project: "p2", Commits: 1},
	}

	want := r.Resolve(raw)
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]models.RawIdentity, len(raw))
		copy(shuffled, raw)
		rnd.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, r.Resolve(shuffled))
	}
}

func TestResolveEmptyInput(t *testing.T) {
	r := NewResolver(nil)
	assert.Empty(t, r.Resolve(nil))
}
