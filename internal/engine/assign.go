package engine

import (
	"fmt"
	"math/rand"
	"sort"
)

// AssignRoles deals roles to seats. Preferences are honored first; the other
// seats are shuffled with a source seeded by seed and dealt the remaining
// roles in role id order. Assignments are returned in seating order.
func AssignRoles(catalog *Catalog, seats []Seat, distribution map[string]int, preferences map[string]string, seed int64) ([]Assignment, error) {
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrConfig)
	}
	index := make(map[string]int, len(seats))
	for i, s := range seats {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: seat %d has no id", ErrConfig, i)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player id %q", ErrConfig, s.ID)
		}
		index[s.ID] = i
	}

	remaining := make(map[string]int, len(distribution))
	total := 0
	for role, n := range distribution {
		if _, ok := catalog.Role(role); !ok {
			return nil, fmt.Errorf("%w: unknown role %q in distribution", ErrConfig, role)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count for role %q", ErrConfig, role)
		}
		remaining[role] = n
		total += n
	}
	if total != len(seats) {
		return nil, fmt.Errorf("%w: distribution has %d roles for %d players", ErrConfig, total, len(seats))
	}

	roles := make([]string, len(seats))
	for id := range preferences {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: preference for unknown player %q", ErrConfig, id)
		}
	}
	for _, s := range seats {
		role, ok := preferences[s.ID]
		if !ok {
			continue
		}
		if remaining[role] <= 0 {
			return nil, fmt.Errorf("%w: preferred role %q for %q is exhausted", ErrConfig, role, s.ID)
		}
		remaining[role]--
		roles[index[s.ID]] = role
	}

	var open []int
	for i := range seats {
		if roles[i] == "" {
			open = append(open, i)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })

	ids := make([]string, 0, len(remaining))
	for id := range remaining {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var pool []string
	for _, id := range ids {
		for n := 0; n < remaining[id]; n++ {
			pool = append(pool, id)
		}
	}
	for i, seat := range open {
		roles[seat] = pool[i]
	}

	out := make([]Assignment, len(seats))
	for i, s := range seats {
		out[i] = Assignment{PlayerID: s.ID, Role: roles[i], Team: catalog.MustRole(roles[i]).Team}
	}
	return out, nil
}
