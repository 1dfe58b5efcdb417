package engine

import (
	"fmt"
	"sort"
)

// Role identifiers of the built-in catalog.
const (
	RoleWerewolf = "werewolf"
	RoleVillager = "villager"
	RoleSeer     = "seer"
	RoleWitch    = "witch"
	RoleGuard    = "guard"
	RoleHunter   = "hunter"
	RoleCupid    = "cupid"
	RoleIdiot    = "idiot"
)

var dayActions = []ActionKind{ActionSpeak, ActionVote}

// Catalog is the read-only role lookup built once at process start.
type Catalog struct {
	roles map[string]Role
}

// NewCatalog validates and indexes role definitions.
func NewCatalog(roles []Role) (*Catalog, error) {
	c := &Catalog{roles: make(map[string]Role, len(roles))}
	for _, r := range roles {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: role without id", ErrConfig)
		}
		if _, dup := c.roles[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate role %q", ErrConfig, r.ID)
		}
		switch r.Team {
		case TeamWerewolves, TeamVillagers, TeamThirdParty:
		default:
			return nil, fmt.Errorf("%w: role %q has unknown team %q", ErrConfig, r.ID, r.Team)
		}
		caps := append([]ActionKind(nil), r.Capabilities...)
		for _, k := range dayActions {
			if !r.Can(k) {
				caps = append(caps, k)
			}
		}
		r.Capabilities = caps
		c.roles[r.ID] = r
	}
	return c, nil
}

// DefaultRoles returns the built-in role table.
func DefaultRoles() []Role {
	return []Role{
		{ID: RoleCupid, Team: TeamVillagers, HasNightAction: true, ActionPriority: 1, Capabilities: []ActionKind{ActionPair}},
		{ID: RoleGuard, Team: TeamVillagers, HasNightAction: true, ActionPriority: 5, Capabilities: []ActionKind{ActionProtect}},
		{ID: RoleWerewolf, Team: TeamWerewolves, HasNightAction: true, ActionPriority: 10, Capabilities: []ActionKind{ActionKill}},
		{ID: RoleSeer, Team: TeamVillagers, HasNightAction: true, ActionPriority: 20, Capabilities: []ActionKind{ActionReveal}},
		{ID: RoleWitch, Team: TeamVillagers, HasNightAction: true, ActionPriority: 30, Capabilities: []ActionKind{ActionSave, ActionPoison}},
		{ID: RoleHunter, Team: TeamVillagers, ActionPriority: 90, Capabilities: []ActionKind{ActionShoot}},
		{ID: RoleIdiot, Team: TeamVillagers, ActionPriority: 100},
		{ID: RoleVillager, Team: TeamVillagers, ActionPriority: 100},
	}
}

// DefaultCatalog builds the catalog of built-in roles.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultRoles())
	if err != nil {
		panic(err)
	}
	return c
}

// Role looks up a role by id.
func (c *Catalog) Role(id string) (Role, bool) {
	r, ok := c.roles[id]
	return r, ok
}

// MustRole looks up a role and panics on an unknown id, which is a programmer error.
func (c *Catalog) MustRole(id string) Role {
	r, ok := c.roles[id]
	Assert(ok, "unknown role id %q", id)
	return r
}

// IDs returns every role id in lexical order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.roles))
	for id := range c.roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NightActionOrder returns the present roles that act at night, ordered by
// priority and then by role id.
func (c *Catalog) NightActionOrder(present []string) []string {
	seen := make(map[string]bool)
	var order []string
	for _, id := range present {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c.MustRole(id).HasNightAction {
			order = append(order, id)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := c.roles[order[i]], c.roles[order[j]]
		if ri.ActionPriority != rj.ActionPriority {
			return ri.ActionPriority < rj.ActionPriority
		}
		return ri.ID < rj.ID
	})
	return order
}
