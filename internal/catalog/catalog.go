// Package catalog holds the static venue configuration and the member
// roster, and derives the half-hour slot grid of a venue for a date.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
)

var (
	// ErrUnknownVenue is returned when a venue identifier is not configured.
	ErrUnknownVenue = errors.New("unknown venue")
	// ErrUnknownArea is returned when a venue has no area with the given name.
	ErrUnknownArea = errors.New("unknown area")
	// ErrUnknownMember is returned when an identity is not on the roster.
	ErrUnknownMember = errors.New("unknown member")
)

// Catalog is an immutable lookup over venues and members.  It is safe
// for concurrent use because nothing mutates it after New returns.
type Catalog struct {
	venues  map[string]model.Venue
	order   []string
	members map[string]model.Member
}

// New validates the given venues and members and builds a Catalog.
func New(venues []model.Venue, members []model.Member) (*Catalog, error) {
	c := &Catalog{
		venues:  make(map[string]model.Venue, len(venues)),
		members: make(map[string]model.Member, len(members)),
	}
	var problems []string
	for _, v := range venues {
		if err := validateVenue(v); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if _, dup := c.venues[v.ID]; dup {
			problems = append(problems, fmt.Sprintf("venue %q defined twice", v.ID))
			continue
		}
		areas := make([]string, len(v.Areas))
		copy(areas, v.Areas)
		v.Areas = areas
		c.venues[v.ID] = v
		c.order = append(c.order, v.ID)
	}
	for _, m := range members {
		id := NormalizeIdentity(m.Identity)
		if id == "" {
			problems = append(problems, fmt.Sprintf("member %q has no identity", m.Name))
			continue
		}
		if _, dup := c.members[id]; dup {
			problems = append(problems, fmt.Sprintf("member identity %q defined twice", id))
			continue
		}
		m.Identity = id
		c.members[id] = m
	}
	if len(c.venues) == 0 && len(problems) == 0 {
		problems = append(problems, "no venues configured")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return c, nil
}

func validateVenue(v model.Venue) error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("venue %q has no id", v.Name)
	}
	if len(v.Areas) == 0 {
		return fmt.Errorf("venue %q has no areas", v.ID)
	}
	seen := make(map[string]bool, len(v.Areas))
	for _, a := range v.Areas {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("venue %q has an unnamed area", v.ID)
		}
		if seen[a] {
			return fmt.Errorf("venue %q lists area %q twice", v.ID, a)
		}
		seen[a] = true
	}
	for label, r := range map[string]model.HoursRule{"weekday": v.Hours.Weekday, "weekend": v.Hours.Weekend} {
		if r.Open < 0 || r.Close > 24*60 || r.Open >= r.Close {
			return fmt.Errorf("venue %q has invalid %s hours", v.ID, label)
		}
		if r.Open%SlotMinutes != 0 || r.Close%SlotMinutes != 0 {
			return fmt.Errorf("venue %q %s hours are not aligned to %d minutes", v.ID, label, SlotMinutes)
		}
	}
	return nil
}

// Venue returns the venue with the given identifier.
func (c *Catalog) Venue(id string) (model.Venue, error) {
	v, ok := c.venues[id]
	if !ok {
		return model.Venue{}, fmt.Errorf("%w: %s", ErrUnknownVenue, id)
	}
	return v, nil
}

// Area checks that the venue exists and contains the area.
func (c *Catalog) Area(venueID, area string) (model.Venue, error) {
	v, err := c.Venue(venueID)
	if err != nil {
		return model.Venue{}, err
	}
	if !v.HasArea(area) {
		return model.Venue{}, fmt.Errorf("%w: %s/%s", ErrUnknownArea, venueID, area)
	}
	return v, nil
}

// Venues returns every venue in configuration order.
func (c *Catalog) Venues() []model.Venue {
	out := make([]model.Venue, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.venues[id])
	}
	return out
}

// VenueName returns the display name for id, or id itself when unknown.
func (c *Catalog) VenueName(id string) string {
	if v, ok := c.venues[id]; ok && v.Name != "" {
		return v.Name
	}
	return id
}

// Member looks up a roster entry by identity.  The identity is
// normalized first, so "0555 000 11 11" and "5550001111" match.
func (c *Catalog) Member(identity string) (model.Member, error) {
	m, ok := c.members[NormalizeIdentity(identity)]
	if !ok {
		return model.Member{}, ErrUnknownMember
	}
	return m, nil
}

// Members returns the roster sorted by name.
func (c *Catalog) Members() []model.Member {
	out := make([]model.Member, 0, len(c.members))
	for _, m := range c.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NormalizeIdentity strips spaces, dashes and parentheses from a phone
// number and drops a single leading trunk zero.
func NormalizeIdentity(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	return strings.TrimPrefix(s, "0")
}
