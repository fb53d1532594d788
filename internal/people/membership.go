package people

import (
	"fmt"

	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

const (
	teamField     = "team"
	positionField = "position"
)

// MembershipCapability records a person's place on a team. A person may
// belong to many teams; each membership is identified by its team.
var MembershipCapability = facet.General[document.Document](facet.NameOf[Membership]()).
	Setup(requireField(teamField)).
	Identify(document.FieldIdentifier(teamField)).
	Default("Team", func(v *facet.View[document.Document], _ ...any) (any, error) {
		return stringField(v, teamField)
	}).
	Default("Position", func(v *facet.View[document.Document], _ ...any) (any, error) {
		return stringField(v, positionField)
	}).
	Default("SetPosition", func(v *facet.View[document.Document], args ...any) (any, error) {
		position, err := facet.Arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, setField(v, positionField, position)
	}).
	Default("Describe", describe).
	Forward("Name", (func() string)(nil)).
	MustBuild()

func describe(v *facet.View[document.Document], _ ...any) (any, error) {
	name, err := facet.Call[string](v, "Name")
	if err != nil {
		return nil, err
	}
	team, err := facet.Call[string](v, "Team")
	if err != nil {
		return nil, err
	}
	position, err := facet.Call[string](v, "Position")
	if err != nil {
		return nil, err
	}
	if position == "" {
		return fmt.Sprintf("%s plays for %s", name, team), nil
	}
	return fmt.Sprintf("%s plays %s for %s", name, position, team), nil
}

// Membership is the typed face of one Membership facet.
type Membership struct {
	view *facet.View[document.Document]
}

// AddMembership puts p on team. Joining the same team twice fails with
// types.ErrDuplicateFacet.
func AddMembership(p *Person, team, position string) (*Membership, error) {
	v, err := p.AddFacet(MembershipCapability, facet.Value(document.Document{
		teamField:     team,
		positionField: position,
	}))
	if err != nil {
		return nil, err
	}
	return &Membership{view: v}, nil
}

// MembershipOf returns p's membership of team or types.ErrFacetNotFound.
func MembershipOf(p *Person, team string) (*Membership, error) {
	v, err := p.GetFacetByID(MembershipCapability, team)
	if err != nil {
		return nil, err
	}
	return &Membership{view: v}, nil
}

// Memberships returns all of p's memberships ordered by team.
func Memberships(p *Person) ([]*Membership, error) {
	keys, err := p.Facets()
	if err != nil {
		return nil, err
	}
	var out []*Membership
	for _, k := range keys {
		if k.FacetType != MembershipCapability.Name() {
			continue
		}
		m, err := MembershipOf(p, k.FacetID)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// LeaveTeam removes p's membership of team and reports whether there was one.
func LeaveTeam(p *Person, team string) (bool, error) {
	return p.RemoveFacetByID(MembershipCapability, team)
}

// View returns the underlying facet view.
func (m *Membership) View() *facet.View[document.Document] { return m.view }

func (m *Membership) Team() (string, error) {
	return facet.Call[string](m.view, "Team")
}

func (m *Membership) Position() (string, error) {
	return facet.Call[string](m.view, "Position")
}

func (m *Membership) SetPosition(position string) error {
	return facet.Do(m.view, "SetPosition", position)
}

// Describe renders the membership with the person's name.
func (m *Membership) Describe() (string, error) {
	return facet.Call[string](m.view, "Describe")
}

// requireField rejects initial data that lacks a non-empty string field.
func requireField(field string) func(document.Document) (document.Document, error) {
	return func(d document.Document) (document.Document, error) {
		if d == nil {
			return nil, fmt.Errorf("%w: no data", types.ErrInvalidData)
		}
		if s, ok := d.GetString(field); !ok || s == "" {
			return nil, fmt.Errorf("%w: %s is required", types.ErrInvalidData, field)
		}
		return d, nil
	}
}

func stringField(v *facet.View[document.Document], field string) (string, error) {
	d, err := v.FacetData()
	if err != nil {
		return "", err
	}
	s, _ := d.GetString(field)
	return s, nil
}

// setField changes one field and writes the data back, which stores that
// hand out copies need.
func setField(v *facet.View[document.Document], field, value string) error {
	d, err := v.FacetData()
	if err != nil {
		return err
	}
	if err := d.Set(value, field); err != nil {
		return err
	}
	return v.StoreFacetData(d)
}
