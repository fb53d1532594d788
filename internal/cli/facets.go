package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/people"
	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/types"
)

// capabilities are the facet types the CLI can address by name.
var capabilities = []*facet.Capability[document.Document]{
	people.DriverCapability,
	people.MembershipCapability,
}

// lookupCapability accepts a full capability name, its short "people.Driver"
// form or the bare type name in any case.
func lookupCapability(name string) (*facet.Capability[document.Document], error) {
	for _, c := range capabilities {
		short := facet.ShortName(c.Name())
		_, bare, _ := strings.Cut(short, ".")
		if name == c.Name() || name == short || strings.EqualFold(name, bare) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown facet type %q", types.ErrInvalidArgument, name)
}

func (a *app) newFacetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facets",
		Short: "Inspect and remove a person's facets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <person-id>",
		Short: "List every facet a person carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				facets, err := describeFacets(p)
				if err != nil {
					return err
				}
				return a.output(cmd.OutOrStdout(), facets, func(w io.Writer) {
					writeFacets(w, facets)
				})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <person-id> <type> [facet-id]",
		Short: "Remove a facet; general facets also need their ID",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupCapability(args[1])
			if err != nil {
				return err
			}
			var id string
			switch {
			case c.Unique() && len(args) == 3:
				return fmt.Errorf("%w: %s takes no facet ID", types.ErrInvalidArgument, facet.ShortName(c.Name()))
			case !c.Unique() && len(args) < 3:
				return fmt.Errorf("%w: %s needs a facet ID", types.ErrInvalidArgument, facet.ShortName(c.Name()))
			case !c.Unique():
				id = args[2]
			}
			return a.withPerson(args[0], func(p *people.Person) error {
				var removed bool
				if c.Unique() {
					removed, err = p.RemoveFacet(c)
				} else {
					removed, err = p.RemoveFacetByID(c, id)
				}
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%w: %s on %s", types.ErrFacetNotFound, facet.ShortName(c.Name()), p.ID())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", facet.ShortName(c.Name()), p.ID())
				return nil
			})
		},
	})
	return cmd
}
