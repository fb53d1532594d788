package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/people"
	"github.com/mesh-intelligence/facets/pkg/document"
	"github.com/mesh-intelligence/facets/pkg/facet"
	"github.com/mesh-intelligence/facets/pkg/store"
	"github.com/mesh-intelligence/facets/pkg/types"
)

func (a *app) newPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Create, show, rename and list people",
	}
	cmd.AddCommand(a.newPersonCreateCmd())
	cmd.AddCommand(a.newPersonShowCmd())
	cmd.AddCommand(a.newPersonRenameCmd())
	cmd.AddCommand(a.newPersonListCmd())
	return cmd
}

func (a *app) newPersonCreateCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Store a new person and print its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = store.NewSubjectID()
			}
			return a.withStore(func(s types.Store[document.Document], opts []facet.Option) error {
				p, err := people.Create(s, id, args[0], opts...)
				if err != nil {
					return err
				}
				return a.output(cmd.OutOrStdout(), personOutput{ID: p.ID(), Name: p.Name()}, func(w io.Writer) {
					fmt.Fprintln(w, p.ID())
				})
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "identifier to use instead of a generated UUID")
	return cmd
}

func (a *app) newPersonShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a person and all of its facets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				facets, err := describeFacets(p)
				if err != nil {
					return err
				}
				out := personOutput{ID: p.ID(), Name: p.Name(), Facets: facets}
				return a.output(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s\n", out.ID, out.Name)
					writeFacets(w, facets)
				})
			})
		},
	}
}

func (a *app) newPersonRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Change a person's name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				if err := p.SetName(args[1]); err != nil {
					return err
				}
				return a.output(cmd.OutOrStdout(), personOutput{ID: p.ID(), Name: p.Name()}, func(w io.Writer) {
					fmt.Fprintf(w, "%s renamed to %s\n", p.ID(), p.Name())
				})
			})
		},
	}
}

func (a *app) newPersonListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored people",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(s types.Store[document.Document], _ []facet.Option) error {
				ids, err := s.Subjects()
				if err != nil {
					return err
				}
				list := make([]personOutput, 0, len(ids))
				for _, id := range ids {
					attrs, err := s.LoadSubject(id)
					if err != nil {
						return err
					}
					name, _ := attrs.GetString("name")
					list = append(list, personOutput{ID: id, Name: name})
				}
				return a.output(cmd.OutOrStdout(), list, func(w io.Writer) {
					for _, p := range list {
						fmt.Fprintf(w, "%s %s\n", p.ID, p.Name)
					}
				})
			})
		},
	}
}
