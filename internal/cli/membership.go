package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/people"
)

type membershipOutput struct {
	Team     string `json:"team"`
	Position string `json:"position,omitempty"`
	Describe string `json:"describe"`
}

func membershipOf(m *people.Membership) (membershipOutput, error) {
	var out membershipOutput
	var err error
	if out.Team, err = m.Team(); err != nil {
		return out, err
	}
	if out.Position, err = m.Position(); err != nil {
		return out, err
	}
	if out.Describe, err = m.Describe(); err != nil {
		return out, err
	}
	return out, nil
}

func (a *app) newMembershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membership",
		Short: "Manage a person's team memberships",
	}

	var position string
	add := &cobra.Command{
		Use:   "add <person-id> <team>",
		Short: "Put a person on a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				m, err := people.AddMembership(p, args[1], position)
				if err != nil {
					return err
				}
				out, err := membershipOf(m)
				if err != nil {
					return err
				}
				return a.output(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintln(w, out.Describe)
				})
			})
		},
	}
	add.Flags().StringVar(&position, "position", "", "position played on the team")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list <person-id>",
		Short: "List a person's teams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				ms, err := people.Memberships(p)
				if err != nil {
					return err
				}
				list := make([]membershipOutput, 0, len(ms))
				for _, m := range ms {
					out, err := membershipOf(m)
					if err != nil {
						return err
					}
					list = append(list, out)
				}
				return a.output(cmd.OutOrStdout(), list, func(w io.Writer) {
					for _, m := range list {
						fmt.Fprintln(w, m.Describe)
					}
				})
			})
		},
	})
	return cmd
}
