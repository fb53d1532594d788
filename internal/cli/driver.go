package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/internal/people"
)

type driverOutput struct {
	Person  string `json:"person"`
	Name    string `json:"name"`
	Licence string `json:"licence_number"`
	Driving string `json:"driving"`
}

func (a *app) newDriverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Manage a person's Driver facet",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <person-id> <licence-number>",
		Short: "Make a person a driver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				d, err := people.AddDriver(p, args[1])
				if err != nil {
					return err
				}
				return a.printDriver(cmd.OutOrStdout(), p, d)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <person-id>",
		Short: "Show a person's driving licence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPerson(args[0], func(p *people.Person) error {
				d, err := people.DriverOf(p)
				if err != nil {
					return err
				}
				return a.printDriver(cmd.OutOrStdout(), p, d)
			})
		},
	})
	return cmd
}

func (a *app) printDriver(w io.Writer, p *people.Person, d *people.Driver) error {
	number, err := d.LicenceNumber()
	if err != nil {
		return err
	}
	driving, err := d.Driving()
	if err != nil {
		return err
	}
	out := driverOutput{Person: p.ID(), Name: p.Name(), Licence: number, Driving: driving}
	return a.output(w, out, func(w io.Writer) {
		fmt.Fprintln(w, driving)
	})
}
