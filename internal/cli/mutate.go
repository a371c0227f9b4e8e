package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "create field=value...",
		Short:   "Create an employee",
		Example: "  lazygrid create firstName=Ana lastName=Smith email=ana@example.com position=Analyst salary=52000",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var row Row
			if err := ApplyAssignments(&row, args); err != nil {
				return err
			}

			s, err := a.mount(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			created, _, err := s.Create(cmd.Context(), row)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, created.GetID())
			return nil
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "update ID field=value...",
		Short:   "Update fields of an employee",
		Example: "  lazygrid update 3f2c... salary=60000 position=Lead",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.mount(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			row, err := s.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := ApplyAssignments(&row, args[1:]); err != nil {
				return err
			}
			_, _, err = s.Update(cmd.Context(), row)
			return err
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID [ID...]",
		Short: "Delete one or several employees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.mount(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				_, err = s.Delete(cmd.Context(), args[0])
			} else {
				_, err = s.DeleteMany(cmd.Context(), args)
			}
			return err
		},
	}
}
