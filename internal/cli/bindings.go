package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/factory"
	"github.com/mcoot/chargedblocks/internal/model"
)

func newBindingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "Inspect and clear bindings",
	}

	cmd.AddCommand(newBindingsListCmd())
	cmd.AddCommand(newBindingsOwnersCmd())
	cmd.AddCommand(newBindingsDeleteCmd())
	cmd.AddCommand(newBindingsClearCmd())

	return cmd
}

func newBindingsListCmd() *cobra.Command {
	var hidden bool

	cmd := &cobra.Command{
		Use:   "list <owner>",
		Short: "List an owner's bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(app *factory.App) error {
				list := app.Bindings.List
				if hidden {
					list = app.Bindings.ListHidden
				}
				bindings, err := list(cmd.Context(), owner)
				if err != nil {
					return err
				}

				result := response.BindingList{
					Owner:    owner.String(),
					Bindings: make([]response.Binding, 0, len(bindings)),
				}
				for _, b := range bindings {
					result.Bindings = append(result.Bindings, response.BindingFromModel(b, app.Catalog.DisplayName(b.Kind)))
				}
				output(cmd).Print(result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&hidden, "hidden", false, "List hidden bindings instead")

	return cmd
}

func newBindingsOwnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List every owner with a binding",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *factory.App) error {
				owners, err := app.Bindings.Owners(cmd.Context())
				if err != nil {
					return err
				}
				result := OwnerList{Owners: make([]string, 0, len(owners))}
				for _, o := range owners {
					result.Owners = append(result.Owners, o.String())
				}
				output(cmd).Print(result)
				return nil
			})
		},
	}
}

func newBindingsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <owner> <token>",
		Short: "Delete one binding",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			id, err := parseTokenID(args[1])
			if err != nil {
				return err
			}

			return withApp(cmd, func(app *factory.App) error {
				if err := app.Bindings.Delete(cmd.Context(), owner, id); err != nil {
					return err
				}
				output(cmd).PrintMessage(fmt.Sprintf("deleted %s", id))
				return nil
			})
		},
	}
}

func newBindingsClearCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "clear <owner>",
		Short: "Delete all of an owner's bindings, or only those of one kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(app *factory.App) error {
				if kind != "" {
					n, err := app.Bindings.RemoveMatching(cmd.Context(), owner, model.Kind(strings.TrimSpace(kind)))
					if err != nil {
						return err
					}
					output(cmd).PrintMessage(fmt.Sprintf("removed %d bindings", n))
					return nil
				}

				if err := app.Bindings.RemoveAllForOwner(cmd.Context(), owner); err != nil {
					return err
				}
				output(cmd).PrintMessage(fmt.Sprintf("cleared bindings for %s", owner))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only remove bindings of this kind")

	return cmd
}
