package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/factory"
	"github.com/mcoot/chargedblocks/internal/model"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Inspect and toggle favorite kinds",
	}

	cmd.AddCommand(newFavoritesListCmd())
	cmd.AddCommand(newFavoritesToggleCmd())

	return cmd
}

func newFavoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <owner>",
		Short: "List an owner's favorites permitted by the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(app *factory.App) error {
				allowed := app.Catalog.AllowedKinds(cmd.Context(), owner)
				kinds, err := app.Favorites.List(cmd.Context(), owner, allowed)
				if err != nil {
					return err
				}
				result := response.FavoriteList{Owner: owner.String(), Favorites: make([]response.Favorite, len(kinds))}
				for i, k := range kinds {
					result.Favorites[i] = response.Favorite{Kind: string(k), DisplayName: app.Catalog.DisplayName(k)}
				}
				output(cmd).Print(result)
				return nil
			})
		},
	}
}

func newFavoritesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <owner> <kind>",
		Short: "Favorite a kind, or unfavorite it if already a favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			kind := model.Kind(strings.TrimSpace(args[1]))
			if kind == "" {
				return errors.New("kind is required")
			}

			return withApp(cmd, func(app *factory.App) error {
				on, err := app.Favorites.Toggle(cmd.Context(), owner, kind)
				if err != nil {
					return err
				}
				output(cmd).Print(response.ToggleResponse{Kind: string(kind), Favorited: on})
				return nil
			})
		},
	}
}
