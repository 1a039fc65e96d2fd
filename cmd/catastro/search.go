package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/catastro/internal/models"
	"github.com/stwalsh4118/catastro/internal/services"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search parcels by owner, cadastral code or UTM coordinates",
		Example: `  catastro search --owner "Juan Carmona"
  catastro search --code 12345-678-901 --yaml
  catastro search --x 765000 --y 9234000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := searchFormFromFlags(cmd)
			if err != nil {
				return err
			}
			req, err := form.BuildRequest()
			if err != nil {
				return err
			}

			svc := newService(cmd, cliLogger())
			result, err := svc.Search(cmd.Context(), req)
			if err != nil {
				if errors.Is(err, services.ErrMalformedCode) {
					return errors.New(services.MsgMalformedCode)
				}
				return fmt.Errorf("%s: %w", services.MsgSearchFailed, err)
			}
			if result.IsEmpty {
				fmt.Fprintln(cmd.ErrOrStderr(), "No se encontraron predios")
			}
			return render(cmd, cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().String("owner", "", "Owner name to search for")
	cmd.Flags().String("code", "", "Cadastral code (NNNNN-NNN-NNN)")
	cmd.Flags().String("x", "", "UTM easting")
	cmd.Flags().String("y", "", "UTM northing")
	cmd.MarkFlagsMutuallyExclusive("owner", "code", "x")
	cmd.MarkFlagsMutuallyExclusive("owner", "code", "y")
	cmd.MarkFlagsOneRequired("owner", "code", "x", "y")
	return cmd
}

// searchFormFromFlags picks the tab from whichever flag group was set.
func searchFormFromFlags(cmd *cobra.Command) (services.SearchForm, error) {
	flags := cmd.Flags()
	owner, _ := flags.GetString("owner")
	code, _ := flags.GetString("code")
	x, _ := flags.GetString("x")
	y, _ := flags.GetString("y")

	switch {
	case flags.Changed("owner"):
		return services.SearchForm{Tab: models.SearchByOwner, Owner: owner}, nil
	case flags.Changed("code"):
		return services.SearchForm{Tab: models.SearchByCode, Code: code}, nil
	case flags.Changed("x") || flags.Changed("y"):
		return services.SearchForm{Tab: models.SearchByCoordinates, X: x, Y: y}, nil
	}
	return services.SearchForm{}, errors.New(services.MsgUnknownTab)
}
