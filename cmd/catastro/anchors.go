package main

import (
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/catastro/internal/geo"
)

func newAnchorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anchors",
		Short: "List the district anchor locations parcels are placed around",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd, cmd.OutOrStdout(), geo.DistrictAnchors())
		},
	}
}
