package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/catastro/internal/config"
	"github.com/stwalsh4118/catastro/internal/ficha"
	"github.com/stwalsh4118/catastro/internal/models"
	"github.com/stwalsh4118/catastro/internal/services"
)

func newFichaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ficha",
		Short: "Export the ficha catastral of a parcel as PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, _ := cmd.Flags().GetString("code")
			out, _ := cmd.Flags().GetString("out")
			htmlOnly, _ := cmd.Flags().GetBool("html")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := cliLogger()
			req, err := services.SearchForm{Tab: models.SearchByCode, Code: code}.BuildRequest()
			if err != nil {
				return err
			}
			result, err := newService(cmd, log).Search(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("%s: %w", services.MsgSearchFailed, err)
			}
			if result.IsEmpty {
				return fmt.Errorf("no parcel with code %s", code)
			}
			rec := &result.Records[0]

			renderer, err := ficha.NewRenderer()
			if err != nil {
				return err
			}

			if htmlOnly {
				html, err := renderer.Render(rec)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = fmt.Fprint(cmd.OutOrStdout(), html)
					return err
				}
				return os.WriteFile(out, []byte(html), 0o644)
			}

			if !cfg.PDF.Enabled {
				return ficha.ErrExportDisabled
			}
			chrome := ficha.NewChromeExporter(cfg.PDF, log)
			if err := chrome.Start(); err != nil {
				return err
			}
			defer chrome.Stop()

			doc, err := ficha.NewGenerator(renderer, chrome, log).Generate(cmd.Context(), rec)
			if err != nil {
				if errors.Is(err, ficha.ErrExporterStopped) {
					return fmt.Errorf("chrome is not available: %w", err)
				}
				return err
			}

			if out == "" {
				out = doc.FileName
			}
			if err := os.WriteFile(out, doc.PDF, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ficha written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().String("code", "", "Cadastral code of the parcel")
	cmd.Flags().StringP("out", "o", "", "Output file (default ficha-catastral-<code>.pdf)")
	cmd.Flags().Bool("html", false, "Write the ficha HTML instead of printing a PDF")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}
