package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/repository"
	"github.com/stwalsh4118/catastro/internal/services"
	"gopkg.in/yaml.v3"
)

// render writes v to w as indented JSON, or YAML when --yaml is set.
func render(cmd *cobra.Command, w io.Writer, v any) error {
	useYAML, _ := cmd.Flags().GetBool("yaml")

	var output []byte
	var err error
	if useYAML {
		output, err = yaml.Marshal(v)
	} else {
		output, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(output))
	return err
}

// cliLogger logs to stderr so stdout carries only command output.
func cliLogger() *logger.Logger {
	return logger.NewWithWriter("development", os.Stderr)
}

func newService(cmd *cobra.Command, log *logger.Logger) services.CadastralService {
	latency, _ := cmd.Flags().GetBool("latency")
	registry := repository.NewMockRegistry(repository.MockRegistryConfig{
		SearchLatency:  repository.DefaultSearchLatency,
		DetailsLatency: repository.DefaultDetailsLatency,
		NoLatency:      !latency,
	})
	return services.NewCadastralService(registry, log)
}
