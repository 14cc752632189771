package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/loomui/loom/internal/config"
)

func configCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Load loom.yaml from the project directory, apply defaults, and print
the result. Useful for checking what a session would actually run with.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(dir)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory")

	return cmd
}

func runConfig(dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	if config.Exists(dir) {
		info("loaded %s", cfg.Path())
	} else {
		info("no %s found, showing defaults", config.FileName)
	}
	fmt.Println()

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
