package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/coyote/pkg/config"
)

func initCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a commented configuration file holding every default value.

The file goes to $XDG_CONFIG_HOME/coyote/config.yaml unless --path is set.
An existing file is kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path != "" {
				if err := config.InitConfigToPath(path, force); err != nil {
					return err
				}
			} else {
				written, err := config.InitConfig(force)
				if err != nil {
					return err
				}
				path = written
			}

			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().StringVarP(&path, "path", "p", "", "Write the config to this path")

	return cmd
}
