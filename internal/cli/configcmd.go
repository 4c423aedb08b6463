package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/cod1ng-earth/splicenft/pkg/config"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration after file and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Cache.Redis.Password != "" {
				shown.Cache.Redis.Password = "redacted"
			}
			return toml.NewEncoder(c.out.w).Encode(shown)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "env",
		Short: "List the environment variables that override the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.EnvNames() {
				c.out.line(name)
			}
			return nil
		},
	})
	return cmd
}
