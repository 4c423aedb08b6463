package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) stylesCommand() *cobra.Command {
	var network uint64
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List the styles of a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			a, err := c.newApp(ctx, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if network == 0 {
				network = a.cfg.Networks[0].ID
			}
			prog := newProgress(logger)
			styles, err := a.registry.FetchCatalog(ctx, network)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Loaded %d styles for network %d", len(styles), network))

			if len(styles) == 0 {
				c.out.warning("Network %d has no styles", network)
				return nil
			}
			for _, st := range styles {
				c.out.title(fmt.Sprintf("#%d %s", st.ID, st.Name))
				c.out.keyValue("program", st.Program.Name())
				if st.Creator != "" {
					c.out.keyValue("creator", st.Creator)
				}
				c.out.keyValue("collection", st.Collection.String())
				c.out.keyValue("palette", swatch(st.Palette))
			}
			return nil
		},
	}
	cmd.Flags().Uint64VarP(&network, "network", "n", 0, "network id (default: first configured)")
	return cmd
}
