package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cod1ng-earth/splicenft/pkg/cache"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the file cache of renders and metadata",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(dir)
			if os.IsNotExist(err) || (err == nil && len(entries) == 0) {
				c.out.info("Cache is empty")
				return nil
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "read cache dir")
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "clear cache")
			}
			c.out.success("Cleared %d cached entries", len(entries))
			c.out.detail("Directory: %s", dir)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out.w, dir)
			return nil
		},
	}
}

// cacheDir is the configured file cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "locate cache dir")
	}
	return dir, nil
}
