package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/config"
	"github.com/matzehuels/orgchart/pkg/errors"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())

	return cmd
}

func (c *CLI) resolvedConfigPath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.DefaultPath()
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			printKeyValue("Backend", cfg.BackendURL)
			token := "stored session"
			if cfg.Token != "" {
				token = "from " + config.EnvToken
			}
			printKeyValue("Token", token)
			printKeyValue("Box", fmt.Sprintf("%gx%g", cfg.Layout.BoxWidth, cfg.Layout.BoxHeight))
			printKeyValue("Gaps", fmt.Sprintf("%g horizontal, %g vertical", cfg.Layout.HorizontalGap, cfg.Layout.VerticalGap))
			switch {
			case cfg.Cache.Disabled:
				printKeyValue("Cache", "disabled")
			case cfg.Cache.RedisAddr != "":
				printKeyValue("Cache", "redis "+cfg.Cache.RedisAddr)
			default:
				dir, _ := c.cacheDir()
				printKeyValue("Cache", dir)
			}
			if cfg.Store.MongoURI != "" {
				printKeyValue("Snapshots", "mongodb (serve)")
			}
			if cfg.Neo4j.URI != "" {
				printKeyValue("Neo4j", cfg.Neo4j.URI)
			}
			printKeyValue("Listen", cfg.Server.Listen)
			return nil
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.resolvedConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.Write(config.Default(), path); err != nil {
				return err
			}
			printSuccess("Wrote config")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
