package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/newton/pkg/buildinfo"
	"github.com/matzehuels/newton/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The logging observability hooks are installed before any subcommand runs,
// so cache and compute events show up under --verbose.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Newton renders the basins of attraction of z³−1",
		Long:         `Newton computes Newton's method for z³−1 over a grid of starting points, colors every point by the root it converges to and how fast, and compares a multi-core strategy against a grid-stride accelerated one.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.installHooks()
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/newton/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) installHooks() {
	hooks := &logHooks{logger: c.Logger}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
}
