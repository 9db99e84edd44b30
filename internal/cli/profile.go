package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/engrave/pkg/tables"
)

// profileCommand prints the engraving profile as TOML. With --check it only
// validates the file.
func (c *CLI) profileCommand() *cobra.Command {
	var path string
	var check bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the engraving profile as TOML",
		Long: `Print the engraving profile as TOML.

Without --profile this prints the built-in defaults, a starting point for a
custom profile. Keys missing from a profile file keep their defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tables.DefaultProfile()
			if path != "" {
				var err error
				if p, err = tables.LoadProfile(path); err != nil {
					return err
				}
			}
			if check {
				printSuccess("%s is valid", path)
				return nil
			}
			return p.Encode(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&path, "profile", "p", "", "profile file to load")
	cmd.Flags().BoolVar(&check, "check", false, "validate the profile and exit")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if check && path == "" {
			return fmt.Errorf("--check requires --profile")
		}
		return nil
	}
	return cmd
}
