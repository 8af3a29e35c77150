package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <product-url>",
	Short: "Checks that a URL is a supported product page and prints its site and product id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		m, err := registry.Resolve(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "site:       %s\n", m.Profile.Name)
		fmt.Fprintf(out, "product id: %s\n", m.ProductID)
		if m.URL != args[0] {
			fmt.Fprintf(out, "normalized: %s\n", m.URL)
		}
		return nil
	},
}
