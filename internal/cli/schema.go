package cli

import (
	"github.com/spf13/cobra"

	"github.com/rdecheck/rdecheck/api/v1beta1/configs"
	"github.com/rdecheck/rdecheck/pkg/schema"
)

func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema {rules|config}",
		Short:     "Print the JSON schema for rule tables or the configuration",
		ValidArgs: []string{"rules", "config"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := schema.JSONSchema()
			if args[0] == "config" {
				data = configs.JSONSchema()
			}

			mustN(cmd.OutOrStdout().Write(data))

			return nil
		},
		SilenceUsage: true,
	}
}
