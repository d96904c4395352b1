package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "show FILE",
		Short:   "顯示已保存的腳本",
		Example: "  imsgen show ~/Documents/IMS-number-maker/scripts/ims_script_20260301_093000.txt",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := root.app.writer.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
}
