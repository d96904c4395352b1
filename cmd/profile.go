package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"imsgen/internal/models"
)

func newProfileCmd(root *rootOptions) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "管理保存的參數",
		Long:  "查看、修改或重設上次使用的網元參數 (config.json)",
	}

	profileCmd.AddCommand(
		newProfileShowCmd(root),
		newProfileSetCmd(root),
		newProfileResetCmd(root),
	)
	return profileCmd
}

func newProfileShowCmd(root *rootOptions) *cobra.Command {
	var showPassword bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "顯示保存的參數",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app
			p, err := loadProfile(a, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			password := strings.Repeat("*", len(p.Password))
			if showPassword {
				password = p.Password
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", bold("設定檔:"), a.profiles.Path())

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Field", "Value"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)
			table.AppendBulk([][]string{
				{"domain", p.Domain},
				{"cfn", p.CFN},
				{"password", password},
				{"sifc_id", p.SIFCID},
				{"scscf", p.SCSCF},
				{"cc", p.CC},
				{"lata", p.LATA},
				{"last_start_number", p.LastStartNumber},
				{"last_count", strconv.Itoa(p.LastCount)},
				{"last_save_dir", p.LastSaveDir},
			})
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&showPassword, "show-password", false, "顯示密碼明文")
	return cmd
}

func newProfileSetCmd(root *rootOptions) *cobra.Command {
	var (
		params models.Params
		start  string
		count  int
	)

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "修改保存的參數",
		Example: "  imsgen profile set --domain ims.example.com --lata 21",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app
			p, err := loadProfile(a, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			p = p.WithParams(p.Params().Merge(params))
			if cmd.Flags().Changed("start") {
				p.LastStartNumber = start
			}
			if cmd.Flags().Changed("count") {
				p.LastCount = count
			}

			if err := a.service().UpdateProfile(p); err != nil {
				printValidation(cmd.ErrOrStderr(), err)
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s 已更新 %s\n", green("✓"), a.profiles.Path())
			return nil
		},
	}

	bindParamFlags(cmd, &params)
	cmd.Flags().StringVarP(&start, "start", "s", "", "上次的起始號碼")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "上次的號碼數量")
	return cmd
}

func newProfileResetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "重設為預設參數",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := root.app
			if err := a.profiles.Save(a.profiles.Defaults()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s 已重設 %s\n", yellow("!"), a.profiles.Path())
			return nil
		},
	}
}
