package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"imsgen/internal/config"
	"imsgen/internal/form"
	"imsgen/internal/models"
	"imsgen/internal/plan"
	"imsgen/internal/services"
	"imsgen/internal/validator"
)

type generateOptions struct {
	start       string
	count       int
	params      models.Params
	elements    []string
	output      string
	save        bool
	copy        bool
	quiet       bool
	interactive bool
	planPath    string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	g := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "產生放號腳本",
		Long: `依起始號碼與數量產生放號腳本，腳本輸出到標準輸出。
未指定的參數沿用上次保存的設定；順序為 設定檔 < 計畫檔 < 命令列參數。`,
		Example: `  imsgen generate --start +861088889001 --count 10
  imsgen generate --plan batch.yaml --output out/batch.txt
  imsgen generate --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, g)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&g.start, "start", "s", "", "起始號碼，8-15 位數字，可帶 + 號")
	f.IntVarP(&g.count, "count", "n", 0, fmt.Sprintf("號碼數量 (%d-%d)", validator.MinCount, validator.MaxCount))
	bindParamFlags(cmd, &g.params)
	f.StringSliceVarP(&g.elements, "element", "e", nil, "只產生指定網元 (uspp, enum, sss)，可重複")
	f.StringVarP(&g.output, "output", "o", "", "保存到檔案或目錄 (隱含 --save)")
	f.BoolVar(&g.save, "save", false, "保存到上次的保存目錄")
	f.BoolVar(&g.copy, "copy", false, "複製腳本到剪貼簿")
	f.BoolVarP(&g.quiet, "quiet", "q", false, "保存成功時不輸出腳本")
	f.BoolVarP(&g.interactive, "interactive", "i", false, "以互動表單填寫參數")
	f.StringVarP(&g.planPath, "plan", "p", "", "YAML 計畫檔")

	return cmd
}

func bindParamFlags(cmd *cobra.Command, p *models.Params) {
	f := cmd.Flags()
	f.StringVar(&p.Domain, "domain", "", "IMS 域名")
	f.StringVar(&p.CFN, "cfn", "", "CFN")
	f.StringVar(&p.Password, "password", "", "鑑權密碼")
	f.StringVar(&p.SIFCID, "sifc-id", "", "SIFC ID")
	f.StringVar(&p.SCSCF, "scscf", "", "S-CSCF 名稱")
	f.StringVar(&p.CC, "cc", "", "國家碼")
	f.StringVar(&p.LATA, "lata", "", "LATA")
}

func runGenerate(cmd *cobra.Command, root *rootOptions, g *generateOptions) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	a := root.app

	profile, err := loadProfile(a, stderr)
	if err != nil {
		return err
	}

	var elements []models.NetworkElement
	output := g.output
	if g.planPath != "" {
		p, err := plan.Load(g.planPath)
		if err != nil {
			return err
		}
		profile = p.ApplyTo(profile)
		if elements, err = p.NetworkElements(); err != nil {
			return err
		}
		if !cmd.Flags().Changed("output") && p.Output != "" {
			output = p.Output
		}
	}

	// 命令列參數最後覆蓋
	if cmd.Flags().Changed("start") {
		profile.LastStartNumber = g.start
	}
	if cmd.Flags().Changed("count") {
		profile.LastCount = g.count
	}
	profile = profile.WithParams(profile.Params().Merge(g.params))
	if cmd.Flags().Changed("element") {
		if elements, err = parseElements(g.elements); err != nil {
			return err
		}
	}

	req := services.GenerateRequest{
		StartNumber: profile.LastStartNumber,
		Count:       profile.LastCount,
		Params:      profile.Params(),
		Elements:    elements,
	}
	save := g.save || output != ""
	doCopy := g.copy

	var driver form.PromptDriver
	if g.interactive {
		driver = root.newDriver()
		values, err := form.Fill(ctx, driver, profile)
		if err != nil {
			if form.IsAborted(err) {
				fmt.Fprintln(stderr, yellow("已取消"))
			}
			return err
		}
		req = services.GenerateRequest{
			StartNumber: values.StartNumber,
			Count:       values.Count,
			Params:      values.Params,
			Elements:    values.Elements,
		}
	}

	svc := a.service(services.WithClipboard(root.clipboard))
	res, err := svc.Generate(ctx, req)
	if err != nil {
		printValidation(stderr, err)
		return err
	}
	fmt.Fprintf(stderr, "%s 已產生 %d 個號碼的放號腳本 (%d 位元組)\n",
		green("✓"), len(res.Script.Numbers), len(res.Script.Text))

	if g.interactive {
		generated := make([]models.NetworkElement, 0, len(res.Script.Sections))
		for _, sec := range res.Script.Sections {
			generated = append(generated, sec.Element)
		}
		if err := form.Summary(ctx, driver, res.Script.Numbers, generated); err != nil {
			return err
		}

		actions, err := form.AskActions(ctx, driver, saveTarget(output, profile))
		if err != nil {
			if form.IsAborted(err) {
				// 已產生的腳本仍輸出
				fmt.Fprint(stdout, res.Script.Text)
			}
			return err
		}
		save, doCopy = actions.Save, actions.Copy
		if actions.SavePath != "" {
			output = actions.SavePath
		}
	}

	var errs []error
	saved := false
	if save {
		path, err := svc.Save(ctx, res, saveTarget(output, profile))
		if err != nil {
			fmt.Fprintf(stderr, "%s 保存失敗: %v\n", red("✗"), err)
			errs = append(errs, err)
		} else {
			saved = true
			fmt.Fprintf(stderr, "%s 已保存到 %s\n", green("✓"), bold(path))
		}
	}

	if doCopy {
		if err := svc.Copy(ctx, res); err != nil {
			fmt.Fprintf(stderr, "%s 複製失敗: %v\n", red("✗"), err)
			errs = append(errs, err)
		} else {
			fmt.Fprintf(stderr, "%s 已複製到剪貼簿\n", green("✓"))
		}
	}

	if !(g.quiet && saved) {
		fmt.Fprint(stdout, res.Script.Text)
		if res.Script.Text != "" && res.Script.Text[len(res.Script.Text)-1] != '\n' {
			fmt.Fprintln(stdout)
		}
	}

	return errors.Join(errs...)
}

// loadProfile 設定檔無法讀寫或損壞時提示並改用預設值
func loadProfile(a *app, stderr io.Writer) (config.Profile, error) {
	profile, err := a.profiles.Load()
	if err == nil {
		return profile, nil
	}
	switch {
	case models.IsKind(err, models.KindFormat):
		fmt.Fprintf(stderr, "%s 設定檔無法解析，使用預設值: %v\n", yellow("警告"), err)
		return profile, nil
	case models.IsKind(err, models.KindIO):
		fmt.Fprintf(stderr, "%s 設定檔無法讀寫，使用預設值: %v\n", yellow("警告"), err)
		return profile, nil
	}
	return profile, err
}

// saveTarget 未指定路徑時沿用上次的保存目錄
func saveTarget(output string, profile config.Profile) string {
	if output != "" {
		return output
	}
	if profile.LastSaveDir != "" {
		return profile.LastSaveDir + string(filepath.Separator)
	}
	return ""
}

func parseElements(names []string) ([]models.NetworkElement, error) {
	out := make([]models.NetworkElement, 0, len(names))
	for _, name := range names {
		var e models.NetworkElement
		if err := e.UnmarshalText([]byte(name)); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func printValidation(w io.Writer, err error) {
	ve, ok := validator.AsValidationError(err)
	if !ok {
		return
	}
	fmt.Fprintln(w, red("輸入有誤:"))
	for _, f := range ve.Fields {
		fmt.Fprintf(w, "  %s %s: %s\n", red("✗"), f.Field, f.Message)
	}
}
