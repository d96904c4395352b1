package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"imsgen/internal/config"
	"imsgen/internal/form"
	"imsgen/internal/logger"
	"imsgen/internal/services"
	"imsgen/internal/storage"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// app 每次執行共用的元件
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	profiles *config.ProfileStore
	writer   *storage.ScriptStore
	closed   bool
}

func (a *app) service(opts ...services.Option) *services.ScriptService {
	return services.NewScriptService(a.profiles, a.writer, a.log, opts...)
}

func (a *app) close() {
	if a == nil || a.closed {
		return
	}
	a.closed = true
	if a.log != nil {
		_ = a.log.Close()
	}
}

type rootOptions struct {
	configPath string
	debug      bool

	newDriver func() form.PromptDriver
	clipboard services.Clipboard

	app *app
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	if opts.newDriver == nil {
		opts.newDriver = form.NewSurveyDriver
	}
	if opts.clipboard == nil {
		opts.clipboard = services.SystemClipboard{}
	}

	rootCmd := &cobra.Command{
		Use:   "imsgen",
		Short: "CLI 工具：產生 IMS 網元放號腳本",
		Long:  "依起始號碼與數量展開 USPP、ENUM、SSS 三個網元的放號指令，並記住上次使用的參數。",

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts.configPath, opts.debug)
			if err != nil {
				return err
			}
			opts.app = a
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "imsgen.toml", "設定檔路徑 (TOML，可不存在)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "輸出除錯日誌")

	rootCmd.AddCommand(
		newGenerateCmd(opts),
		newProfileCmd(opts),
		newServeCmd(opts),
		newShowCmd(opts),
	)
	return rootCmd
}

func loadApp(configPath string, debug bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		profiles: config.NewProfileStore(cfg.App.ProfilePath, cfg.App.OutputDir, log),
		writer:   storage.NewScriptStore(cfg.App.OutputDir),
	}, nil
}

// execute 執行命令；不論成功或失敗都關閉日誌檔
func execute(rootCmd *cobra.Command, opts *rootOptions) error {
	// app 在 PersistentPreRunE 才建立
	defer func() { opts.app.close() }()
	return rootCmd.Execute()
}

func Execute() {
	opts := &rootOptions{}
	if err := execute(newRootCmd(opts), opts); err != nil {
		fmt.Fprintln(os.Stderr, red("錯誤:"), err)
		os.Exit(1)
	}
}
