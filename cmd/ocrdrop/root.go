package main

import (
	"os"
	"path/filepath"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/log"
	"ocrdrop/internal/ocr"
	"ocrdrop/internal/widget"

	"github.com/spf13/cobra"
)

// interactive marks commands that own the terminal; they log to a file.
const interactive = "interactive"

// app holds what the persistent flags resolve to.
type app struct {
	cfgFile string
	debug   bool
	logFile string
	server  string

	cfg *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ocrdrop",
		Short: "Drop files, watch them upload, read their OCR text",
		Long: `ocrdrop accepts PDF and image files, simulates their upload with a
progress bar, sends each uploaded file to an OCR service and shows the
recognised text page by page. Previously processed documents can be
searched by file name.

Without a subcommand the terminal interface starts.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(a, false)
		},
	}
	rootCmd.Annotations = map[string]string{interactive: "true"}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/ocrdrop/config.yaml)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to this file")
	flags.StringVar(&a.server, "server", "", "OCR service base URL (overrides the config)")

	rootCmd.AddCommand(
		newTUICmd(a),
		newGUICmd(a),
		newWatchCmd(a),
		newUploadCmd(a),
		newSearchCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and configures logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	if a.server != "" {
		a.cfg.Server.BaseURL = a.server
		if err := a.cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid --server")
		}
	}

	opts := []log.Option{log.WithLevel(a.cfg.Logging.Level), log.WithOutput(cmd.ErrOrStderr())}
	if a.cfg.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	logFile := a.logFile
	if logFile == "" && cmd.Annotations[interactive] == "true" {
		logFile = a.cfg.Logging.File
		if logFile == "" {
			logFile = filepath.Join(os.TempDir(), "ocrdrop.log")
		}
	}
	if logFile != "" {
		opts = append(opts, log.WithFile(logFile))
	}
	log.Configure(opts...)
	log.SetDebug(a.debug)

	log.LogWithFields(log.F("server", a.cfg.Server.BaseURL), log.F("command", cmd.Name())).Debug("Configuration loaded")
	return nil
}

// newWidget connects a widget to the configured OCR service.
func (a *app) newWidget(opts ...widget.Option) (*widget.Widget, error) {
	client, err := ocr.NewClient(a.cfg)
	if err != nil {
		return nil, err
	}
	return widget.New(a.cfg, client, opts...), nil
}
