// FoamNest nests foam parts onto stock sheets and writes cut sheets,
// labels, DXF, Excel order lists and G-code.
//
// Build:
//	go build -o foamnest ./cmd/foamnest
//
// Usage:
//	foamnest nest parts.dxf --pdf layout.pdf --gcode out/
//	foamnest serve --addr :8080
//	foamnest config init
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/piwi3910/FoamNest/internal/project"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

var cmdRoot = cobra.Command{
	Use:           "foamnest",
	Short:         "FoamNest nests foam parts onto stock sheets.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging(flagLogLevel)
	},
}

func setupLogging(level string) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)
	if level == "" {
		return nil
	}
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lv)
	return nil
}

// environment is the persisted state every command starts from.
type environment struct {
	configPath string
	config     model.AppConfig
	settings   model.NestSettings
	catalog    model.FoamCatalog
	profiles   []model.GCodeProfile
}

func loadEnvironment() (*environment, error) {
	path := flagConfig
	if path == "" {
		path = project.DefaultConfigPath()
	}
	config, err := project.LoadAppConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagLogLevel == "" && config.LogLevel != "" {
		if lv, err := logrus.ParseLevel(config.LogLevel); err == nil {
			logrus.SetLevel(lv)
		} else {
			logrus.Warnf("ignoring invalid log level %q in %s", config.LogLevel, path)
		}
	}

	settings := model.DefaultSettings()
	config.ApplyToSettings(&settings)

	catalog, err := project.LoadCatalog(project.CatalogPath(config))
	if err != nil {
		return nil, fmt.Errorf("loading foam catalog: %w", err)
	}
	profiles, err := project.LoadCustomProfiles(project.DefaultProfilesPath())
	if err != nil {
		logrus.Warnf("ignoring custom profiles: %v", err)
		profiles = nil
	}

	return &environment{
		configPath: path,
		config:     config,
		settings:   settings,
		catalog:    catalog,
		profiles:   profiles,
	}, nil
}

func main() {
	cmdRoot.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.foamnest/config.json)")
	cmdRoot.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	cmdRoot.AddCommand(newNestCommand())
	cmdRoot.AddCommand(newEstimateCommand())
	cmdRoot.AddCommand(newServeCommand())
	cmdRoot.AddCommand(newConfigCommand())
	cmdRoot.AddCommand(newCatalogCommand())
	cmdRoot.AddCommand(newProfilesCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmdRoot.ExecuteContext(ctx)
	stop()
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
