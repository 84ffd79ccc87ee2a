package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/piwi3910/FoamNest/internal/engine"
	"github.com/piwi3910/FoamNest/internal/importer"
	"github.com/piwi3910/FoamNest/internal/model"
	"github.com/piwi3910/FoamNest/internal/project"
	"github.com/piwi3910/FoamNest/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newEstimateCommand() *cobra.Command {
	var waste, price float64
	var foam string
	cmd := &cobra.Command{
		Use:   "estimate <parts-file>",
		Short: "Estimate how many sheets to buy without nesting.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			loader := importer.NewLoader(env.settings)
			loader.Catalog = &env.catalog
			loaded, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			if price <= 0 && foam != "" {
				ft := env.catalog.FindByID(foam)
				if ft == nil {
					ft = env.catalog.FindByName(foam)
				}
				if ft == nil {
					return fmt.Errorf("unknown foam type %q", foam)
				}
				price = ft.PricePerSheet
			}
			est := model.CalculatePurchaseEstimate(loaded.Parts, env.settings.Sheet(), waste, price)
			printEstimate(cmd.OutOrStdout(), est)
			return nil
		},
	}
	cmd.Flags().Float64Var(&waste, "waste", 15, "waste allowance in percent")
	cmd.Flags().Float64Var(&price, "price", 0, "price per sheet")
	cmd.Flags().StringVar(&foam, "foam", "", "foam type whose sheet price to use")
	return cmd
}

func printEstimate(out io.Writer, est model.PurchaseEstimate) {
	fmt.Fprintf(out, "Part area:     %.2f m²\n", est.TotalPartArea/1e6)
	fmt.Fprintf(out, "Foam volume:   %.3f m³\n", est.TotalVolumeM3)
	fmt.Fprintf(out, "Sheets (min):  %d (%.2f exact)\n", est.SheetsNeededMin, est.SheetsNeededExact)
	fmt.Fprintf(out, "Sheets to buy: %d with %.0f%% waste\n", est.SheetsWithWaste, est.WastePercent)
	if est.EstimatedCost > 0 {
		fmt.Fprintf(out, "Cost:          %.2f\n", est.EstimatedCost)
	}
}

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the nesting API over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = env.config.ListenAddr
			}
			loader := importer.NewLoader(env.settings)
			loader.Catalog = &env.catalog
			srv := server.New(engine.New(env.settings), loader, &env.catalog, logrus.StandardLogger())
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration file.",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", env.configPath)
			return printJSON(cmd.OutOrStdout(), env.config)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flagConfig
			if path == "" {
				path = project.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := project.SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List or extend the foam type catalog.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the foam types.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ft := range env.catalog.Types {
				fmt.Fprintf(out, "%-10s %-20s %5.0f kg/m³  %8.2f /m³\n", ft.ID, ft.Name, ft.Density, ft.PricePerM3)
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Merge foam types from another catalog file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			merged, added, err := project.ImportCatalog(args[0], env.catalog)
			if err != nil {
				return err
			}
			if err := project.SaveCatalog(project.CatalogPath(env.config), merged); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d foam types\n", added)
			return nil
		},
	}

	cmd.AddCommand(list, importCmd)
	return cmd
}

func newProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage G-code controller profiles.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom profiles.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range model.GCodeProfiles {
				fmt.Fprintf(out, "%-12s %s\n", p.Name, p.Description)
			}
			for _, p := range env.profiles {
				fmt.Fprintf(out, "%-12s %s (custom)\n", p.Name, p.Description)
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <profile.json>",
		Short: "Add or replace a custom profile.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			p, err := project.ImportProfile(args[0])
			if err != nil {
				return err
			}
			profiles := project.UpsertProfile(env.profiles, p)
			if err := project.SaveCustomProfiles(project.DefaultProfilesPath(), profiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported profile %s\n", p.Name)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export <name> <profile.json>",
		Short: "Write a profile to a file for sharing.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			p, ok := findProfile(args[0], env.profiles)
			if !ok {
				return errors.New("no profile named " + args[0])
			}
			return project.ExportProfile(args[1], p)
		},
	}

	cmd.AddCommand(list, importCmd, exportCmd)
	return cmd
}

// findProfile looks name up without falling back to Generic.
func findProfile(name string, custom []model.GCodeProfile) (model.GCodeProfile, bool) {
	for _, p := range custom {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range model.GCodeProfiles {
		if p.Name == name {
			return p, true
		}
	}
	return model.GCodeProfile{}, false
}
