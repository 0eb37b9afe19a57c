/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

// Command bitfix checks patch definitions, tries them against executable
// files, launches targets with the preload library and serves the control
// panel.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"bitfix"
)

var (
	PatchDirFlag string
	OutFlag      string
	BitsFlag     int
)

var rootCmd = &cobra.Command{
	Use:           "bitfix",
	Short:         "Scripted byte patches for running executables",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Loads every patch definition and reports errors",
	Args:  cobra.NoArgs,
	RunE:  CheckCommand,
}

var dryRunCmd = &cobra.Command{
	Use:   "dry-run [exe]",
	Short: "Applies the patches to an executable file without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  DryRunCommand,
}

var runCmd = &cobra.Command{
	Use:   "run [exe] [args...]",
	Short: "Starts an executable with the patch library preloaded",
	Args:  cobra.MinimumNArgs(1),
	RunE:  RunCommand,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the web control panel",
	Args:  cobra.NoArgs,
	RunE:  ServeCommand,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(bitfix.Banner())
	},
}

func loadConfig() *bitfix.Config {
	config := &bitfix.Config{}
	err := config.Init()
	if err != nil {
		log.Fatalf("cannot init config system: %s", err)
	}
	err = config.Load()
	if err != nil {
		log.Fatalf("error loading config file: %s", err)
	}
	if PatchDirFlag != "" {
		config.PatchDir = PatchDirFlag
	}
	err = bitfix.SetupLogging(config)
	if err != nil {
		log.Fatalf("cannot setup logging: %s", err)
	}
	return config
}

func loadCatalog(config *bitfix.Config) (*bitfix.Catalog, error) {
	sources, err := config.PatchSources()
	if err != nil {
		return nil, err
	}
	return bitfix.LoadCatalog(sources)
}

func CheckCommand(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(loadConfig())
	if err != nil {
		return err
	}

	for _, def := range catalog.Definitions() {
		fmt.Printf("%s/%s: %s\n", def.Source, def.Label, def.Compiled())
	}
	fmt.Printf("%d patches ok\n", catalog.Len())

	return nil
}

func DryRunCommand(cmd *cobra.Command, args []string) error {
	config := loadConfig()
	catalog, err := loadCatalog(config)
	if err != nil {
		return err
	}

	img, err := bitfix.LoadFileImage(args[0])
	if err != nil {
		return err
	}

	bits := config.DisasmBits
	if cmd.Flags().Changed("bits") {
		bits = BitsFlag
	}

	report, err := bitfix.DryRun(img, catalog, bits)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s): %d pages, %d matches\n", img.Name, img.Format, report.Pages, report.Matches)
	for _, change := range report.Changes {
		fmt.Printf("  %X: %02X -> %02X  %s\n", change.Address, change.Old, change.New, change.Instruction)
	}
	for _, failure := range report.Failures {
		fmt.Printf("  failed: %s\n", failure)
	}

	if OutFlag != "" {
		err = img.Save(OutFlag)
		if err != nil {
			return fmt.Errorf("cannot write %q: %w", OutFlag, err)
		}
		fmt.Printf("patched copy written to %s\n", OutFlag)
	}

	return nil
}

func RunCommand(cmd *cobra.Command, args []string) error {
	config := loadConfig()
	return bitfix.Launch(config.LibraryPath(), args[0], args[1:]...)
}

func ServeCommand(cmd *cobra.Command, args []string) error {
	return bitfix.Serve(loadConfig())
}

func main() {
	rootCmd.PersistentFlags().StringVar(&PatchDirFlag, "patches", "", "directory with patch definitions")
	dryRunCmd.Flags().StringVarP(&OutFlag, "out", "o", "", "write the patched file here")
	dryRunCmd.Flags().IntVar(&BitsFlag, "bits", 64, "x86 mode used to describe changes, 0 to skip")
	runCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(checkCmd, dryRunCmd, runCmd, serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		os.Exit(1)
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
