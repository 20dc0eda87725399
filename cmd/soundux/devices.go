package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundux/internal/audio"
)

var devicesOpts struct {
	format string
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List playback devices",
	Long: `List the playback devices known to the audio backend, with the
volume soundux applies to each. The default device is marked with "*".`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().StringVarP(&devicesOpts.format, "format", "f", "plain",
		"Output format (dmenu, json, yaml, plain, ids)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	backend, err := audio.NewMalgoBackend(logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	registry := audio.NewRegistry(logger)
	if err := registry.Init(backend, cfg.VolumeOverrides()); err != nil {
		return err
	}

	return createFormatter(devicesOpts.format).Devices(os.Stdout, registry.Devices())
}
