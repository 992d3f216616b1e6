package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdulrehhhhman/fitness-ai/internal/version"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/pipeline"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/report"
)

func newExercisesCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List supported exercises and input formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cc.wantJSON(cmd)
			if err != nil {
				return err
			}
			info := pipeline.Info()
			if asJSON {
				return writeJSON(cmd, info)
			}
			report.WriteExercises(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "Inputs: %v\n", info.InputFormats)
			return nil
		},
	}
}

func newHealthCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that pose detectors can be created and respond",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cc.wantJSON(cmd)
			if err != nil {
				return err
			}
			pool, err := cc.detectorPool(cc.tuning())
			if err != nil {
				return err
			}
			h := pipeline.Health(cmd.Context(), pool)
			if asJSON {
				if err := writeJSON(cmd, h); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d detectors)\n", h.Service, h.Status, h.Detectors)
			}
			if h.Status != pipeline.StatusHealthy {
				return fmt.Errorf("detector unhealthy: %s", h.DetectorInfo)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "fitvision %s\n", version.String())
			return nil
		},
	}
}
