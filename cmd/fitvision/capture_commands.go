package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdulrehhhhman/fitness-ai/internal/vision"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/l1source"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/report"
	"github.com/abdulrehhhhman/fitness-ai/internal/vision/storage/sqlite"
)

func newCaptureCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Manage stored keypoint captures",
	}
	cmd.AddCommand(newCaptureImportCommand(cc))
	cmd.AddCommand(newCaptureListCommand(cc))
	cmd.AddCommand(newCaptureDeleteCommand(cc))
	return cmd
}

func newCaptureImportCommand(cc *commandContext) *cobra.Command {
	var name, exercise string
	var fps float64

	cmd := &cobra.Command{
		Use:   "import <file.jsonl>",
		Short: "Import a JSON-lines keypoint recording into the capture database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cc.wantJSON(cmd)
			if err != nil {
				return err
			}
			if exercise != "" {
				e, err := vision.ParseExercise(exercise)
				if err != nil {
					return err
				}
				exercise = e.String()
			}
			if fps <= 0 {
				fps = cc.tuning().GetDefaultFPS()
			}
			if name == "" {
				name = args[0]
			}

			store, err := cc.openStore()
			if err != nil {
				return err
			}
			capture, err := store.Import(cmd.Context(), name, exercise, fps, l1source.NewJSONLFile(args[0], fps))
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd, capture)
			}
			report.WriteCaptures(cmd.OutOrStdout(), []sqlite.Capture{capture})
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the file path)")
	cmd.Flags().StringVarP(&exercise, "exercise", "e", "", "Exercise recorded in the capture")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Frame rate for frames without timestamps (default from config)")
	return cmd
}

func newCaptureListCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := cc.wantJSON(cmd)
			if err != nil {
				return err
			}
			store, err := cc.openStore()
			if err != nil {
				return err
			}
			captures, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if captures == nil {
					captures = []sqlite.Capture{}
				}
				return writeJSON(cmd, captures)
			}
			if len(captures) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No captures stored")
				return nil
			}
			report.WriteCaptures(cmd.OutOrStdout(), captures)
			return nil
		},
	}
}

func newCaptureDeleteCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored captures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.openStore()
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted capture %s\n", id)
			}
			return nil
		},
	}
}
