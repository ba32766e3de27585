package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/polzovatel/relocate/internal/browser"
	"github.com/polzovatel/relocate/internal/document"
)

func newCaptureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture --url URL --out FILE",
		Short: "Save the rendered HTML of a page as a snapshot",
		Args:  cobra.NoArgs,
		RunE:  a.runCapture,
	}
	cmd.Flags().String("url", "", "page to capture")
	cmd.Flags().String("out", "", "file to write")
	cmd.Flags().String("storage", "", "playwright storage state to load (cookies, local storage)")
	cmd.Flags().Bool("headless", a.cfg.Headless, "run the browser headless")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) runCapture(cmd *cobra.Command, _ []string) error {
	target, _ := cmd.Flags().GetString("url")
	out, _ := cmd.Flags().GetString("out")
	storage, _ := cmd.Flags().GetString("storage")
	headless, _ := cmd.Flags().GetBool("headless")

	if _, err := browser.ValidateURL(target); err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := component("capture")

	launcher, err := browser.NewLauncher(ctx, headless)
	if err != nil {
		return fmt.Errorf("browser init: %w", err)
	}
	defer launcher.Close()

	capturer, err := launcher.NewCapturer(ctx, storage)
	if err != nil {
		return fmt.Errorf("browser capturer: %w", err)
	}
	defer capturer.Close(ctx)

	content, err := capturer.Capture(ctx, target)
	if err != nil {
		return err
	}
	// Refuse to write a snapshot that could never be resolved against.
	if _, err := document.Parse(content); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info().Str("url", target).Str("path", out).Int("bytes", len(content)).Msg("snapshot saved")
	return nil
}
