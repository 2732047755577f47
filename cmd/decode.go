package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"qrportal/internal/config"
	"qrportal/internal/navigation"
	"qrportal/internal/scanresolver"
	"qrportal/pkg/camera/preview"
	"qrportal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// decodeCommand constructs the 'decode' subcommand that scans an image file
// ("-" for stdin) and prints where its code leads.
func decodeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <image>",
		Short: "Decodes the code in an image and prints its navigation target",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			var in io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					logger.Fatal(ctx, "could not open image", zap.Error(err))
				}
				defer f.Close()
				in = f
			}

			history := navigation.New(1)
			resolver := scanresolver.New(scanresolver.Deps{
				Source:  newCameraSource(cfg),
				Surface: preview.New(cfg.Scanner.PreviewQuality),
				Decoder: newDecoder(ctx, cfg),
				Router:  history,
				Opener:  history,
			}, scanresolver.NewOptions(cfg))

			target, err := resolver.ScanImageFile(ctx, in)
			if err != nil {
				logger.Fatal(ctx, "could not decode image", zap.Error(err))
			}

			fmt.Printf("%s\t%s\n", target.Kind, target.Value) //nolint: forbidigo
		},
	}

	return cmd
}
