package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/config"
	"github.com/tendant/medical-artists/pkg/medart/delivery"
	"github.com/tendant/medical-artists/pkg/medart/imgsign"
	s3storage "github.com/tendant/medical-artists/pkg/medart/storage/s3"
)

// NewSignCommand creates the sign command
func NewSignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <path>",
		Short: "Print the signature for a proxy path",
		Long:  `Print the signature for a proxy path such as /rs:fit:300:200/plain/aHR0cHM6Ly9...`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proxy, err := config.LoadProxy()
			if err != nil {
				return err
			}

			signer := imgsign.New(imgsign.WithHexKey(proxy.Key), imgsign.WithHexSalt(proxy.Salt))
			sig, err := signer.SignPath(args[0])
			if err != nil {
				return fmt.Errorf("sign failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
}

// NewURLCommand creates the url command
func NewURLCommand() *cobra.Command {
	var (
		spec   medart.TransformSpec
		preset string
	)

	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "Print the delivery URL for an object key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proxy, err := config.LoadProxy()
			if err != nil {
				return err
			}

			final := spec
			if preset != "" {
				base, ok := delivery.PresetSpec(preset)
				if !ok {
					return fmt.Errorf("unknown preset %q (available: %v)", preset, delivery.PresetNames())
				}
				final = mergeSpec(base, cmd, spec)
			}

			t := delivery.New(proxy.Delivery())
			fmt.Fprintln(cmd.OutOrStdout(), t.BuildURL(args[0], final))
			return nil
		},
	}

	cmd.Flags().IntVar(&spec.Width, "w", 0, "target width")
	cmd.Flags().IntVar(&spec.Height, "h", 0, "target height")
	cmd.Flags().IntVar(&spec.Quality, "q", 0, "quality 1-100")
	cmd.Flags().StringVar(&spec.Format, "f", "", "output format, e.g. webp")
	cmd.Flags().StringVar(&preset, "preset", "", "named preset used as the base transform")

	return cmd
}

// mergeSpec overlays the flags the user actually set onto base
func mergeSpec(base medart.TransformSpec, cmd *cobra.Command, flags medart.TransformSpec) medart.TransformSpec {
	if cmd.Flags().Changed("w") {
		base.Width = flags.Width
	}
	if cmd.Flags().Changed("h") {
		base.Height = flags.Height
	}
	if cmd.Flags().Changed("q") {
		base.Quality = flags.Quality
	}
	if cmd.Flags().Changed("f") {
		base.Format = flags.Format
	}
	return base
}

// NewPutCommand creates the put command
func NewPutCommand() *cobra.Command {
	var (
		key         string
		contentType string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file to the S3 bucket",
		Long:  `Upload a file with the server credentials, e.g. to seed the placeholder image.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]

			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			s3cfg, err := config.LoadS3()
			if err != nil {
				return err
			}
			backend, err := s3storage.New(s3storage.Config{
				Region:          s3cfg.Region,
				Bucket:          s3cfg.Bucket,
				AccessKeyID:     s3cfg.AccessKeyID,
				SecretAccessKey: s3cfg.SecretAccessKey,
				Endpoint:        s3cfg.Endpoint,
				UsePathStyle:    s3cfg.UsePathStyle,
			})
			if err != nil {
				return fmt.Errorf("failed to create S3 backend: %w", err)
			}

			if key == "" {
				key = filepath.Base(filePath)
			}
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(filePath))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := backend.Upload(ctx, key, contentType, f); err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to s3://%s/%s\n", filePath, s3cfg.Bucket, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "object key (default: file name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default: from extension)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "upload timeout")

	return cmd
}
