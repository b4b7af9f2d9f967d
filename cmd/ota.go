package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bnema/arbor-gateway/internal/application"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/spf13/cobra"
)

type pushOutput struct {
	Manifest domain.FirmwareManifest `json:"manifest"`
	Endpoint string                  `json:"endpoint"`
	Sent     int                     `json:"sent"`
	Error    string                  `json:"error,omitempty"`
}

func newOTACmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ota",
		Short: "Package and push firmware or model artifacts",
	}

	cmd.AddCommand(
		newOTAPackageCmd(),
		newOTAPushCmd(app),
		newOTAVerifyCmd(),
	)
	return cmd
}

type artifactFlags struct {
	version string
	mode    string
	in      string
}

func (f *artifactFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.version, "version", "", "Artifact version label")
	cmd.Flags().StringVar(&f.mode, "mode", string(domain.ChunkModeWide), "Chunk mode: wide (512 B) or narrow (13 B)")
	cmd.Flags().StringVar(&f.in, "in", "", "Artifact file")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("in")
}

func (f *artifactFlags) pack() (domain.FirmwareManifest, []domain.FirmwareChunk, error) {
	mode, err := domain.ParseChunkMode(f.mode)
	if err != nil {
		return domain.FirmwareManifest{}, nil, err
	}
	artifact, err := os.ReadFile(f.in)
	if err != nil {
		return domain.FirmwareManifest{}, nil, fmt.Errorf("read artifact: %w", err)
	}
	return application.Package(f.version, artifact, mode)
}

func newOTAPackageCmd() *cobra.Command {
	var (
		flags artifactFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Compute the manifest for an artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifest, _, err := flags.pack()
			if err != nil {
				return err
			}
			if out == "" {
				return writeJSON(cmd.OutOrStdout(), manifest)
			}

			data, err := json.MarshalIndent(manifest, "", "  ")
			if err != nil {
				return fmt.Errorf("encode manifest: %w", err)
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "manifest written to %s (%d chunks)\n", out, manifest.TotalChunks)
			return err
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the manifest to this file instead of stdout")
	return cmd
}

func newOTAVerifyCmd() *cobra.Command {
	var manifestPath, in string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an artifact against a manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(manifestPath)
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			var manifest domain.FirmwareManifest
			if err := json.Unmarshal(data, &manifest); err != nil {
				return fmt.Errorf("decode manifest: %w", err)
			}
			artifact, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read artifact: %w", err)
			}
			if err := application.Verify(manifest, artifact); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "artifact %s matches checksum %s\n", manifest.Version, manifest.Checksum)
			return err
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest file")
	cmd.Flags().StringVar(&in, "in", "", "Artifact file")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newOTAPushCmd(app *app) *cobra.Command {
	var (
		flags    artifactFlags
		endpoint string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Stream an artifact to a device chunk by chunk",
		Long:  "Sends every chunk as a confirmable PUT and stops at the first failure. Recovery is a full restart from chunk zero.",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			manifest, chunks, err := flags.pack()
			if err != nil {
				return err
			}

			transmitter := application.NewTransmitter(app.transport, app.cfg.Transport.Timeout, app.logger.Named("ota"), app.metrics)
			sent := 0
			transmit := func(ctx context.Context, progress application.Progress) error {
				return transmitter.Transmit(ctx, endpoint, manifest, chunks, func(done, total int) {
					sent = done
					if progress != nil {
						progress(done, total)
					}
				})
			}

			if asJSON {
				pushErr := transmit(cmd.Context(), nil)
				out := pushOutput{Manifest: manifest, Endpoint: endpoint, Sent: sent}
				if pushErr != nil {
					out.Error = pushErr.Error()
				}
				if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				return pushErr
			}

			if err := runTransmitSpinner(cmd.Context(), cmd.ErrOrStderr(), manifest.TotalChunks, transmit); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pushed %s (%d chunks, crc32 %s) to %s\n", manifest.Version, manifest.TotalChunks, manifest.Checksum, endpoint)
			return err
		}),
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Device endpoint, coap://host[:port]/path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}
