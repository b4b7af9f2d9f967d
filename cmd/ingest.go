package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/arbor-gateway/internal/application"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/spf13/cobra"
)

type ingestOutput struct {
	Relay       string                   `json:"relay"`
	Decoded     int                      `json:"decoded"`
	Dropped     int                      `json:"dropped"`
	Alerts      int                      `json:"alerts"`
	Unverified  int                      `json:"unverified"`
	Records     []domain.TelemetryRecord `json:"records"`
	Diagnostics []ingestDiagnostic       `json:"diagnostics"`
}

type ingestDiagnostic struct {
	Index    int    `json:"index"`
	DeviceID string `json:"device_id"`
	Reason   string `json:"reason"`
}

func newIngestOutput(report application.IngestReport) ingestOutput {
	out := ingestOutput{
		Relay:       report.Relay,
		Decoded:     report.Decoded,
		Dropped:     report.Dropped,
		Alerts:      report.Alerts,
		Unverified:  report.Unverified,
		Records:     report.Records,
		Diagnostics: make([]ingestDiagnostic, 0, len(report.Diagnostics)),
	}
	if out.Records == nil {
		out.Records = []domain.TelemetryRecord{}
	}
	for _, diag := range report.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, ingestDiagnostic{
			Index:    diag.Index,
			DeviceID: diag.DeviceID.String(),
			Reason:   diag.Reason(),
		})
	}
	return out
}

func newIngestCmd(app *app) *cobra.Command {
	var (
		relay    string
		inPath   string
		hexBatch string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Decode one relay batch and forward its records",
		Long:  "Decodes a concatenation of 21-byte encrypted sub-records. The batch is read from --hex, from --in, or from stdin.",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			batch, err := readBatch(cmd.InOrStdin(), inPath, hexBatch)
			if err != nil {
				return err
			}

			svc, err := app.ingestService(cmd.Context())
			if err != nil {
				return err
			}

			report, ingestErr := svc.Ingest(cmd.Context(), relay, batch)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), newIngestOutput(report)); err != nil {
					return err
				}
				return ingestErr
			}

			rendered, err := app.ingestRenderer(report)
			if err != nil {
				return errors.Join(ingestErr, fmt.Errorf("render ingest report: %w", err))
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
				return err
			}
			return ingestErr
		}),
	}

	cmd.Flags().StringVar(&relay, "relay", "local", "Relay id attached to decoded records")
	cmd.Flags().StringVar(&inPath, "in", "", "Raw batch file, - for stdin")
	cmd.Flags().StringVar(&hexBatch, "hex", "", "Batch as hex")
	cmd.MarkFlagsMutuallyExclusive("in", "hex")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func readBatch(stdin io.Reader, inPath, hexBatch string) ([]byte, error) {
	if hexBatch != "" {
		batch, err := hex.DecodeString(strings.Join(strings.Fields(hexBatch), ""))
		if err != nil {
			return nil, errors.New("decode batch: invalid hex")
		}
		return batch, nil
	}

	if inPath == "" || inPath == "-" {
		batch, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read batch: %w", err)
		}
		return batch, nil
	}

	batch, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return batch, nil
}
