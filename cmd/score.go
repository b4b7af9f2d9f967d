package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bnema/arbor-gateway/internal/chaos"
	"github.com/spf13/cobra"
)

type scoreOutput struct {
	Seed        uint32        `json:"seed"`
	Temperature float64       `json:"temperature"`
	Acoustic    uint32        `json:"acoustic"`
	Status      string        `json:"status"`
	Points      uint8         `json:"points"`
	Packed      string        `json:"packed"`
	Z           float64       `json:"z"`
	Trajectory  []chaos.Point `json:"trajectory,omitempty"`
}

func newScoreCmd(app *app) *cobra.Command {
	var (
		seedRaw     string
		temperature float64
		acoustic    uint32
		trajectory  bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one reading with the chaos engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := parseSeed(seedRaw)
			if err != nil {
				return err
			}

			result := chaos.Score(seed, temperature, acoustic)
			if !asJSON {
				rendered, err := app.scoreRenderer(seed, result)
				if err != nil {
					return fmt.Errorf("render score: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			}

			out := scoreOutput{
				Seed:        seed,
				Temperature: temperature,
				Acoustic:    acoustic,
				Status:      result.Status.String(),
				Points:      result.Points,
				Packed:      fmt.Sprintf("%02x", result.Packed()),
				Z:           result.Z,
			}
			if trajectory {
				out.Trajectory = chaos.Trajectory(seed, temperature, acoustic)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&seedRaw, "seed", "", "Seed (device id), decimal or 0x-prefixed hex")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "Temperature reading")
	cmd.Flags().Uint32Var(&acoustic, "acoustic", 0, "Acoustic reading")
	cmd.Flags().BoolVar(&trajectory, "trajectory", false, "Include every integration step (JSON only)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("seed")

	cmd.AddCommand(newScoreForecastCmd())
	return cmd
}

func newScoreForecastCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the yield of a series of readings",
		Long:  "Reads one sample per line as \"<seed> <temperature> <acoustic>\". Blank lines and lines starting with # are skipped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if inPath != "" && inPath != "-" {
				file, err := os.Open(inPath)
				if err != nil {
					return fmt.Errorf("open samples: %w", err)
				}
				defer file.Close()
				in = file
			}

			samples, err := readSamples(in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), chaos.Forecast(samples))
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "-", "Samples file, - for stdin")
	return cmd
}

func readSamples(r io.Reader) ([]chaos.Sample, error) {
	var samples []chaos.Sample
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, fmt.Errorf("samples line %d: want 3 fields, got %d", line, len(fields))
		}
		seed, err := parseSeed(fields[0])
		if err != nil {
			return nil, fmt.Errorf("samples line %d: %w", line, err)
		}
		temperature, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("samples line %d: invalid temperature %q", line, fields[1])
		}
		acoustic, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("samples line %d: invalid acoustic %q", line, fields[2])
		}
		samples = append(samples, chaos.Sample{Seed: seed, Temperature: temperature, Acoustic: uint32(acoustic)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return samples, nil
}

func parseSeed(raw string) (uint32, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q", raw)
	}
	return uint32(value), nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
