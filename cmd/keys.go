package cmd

import (
	"fmt"
	"time"

	statusadapter "github.com/bnema/arbor-gateway/internal/adapters/render/status"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/spf13/cobra"
)

const graceWarnAfter = 24 * time.Hour

type keyListEntry struct {
	DeviceID      string    `json:"device_id"`
	InGracePeriod bool      `json:"in_grace_period"`
	RotatedAt     time.Time `json:"rotated_at"`
}

func newKeysCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage per-device symmetric keys",
	}

	cmd.AddCommand(
		newKeysRegisterCmd(app),
		newKeysRotateCmd(app),
		newKeysClearGraceCmd(app),
		newKeysListCmd(app),
	)
	return cmd
}

func newKeysRegisterCmd(app *app) *cobra.Command {
	var deviceRaw, keyHex string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Provision a device with a fresh key",
		Long:  "Generates a random 256-bit key for the device and prints it once as hex so it can be flashed during provisioning. With --key the given key is imported instead and nothing is printed back.",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			device, err := domain.ParseDeviceID(deviceRaw)
			if err != nil {
				return err
			}
			keys, err := app.keys(cmd.Context())
			if err != nil {
				return err
			}

			if keyHex != "" {
				key, err := domain.ParseKeyHex(keyHex)
				if err != nil {
					return err
				}
				if err := keys.Import(cmd.Context(), device, key); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "device %s registered with imported key\n", device)
				return err
			}

			key, err := keys.Register(cmd.Context(), device)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "device %s registered\nkey: %s\n", device, key.Hex())
			return err
		}),
	}

	cmd.Flags().StringVar(&deviceRaw, "device", "", "Device id (hex)")
	cmd.Flags().StringVar(&keyHex, "key", "", "Import this 64-char hex key instead of generating one")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

func newKeysRotateCmd(app *app) *cobra.Command {
	var deviceRaw string

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate a device key locally and open its grace period",
		Long:  "Rotates without telling the device. Use `arbor command rekey` to deliver the new key over the air.",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			device, err := domain.ParseDeviceID(deviceRaw)
			if err != nil {
				return err
			}
			keys, err := app.keys(cmd.Context())
			if err != nil {
				return err
			}

			if _, err := keys.Rotate(cmd.Context(), device); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "device %s rotated, previous key valid until first packet under the new key\n", device)
			return err
		}),
	}

	cmd.Flags().StringVar(&deviceRaw, "device", "", "Device id (hex)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

func newKeysClearGraceCmd(app *app) *cobra.Command {
	var deviceRaw string

	cmd := &cobra.Command{
		Use:   "clear-grace",
		Short: "Discard a device's previous key",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			device, err := domain.ParseDeviceID(deviceRaw)
			if err != nil {
				return err
			}
			keys, err := app.keys(cmd.Context())
			if err != nil {
				return err
			}

			if err := keys.ClearGracePeriod(cmd.Context(), device); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "device %s grace period closed\n", device)
			return err
		}),
	}

	cmd.Flags().StringVar(&deviceRaw, "device", "", "Device id (hex)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

func newKeysListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered devices and their grace periods",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			keys, err := app.keys(cmd.Context())
			if err != nil {
				return err
			}
			records, err := keys.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				entries := make([]keyListEntry, 0, len(records))
				for _, record := range records {
					entries = append(entries, keyListEntry{
						DeviceID:      record.DeviceID.String(),
						InGracePeriod: record.InGracePeriod(),
						RotatedAt:     record.RotatedAt,
					})
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			rendered, err := app.keysRenderer(records, statusadapter.RenderOptions{
				Now:            app.now(),
				GraceWarnAfter: graceWarnAfter,
			})
			if err != nil {
				return fmt.Errorf("render keys: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}
