package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/arbor-gateway/internal/application"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/spf13/cobra"
)

func newCommandCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "command",
		Short: "Send encrypted commands to devices",
	}

	cmd.AddCommand(
		newCommandSendCmd(app),
		newCommandRekeyCmd(app),
	)
	return cmd
}

func newCommandSendCmd(app *app) *cobra.Command {
	var (
		deviceRaw string
		code      string
		duration  time.Duration
		target    string
		keyRaw    string
		endpoint  string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encrypt and send one command",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			device, err := domain.ParseDeviceID(deviceRaw)
			if err != nil {
				return err
			}
			choice, err := domain.ParseKeyChoice(keyRaw)
			if err != nil {
				return err
			}
			keys, err := app.keys(cmd.Context())
			if err != nil {
				return err
			}

			envelope, sendErr := app.dispatcher(keys).Dispatch(cmd.Context(), application.CommandRequest{
				Device:   device,
				Code:     code,
				Duration: duration,
				Target:   target,
				Key:      choice,
				Endpoint: endpoint,
			})
			return writeEnvelope(cmd, app, envelope, sendErr, asJSON)
		}),
	}

	cmd.Flags().StringVar(&deviceRaw, "device", "", "Device id (hex)")
	cmd.Flags().StringVar(&code, "code", "", "Command code, for example IRRIGATE")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Command duration, sent in whole seconds")
	cmd.Flags().StringVar(&target, "target", "", "Command target (defaults to the device id)")
	cmd.Flags().StringVar(&keyRaw, "key", string(domain.KeyCurrent), "Key to encrypt with: current or previous")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Device endpoint, coap://host[:port]/path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func newCommandRekeyCmd(app *app) *cobra.Command {
	var (
		deviceRaw string
		endpoint  string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "rekey",
		Short: "Rotate a device key and deliver the new key under the old one",
		Long:  "Rotates and delivers the new key under the old one. While a grace period is open the pending key is resent without rotating again.",
		RunE: withApp(app, func(cmd *cobra.Command, _ []string) error {
			device, err := domain.ParseDeviceID(deviceRaw)
			if err != nil {
				return err
			}
			keys, err := app.keys(cmd.Context())
			if err != nil {
				return err
			}

			envelope, sendErr := app.dispatcher(keys).SendKeyUpdate(cmd.Context(), device, endpoint)
			return writeEnvelope(cmd, app, envelope, sendErr, asJSON)
		}),
	}

	cmd.Flags().StringVar(&deviceRaw, "device", "", "Device id (hex)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Device endpoint, coap://host[:port]/path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

// writeEnvelope prints the final envelope whether or not the send failed.
func writeEnvelope(cmd *cobra.Command, app *app, envelope domain.CommandEnvelope, sendErr error, asJSON bool) error {
	var err error
	if asJSON {
		err = writeJSON(cmd.OutOrStdout(), envelope)
	} else {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "command %s to %s: %s\n", envelope.ID, envelope.DeviceID, envelope.Status)
	}
	if err != nil {
		return errors.Join(sendErr, err)
	}

	if pending := app.retry.Drain(); len(pending) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "timed out: %d command(s) queued for retry, run the command again to resend\n", len(pending))
	}
	return sendErr
}
