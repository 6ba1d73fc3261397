package commands

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wut/internal/crypto"
	"wut/internal/store"
	"wut/internal/ui"
)

func whoamiCmd() *cobra.Command {
	var noQR bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity public key, fingerprint and QR code",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := wire.Keys.LoadPublicKey()
			if errors.Is(err, store.ErrKeyFileMissing) {
				return fmt.Errorf("no identity in %s; run `wut init` first: %w", wire.Config.Home, err)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enc := base64.StdEncoding.EncodeToString(pub.Slice())
			fmt.Fprintf(out, "Public key:  %s\nFingerprint: %s\n", enc, crypto.Fingerprint(pub))
			if !noQR {
				ui.WriteQR(out, enc)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "skip the QR code")
	return cmd
}
