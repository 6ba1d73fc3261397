package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wut/internal/services/identity"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them in the application home",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, fp, err := wire.Identity.Generate()
			if errors.Is(err, identity.ErrIdentityExists) {
				fmt.Fprintf(cmd.OutOrStdout(), "Identity already exists in %s; keys are never replaced.\n", wire.Config.Home)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nFingerprint: %s\n", fp)
			return nil
		},
	}
}
