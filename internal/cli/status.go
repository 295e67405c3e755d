package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func runStatus(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	svc, _, err := buildServices(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(svc.Status)
	}
	renderStatus(cmd.OutOrStdout(), svc.Status)
	return nil
}
