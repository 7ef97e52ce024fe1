package protect

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/devsweep/internal/protect"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List protected devices",
		Long: `List the devices on the protection list for the selected provider.

Examples:
  devsweep protect list
  devsweep protect list --all
  devsweep protect list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("all", false, "List entries for every provider")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	providerName := cmd.Flag("provider").Value.String()
	if all, _ := cmd.Flags().GetBool("all"); all {
		providerName = ""
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "table"
	}

	repo, err := protect.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	records, err := repo.List(providerName)
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}
	if output != "table" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No protected devices.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECT ID\tPROVIDER\tADDED\tNOTE")
	fmt.Fprintln(w, "---------\t--------\t-----\t----")
	for _, rec := range records {
		note := rec.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			rec.DeviceID,
			rec.Provider,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			note,
		)
	}
	w.Flush()
	return nil
}
