package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/dcm2610/StellarStack-sub000/transfer"
)

// transferCmd shows a server's migration history.
var transferCmd = &cobra.Command{
	Use:   "transfer [server-id]",
	Short: "Transfer command to list a server's migrations",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		panel, _ := cmd.Flags().GetString("panel")
		url := fmt.Sprintf("http://%s/api/servers/%s/transfers", panel, args[0])
		resp, err := http.Get(url)
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Fatal(err)
		}

		var transfers []*transfer.Transfer
		if err := json.Unmarshal(body, &transfers); err != nil {
			log.Fatal(err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
		fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tSTATUS\tPROGRESS\tSTARTED\tERROR\t")
		for _, t := range transfers {
			started := fmt.Sprintf("%s ago", units.HumanDuration(time.Now().UTC().Sub(t.CreatedAt)))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\t%s\t\n",
				t.ID, t.SourceNodeID, t.TargetNodeID, t.Status, t.Progress, started, t.Error)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringP("panel", "p", "localhost:5555", "Control plane to talk to")
}
