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

	"github.com/dcm2610/StellarStack-sub000/server"
)

// statusCmd lists servers and their lifecycle state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Status command to list servers",
	Long: `stellar status command.

The status command allows a user to get the status of servers from
the control plane.`,
	Run: func(cmd *cobra.Command, args []string) {
		panel, _ := cmd.Flags().GetString("panel")
		url := fmt.Sprintf("http://%s/api/servers", panel)
		resp, err := http.Get(url)
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Fatal(err)
		}

		var servers []*server.Server
		if err := json.Unmarshal(body, &servers); err != nil {
			log.Fatal(err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
		fmt.Fprintln(w, "ID\tNAME\tNODE\tCREATED\tSTATUS\tMEMORY (MiB)\tDISK (MiB)\tIMAGE\t")
		for _, s := range servers {
			age := fmt.Sprintf("%s ago", units.HumanDuration(time.Now().UTC().Sub(s.CreatedAt)))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t\n",
				s.ID, s.Name, s.NodeID, age, s.Status, s.Resources.Memory, s.Resources.Disk, s.Image)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("panel", "p", "localhost:5555", "Control plane to talk to")
}
