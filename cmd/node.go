package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/dcm2610/StellarStack-sub000/node"
)

// nodeCmd lists the registered nodes.
var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Node command to list nodes.",
	Long: `stellar node command.

The node command allows a user to get information about the nodes
registered with the control plane.`,
	Run: func(cmd *cobra.Command, args []string) {
		panel, _ := cmd.Flags().GetString("panel")
		url := fmt.Sprintf("http://%s/api/nodes", panel)
		resp, err := http.Get(url)
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Fatal(err)
		}
		var nodes []*node.Node
		json.Unmarshal(body, &nodes)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
		fmt.Fprintln(w, "ID\tNAME\tHOST\tONLINE\tMEMORY\tDISK\tCPU\t")
		for _, n := range nodes {
			fmt.Fprintf(w, "%s\t%s\t%s:%d\t%v\t%s\t%s\t%d%%\t\n",
				n.ID, n.Name, n.Host, n.Port, n.Online,
				units.BytesSize(float64(n.Memory)), units.BytesSize(float64(n.Disk)), n.CPU)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.Flags().StringP("panel", "p", "localhost:5555", "Control plane to talk to")
}
