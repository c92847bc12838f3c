package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soliplex/flasharb/utils"
)

var scanLimit int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle and print the candidate routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		st, err := buildStack(log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		refreshed := st.cache.RefreshAll(ctx, st.scanner.RefreshTargets())
		log.Info("quotes refreshed", zap.Int("count", refreshed))

		routes := st.scanner.Scan(ctx)
		if len(routes) == 0 {
			fmt.Fprintln(os.Stdout, "no profitable routes found")
			return nil
		}

		sort.Slice(routes, func(i, j int) bool {
			return routes[i].NetProfit > routes[j].NetProfit
		})
		if scanLimit > 0 && len(routes) > scanLimit {
			routes = routes[:scanLimit]
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("#", "Type", "Route", "Venues", "Loan", "Gross", "Net", "Net%", "Conf")

		for i, r := range routes {
			table.Append(
				fmt.Sprintf("%d", i+1),
				string(r.Complexity),
				strings.Join(r.Assets, "->"),
				strings.Join(r.Venues(), ","),
				fmt.Sprintf("%.2f %s", r.LoanAmount, r.LoanAsset),
				fmt.Sprintf("%.4f", r.GrossProfit),
				fmt.Sprintf("%.4f", r.NetProfit),
				fmt.Sprintf("%.3f%%", r.NetProfitPct),
				fmt.Sprintf("%.2f", r.Confidence),
			)
		}

		table.Render()
		return nil
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanLimit, "limit", 20, "maximum number of routes to print (0 = all)")
	rootCmd.AddCommand(scanCmd)
}
