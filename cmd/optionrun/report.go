package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/sawpanic/optionrun/internal/engine"
	"github.com/sawpanic/optionrun/internal/metrics"
)

// printReport renders the run summary, per-strategy attribution and the
// yearly breakdown as aligned text tables
func printReport(out io.Writer, res *engine.Results) {
	fmt.Fprintf(out, "\n%s backtest  %s → %s  (%d trading days)\n\n",
		appName, res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.TradingDays)

	c := res.Combined
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Starting capital\t$%.2f\n", res.StartingCapital)
	fmt.Fprintf(w, "Ending equity\t$%.2f\n", res.EndingEquity)
	fmt.Fprintf(w, "Total return\t%.2f%%\n", c.TotalReturnPct*100)
	fmt.Fprintf(w, "Total P&L\t$%.2f\n", c.TotalPnL)
	fmt.Fprintf(w, "Commission paid\t$%.2f\n", res.TotalCommission)
	fmt.Fprintf(w, "Trades\t%d (%d W / %d L, %.1f%% win rate)\n", c.Trades, c.Wins, c.Losses, c.WinRate*100)
	fmt.Fprintf(w, "Profit factor\t%.2f\n", c.ProfitFactor)
	fmt.Fprintf(w, "Sharpe ratio\t%.2f\n", c.SharpeRatio)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", c.MaxDrawdownPct*100)
	w.Flush()

	if len(res.ByStrategy) > 0 {
		fmt.Fprintf(out, "\nPer strategy:\n")
		w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STRATEGY\tTRADES\tWIN%\tP&L\tPF\tAVG HOLD")

		names := make([]string, 0, len(res.ByStrategy))
		for name := range res.ByStrategy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := res.ByStrategy[name]
			fmt.Fprintf(w, "%s\t%d\t%.1f\t$%.2f\t%.2f\t%.1fd\n",
				name, s.Trades, s.WinRate*100, s.TotalPnL, s.ProfitFactor, s.AvgDaysHeld)
		}
		w.Flush()
	}

	printYearly(out, c)
}

func printYearly(out io.Writer, c metrics.Summary) {
	if len(c.YearlyPnL) == 0 {
		return
	}
	years := make([]int, 0, len(c.YearlyPnL))
	for y := range c.YearlyPnL {
		years = append(years, y)
	}
	sort.Ints(years)

	fmt.Fprintf(out, "\nBy year:\n")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, y := range years {
		fmt.Fprintf(w, "%d\t$%.2f\n", y, c.YearlyPnL[y])
	}
	w.Flush()
}
