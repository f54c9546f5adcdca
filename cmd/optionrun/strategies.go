package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sawpanic/optionrun/internal/strategy"
)

func runStrategies(cmd *cobra.Command, args []string) error {
	registry := strategy.DefaultRegistry()
	out := cmd.OutOrStdout()

	for _, name := range registry.Names() {
		s, err := registry.Create(name, nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s\n", name)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  PARAMETER\tDEFAULT\tRANGE\tSTEP")
		for _, p := range s.ParameterSpace() {
			fmt.Fprintf(w, "  %s\t%g\t%g..%g\t%g\n", p.Name, p.Default, p.Min, p.Max, p.Step)
		}
		w.Flush()
		fmt.Fprintln(out)
	}
	return nil
}
