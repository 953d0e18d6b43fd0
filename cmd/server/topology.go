package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/sector"
)

var topologyDimensions int

func init() {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Build a board offline and print its wiring",
		Long: `Build a board of the given dimensions and print, for every cell, its
address, axial position, linear index and the linear index of each neighbor in
absolute-direction order (C for the center, - at the board edge).

Examples:
  hexfleet topology --dimensions 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTopology(cmd.Context(), cmd.OutOrStdout(), topologyDimensions)
		},
	}
	cmd.Flags().IntVarP(&topologyDimensions, "dimensions", "d", 2, "Rings around the center")
	rootCmd.AddCommand(cmd)
}

func writeTopology(ctx context.Context, w io.Writer, dimensions int) error {
	b, err := board.New(0, dimensions)
	if err != nil {
		return err
	}
	if err := b.Build(ctx); err != nil {
		return err
	}
	cells, err := b.Cells()
	if err != nil {
		return err
	}
	center, err := b.Center()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintln(tw, "index\taddress\taxial\tn0\tn1\tn2\tn3\tn4\tn5")
	for _, c := range append(cells, center) {
		p := sector.ToAxial(c.Address())
		fmt.Fprintf(tw, "%s\t%s\t%d,%d", label(c), c.Address(), p.Q, p.R)
		for _, n := range c.Neighbors() {
			fmt.Fprintf(tw, "\t%s", label(n))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func label(c *board.Cell) string {
	switch {
	case c == nil:
		return "-"
	case c.IsCenter():
		return "C"
	default:
		return fmt.Sprint(c.Index())
	}
}
