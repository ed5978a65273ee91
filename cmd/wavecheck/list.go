package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/gogpu/wavecheck"
	"github.com/gogpu/wavecheck/backend"
	"github.com/urfave/cli/v3"
)

func listCmd(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List registered cases and available backends",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listCases(stdout)
		},
	}
}

func listCases(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CASE\tOP\tCATEGORY\tSHAPE")
	for _, c := range wavecheck.DefaultCases() {
		d, err := wavecheck.Describe(c.Op)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s x%d\n",
			c.Name, c.Op, d.Category, d.Shape.Scope, d.Shape.Components)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nBackends: %s\n", strings.Join(backend.Available(), ", "))
	return err
}
