package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nadzzz/ordertaker/internal/locale"
)

var menuPack string

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the menu of a restaurant pack",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := locale.Load(menuPack)
		if err != nil {
			return err
		}
		return printMenu(cmd.OutOrStdout(), bundle)
	},
}

func init() {
	menuCmd.Flags().StringVar(&menuPack, "pack", "", "restaurant pack (default: embedded pt-PT pack)")
}

var titleColor = color.New(color.Bold)

func printMenu(w io.Writer, b *locale.Bundle) error {
	titleColor.Fprintf(w, "%s (%s)\n", b.Restaurant, b.Language)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range b.Catalog.Categories() {
		entries := b.Catalog.InCategory(c.Name)
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s\t\t\n", c.Title)
		for _, e := range entries {
			needs := ""
			if kinds := b.Catalog.RequiredModifiers(e.Name); len(kinds) > 0 {
				parts := make([]string, len(kinds))
				for i, k := range kinds {
					parts[i] = string(k)
				}
				needs = "asks " + strings.Join(parts, ", ")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Name, e.Price, needs)
		}
	}
	return tw.Flush()
}
