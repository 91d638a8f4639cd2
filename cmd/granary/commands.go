package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func newWarmCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "warm [attribute...]",
		Short: "Compute and persist attributes",
		Long:  "Resolve the named attributes and everything they depend on. With no names, every attribute is warmed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open()
			if err != nil {
				return err
			}
			defer s.Close()

			start := time.Now()
			if err := s.data.Warm(cmd.Context(), args...); err != nil {
				return err
			}

			closure, err := s.data.Graph().Closure(args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d attributes in %s\n",
				color.GreenString("Warmed"), len(closure), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newGetCommand(f *flags) *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "get <attribute> <id>",
		Short: "Print the value of an attribute for one id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}

			s, err := f.open()
			if err != nil {
				return err
			}
			defer s.Close()

			v, ok, err := s.data.Value(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !ok:
				fmt.Fprintln(out, color.YellowString("no value"))
			case dump:
				dumper.Fdump(out, v)
			default:
				fmt.Fprintf(out, "%v\n", v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the value with its full Go structure")
	return cmd
}

func newStatsCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.cache.Stats()
			if err != nil {
				return err
			}
			entries, err := s.cache.Entries()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			bold.Fprintln(out, "Cache")
			fmt.Fprintf(out, "  directory: %s (%s)\n", s.cfg.Cache.Dir, s.cfg.Cache.Backend)
			fmt.Fprintf(out, "  entries:   %d\n", stats.Entries)
			fmt.Fprintf(out, "  keys:      %d\n", stats.Keys)
			fmt.Fprintf(out, "  size:      %d bytes\n", stats.TotalSize)
			if stats.Entries > 0 {
				fmt.Fprintf(out, "  oldest:    %s ago\n", stats.OldestEntry.Round(time.Second))
				fmt.Fprintf(out, "  newest:    %s ago\n", stats.NewestEntry.Round(time.Second))
			}
			for _, name := range stats.Corrupt {
				fmt.Fprintf(out, "  %s %s\n", color.RedString("corrupt:"), name)
			}

			if len(entries) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ATTRIBUTE\tKEYS\tSIZE\tWRITTEN")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.Name, e.Keys, e.Size, e.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newClearCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [attribute...]",
		Short: "Delete persisted attributes",
		Long:  "Delete the named cache entries, or every entry when no name is given. Entries are recomputed on next use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				if err := s.cache.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared all entries")
				return nil
			}
			for _, name := range args {
				if err := s.cache.Delete(name); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", strings.Join(args, ", "))
			return nil
		},
	}
}

func newGraphCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the attribute dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := f.open()
			if err != nil {
				return err
			}
			defer s.Close()

			g := s.data.Graph()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tATTRIBUTE\tDEPENDS ON\tCACHED")
			for _, name := range g.Order() {
				n, _ := g.Node(name)
				deps := make([]string, 0, len(n.Dependencies()))
				for _, dep := range n.Dependencies() {
					deps = append(deps, dep.Name())
				}
				cached := "no"
				if s.cache.Has(name) {
					cached = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.Level(name), name, strings.Join(deps, ", "), cached)
			}
			return tw.Flush()
		},
	}
}
