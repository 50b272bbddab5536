package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/wolfeidau/bundlekit/internal/logger"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

type DescribeCmd struct {
	TargetFlags `embed:""`
}

func (c *DescribeCmd) Run(globals *Globals) error {
	return c.run(os.Stdout, globals)
}

func (c *DescribeCmd) run(w io.Writer, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	m, opts, err := c.Manifest()
	if err != nil {
		return err
	}

	log.Debug().Str("env", string(m.Mode)).Str("root", opts.Root).Msg("Describing manifest")

	return describe(w, m)
}

func describe(w io.Writer, m *manifest.Manifest) error {
	fmt.Fprintf(w, "mode: %s  devtool: %s  output: %s\n\n", m.Mode, m.Devtool, m.Output.Filename)

	rules := make([][]string, 0, len(m.Module.Rules))
	for _, r := range m.Module.Rules {
		loaders := make([]string, 0, len(r.Use))
		for _, p := range r.Use {
			loaders = append(loaders, p.Loader)
		}
		inline := "-"
		if limit, ok := r.InlineLimit(); ok {
			inline = fmt.Sprintf("< %d bytes", limit)
		}
		rules = append(rules, []string{r.Test, strings.Join(loaders, " > "), inline})
	}
	if err := renderTable(w, []string{"Test", "Loaders", "Inline"}, rules); err != nil {
		return err
	}

	fmt.Fprintln(w)

	plugins := make([][]string, 0, len(m.Plugins))
	for _, p := range m.Plugins {
		plugins = append(plugins, []string{p.Name, formatOptions(p.Options)})
	}
	return renderTable(w, []string{"Plugin", "Options"}, plugins)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewTable(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to add rows to table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func formatOptions(opts map[string]any) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, opts[k]))
	}
	return strings.Join(parts, " ")
}
