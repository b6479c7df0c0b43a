package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/modelsbuilder/compiler/gen"
	"github.com/syssam/modelsbuilder/compiler/load"
)

func (a *app) inspectCmd() *cobra.Command {
	var (
		format string
		out    string
		models bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the content type graph or its code model",
		Long: `inspect loads the content type graph and prints it as a snapshot, or
writes the snapshot to a file. With --models it prints the models a
generation would declare instead, without reading hand-written files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(a.v)
			if err != nil {
				return err
			}
			src, release, err := s.Source.open()
			if err != nil {
				return err
			}
			defer release()
			g, err := src.Load(cmd.Context())
			if err != nil {
				return err
			}
			switch {
			case models:
				cfg, err := s.config(a.log)
				if err != nil {
					return err
				}
				cg, err := gen.Build(cfg, g, nil)
				if err != nil {
					return err
				}
				return printModels(a.stdout, cg)
			case out != "":
				if err := load.WriteFile(out, g); err != nil {
					return err
				}
				a.log.Info("snapshot written", "file", out, "types", len(g.Types))
				return nil
			}
			b, err := load.Encode(load.Format(format), g)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(b)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(load.FormatYAML), "snapshot format printed: yaml or json")
	cmd.Flags().StringVar(&out, "out", "", "write the snapshot to a file, in the format of its extension")
	cmd.Flags().BoolVar(&models, "models", false, "print the models of the graph")
	cmd.Flags().String("package", "example.com/models", "import path of the generated package, with --models")
	cmd.Flags().String("name-source", "alias", "derive model names from the content type alias or name, with --models")
	return cmd
}

// printModels prints one line per model: its name, base, mixins and
// properties.
func printModels(w io.Writer, g *gen.Graph) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tALIAS\tKIND\tBASE\tMIXINS\tPROPERTIES")
	for _, t := range g.Types {
		base := "-"
		if t.Parent != nil {
			base = t.Parent.Name
		} else if t.Base != nil {
			base = t.Base.String()
		}
		mixins := make([]string, 0, len(t.Mixins))
		for _, m := range t.Mixins {
			mixins = append(mixins, m.Name)
		}
		props := make([]string, 0, len(t.ExpandedProperties))
		for _, p := range t.ExpandedProperties {
			if len(p.Errors) > 0 {
				props = append(props, p.Name+"!")
				continue
			}
			props = append(props, p.Name+" "+p.Type.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Name, t.Alias, t.Kind, base, dash(strings.Join(mixins, ", ")), dash(strings.Join(props, ", ")))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
