package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/flatrecord/flatrecord/pkg/record"
)

// yamlSchema is the yaml.v3 counterpart to SchemaDecl, used by
// `schema show/export --format=yaml` as an alternate serialization
// alongside the canonical JSON schema blob recordlog writes inline.
// There is no yaml import path.
type yamlSchema struct {
	Name   string      `yaml:"name"`
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Length int    `yaml:"length,omitempty"`
}

func newSchemaCommand(cfg Config) *Command {
	var format string

	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.StringVar(&format, "format", "json", "output format for 'show' and 'export': json or yaml")

	return &Command{
		Flags: fs,
		Usage: "schema <list|show|export> [name]",
		Short: "List, show, or export schemas declared in config",
		Long:  "Operates on the schemas declared in flatrecordctl's config file.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("cli: schema: need a subcommand (list|show|export)")
			}

			switch args[0] {
			case "list":
				for _, s := range cfg.Schemas {
					o.Println(s.Name)
				}

				return nil
			case "show", "export":
				if len(args) < 2 {
					return fmt.Errorf("cli: schema %s: need a schema name", args[0])
				}

				return showSchema(o, cfg, args[1], format)
			default:
				return fmt.Errorf("cli: schema: unknown subcommand %q", args[0])
			}
		},
	}
}

func showSchema(o *IO, cfg Config, name, format string) error {
	decl, ok := cfg.SchemaByName(name)
	if !ok {
		return fmt.Errorf("cli: schema %q not found in config", name)
	}

	fields, err := decl.toFieldDefs()
	if err != nil {
		return err
	}

	schema, err := record.BuildSchema(decl.Name, fields)
	if err != nil {
		return fmt.Errorf("cli: schema %q: %w", name, err)
	}

	switch format {
	case "yaml":
		out := yamlSchema{Name: schema.Name()}
		for _, f := range schema.Fields() {
			out.Fields = append(out.Fields, yamlField{Name: f.Name, Kind: f.Kind.String(), Length: f.Length})
		}

		blob, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("cli: schema %q: marshal yaml: %w", name, err)
		}

		o.Printf("%s", blob)

		return nil
	case "json":
		blob, err := schema.CanonicalJSON()
		if err != nil {
			return fmt.Errorf("cli: schema %q: %w", name, err)
		}

		o.Println(string(blob))

		return nil
	default:
		return fmt.Errorf("cli: schema: unknown --format %q, want json or yaml", format)
	}
}
