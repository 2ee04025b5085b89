package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flatrecord/flatrecord/pkg/prim"
	"github.com/flatrecord/flatrecord/pkg/record"
)

// toFieldDefs converts a config-file schema declaration to the
// record.FieldDef slice record.Intern wants.
func (d SchemaDecl) toFieldDefs() ([]record.FieldDef, error) {
	out := make([]record.FieldDef, 0, len(d.Fields))

	for _, f := range d.Fields {
		kind, ok := prim.ParseKind(f.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: field %q has unknown kind %q", ErrConfigInvalid, f.Name, f.Kind)
		}

		length := f.Length
		if length == 0 {
			length = 1
		}

		out = append(out, record.FieldDef{Name: f.Name, Kind: kind, Length: length})
	}

	return out, nil
}

// parseFieldFlags parses repeated --field name:kind[:length] flags into
// record.FieldDef, the ad-hoc counterpart to a config-declared schema.
func parseFieldFlags(specs []string) ([]record.FieldDef, error) {
	out := make([]record.FieldDef, 0, len(specs))

	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("cli: --field %q: want name:kind[:length]", spec)
		}

		kind, ok := prim.ParseKind(parts[1])
		if !ok {
			return nil, fmt.Errorf("cli: --field %q: unknown kind %q", spec, parts[1])
		}

		length := 1

		if len(parts) == 3 {
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("cli: --field %q: invalid length: %w", spec, err)
			}

			length = n
		}

		out = append(out, record.FieldDef{Name: parts[0], Kind: kind, Length: length})
	}

	return out, nil
}

// resolveSchema builds a *record.Schema either from a named config
// declaration (--schema) or from ad-hoc --field flags (--name plus one
// or more --field), giving `append`/`schema show` a single entry point
// for both modes.
func resolveSchema(cfg Config, named, name string, fieldSpecs []string) (*record.Schema, error) {
	if named != "" {
		decl, ok := cfg.SchemaByName(named)
		if !ok {
			return nil, fmt.Errorf("cli: schema %q not found in config", named)
		}

		fields, err := decl.toFieldDefs()
		if err != nil {
			return nil, err
		}

		return record.Intern(decl.Name, fields)
	}

	if len(fieldSpecs) == 0 {
		return nil, fmt.Errorf("cli: need --schema <name> or one or more --field name:kind[:length]")
	}

	fields, err := parseFieldFlags(fieldSpecs)
	if err != nil {
		return nil, err
	}

	return record.Intern(name, fields)
}

// parseFieldValue converts a CLI string to the Go value record.Set
// expects for kind, mirroring prim's accepted input shapes (float kinds
// take a float literal, integer kinds take a base-10 integer literal,
// KindBool takes what strconv.ParseBool accepts,
// KindUtf8 passes the string through, KindBytes is not settable from a
// single CLI string and is rejected).
func parseFieldValue(kind prim.Kind, raw string) (any, error) {
	switch kind {
	case prim.KindBool:
		return strconv.ParseBool(raw)
	case prim.KindFloat8, prim.KindFloat16, prim.KindFloat32, prim.KindFloat64:
		return strconv.ParseFloat(raw, 64)
	case prim.KindUtf8:
		return raw, nil
	case prim.KindBytes:
		return nil, fmt.Errorf("cli: --value cannot set a %s field from a CLI literal", kind)
	default:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			uv, uerr := strconv.ParseUint(raw, 10, 64)
			if uerr != nil {
				return nil, fmt.Errorf("cli: invalid integer %q: %w", raw, err)
			}

			return uv, nil
		}

		return v, nil
	}
}
