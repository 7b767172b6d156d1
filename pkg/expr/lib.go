package expr

import (
	"math"
	"path/filepath"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// pathBase(path) == "summary.csv"
		stringFunc("pathBase", filepath.Base),
		// pathDir(path).endsWith("/summaries")
		stringFunc("pathDir", filepath.Dir),
		// pathExt(path) in [".csv", ".txt"]
		stringFunc("pathExt", filepath.Ext),

		// `pathMatch` reports whether the base name of the path matches a shell
		// file name pattern.
		// Example: pathMatch(path, "RDE_*_summary.csv").
		cel.Function("pathMatch",
			cel.Overload("path_match", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(path, pattern ref.Val) ref.Val {
					p, ok1 := path.(types.String)
					glob, ok2 := pattern.(types.String)
					if !ok1 || !ok2 {
						return types.NewErr("pathMatch: invalid string value")
					}

					matched, err := filepath.Match(string(glob), filepath.Base(string(p)))
					if err != nil {
						return types.NewErr("pathMatch: %v", err)
					}

					return types.Bool(matched)
				}),
			),
		),

		// `cell` returns the cell at a 0-based column of a row, or an empty
		// string when the row is shorter.
		// Example: cell(rows[0], 0) == "TEST ID".
		cel.Function("cell",
			cel.Overload("cell_list_int", []*cel.Type{cel.ListType(cel.StringType), cel.IntType}, cel.StringType,
				cel.BinaryBinding(func(row, index ref.Val) ref.Val {
					cells, ok := row.(traits.Lister)
					if !ok {
						return types.NewErr("cell: invalid row value")
					}

					i, ok := index.(types.Int)
					if !ok {
						return types.NewErr("cell: invalid column value")
					}

					size, ok := cells.Size().(types.Int)
					if !ok {
						return types.NewErr("cell: invalid row size")
					}

					if i < 0 || i >= size {
						return types.String("")
					}

					return cells.Get(i)
				}),
			),
		),
	}
}

// stringFunc declares a CEL function from string to string.
func stringFunc(name string, fn func(string) string) cel.EnvOption {
	return cel.Function(name,
		cel.Overload(name+"_string", []*cel.Type{cel.StringType}, cel.StringType,
			cel.UnaryBinding(func(arg ref.Val) ref.Val {
				s, ok := arg.(types.String)
				if !ok {
					return types.NewErr("%s: invalid string value", name)
				}

				return types.String(fn(string(s)))
			}),
		),
	)
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// ConvertToCELValue converts rows, cells and decoded YAML values to CEL
// values. Unsupported types become null.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case ref.Val:
		return v

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int64:
		return types.Int(v)

	case uint64:
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case []string:
		return types.NewStringList(types.DefaultTypeAdapter, v)

	case [][]string:
		rows := make([]ref.Val, len(v))
		for i, row := range v {
			rows[i] = types.NewStringList(types.DefaultTypeAdapter, row)
		}

		return types.NewRefValList(types.DefaultTypeAdapter, rows)

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewRefValList(types.DefaultTypeAdapter, celValues)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewRefValMap(types.DefaultTypeAdapter, celMap)

	default:
		return types.NullValue
	}
}
