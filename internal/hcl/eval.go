package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// projectVars is exposed to expressions as `project.*`.
type projectVars struct {
	Name     string `cty:"name"`
	Version  string `cty:"version"`
	RootDir  string `cty:"root_dir"`
	BuildDir string `cty:"build_dir"`
}

func functions() map[string]function.Function {
	return map[string]function.Function{
		"chomp":      stdlib.ChompFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"concat":     stdlib.ConcatFunc,
		"distinct":   stdlib.DistinctFunc,
		"flatten":    stdlib.FlattenFunc,
		"format":     stdlib.FormatFunc,
		"formatlist": stdlib.FormatListFunc,
		"join":       stdlib.JoinFunc,
		"length":     stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"min":        stdlib.MinFunc,
		"replace":    stdlib.ReplaceFunc,
		"sort":       stdlib.SortFunc,
		"split":      stdlib.SplitFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"upper":      stdlib.UpperFunc,
	}
}

// newEvalContext builds the context for the second decoding phase.
func newEvalContext(vars projectVars) (*hcl.EvalContext, error) {
	ty, err := gocty.ImpliedType(vars)
	if err != nil {
		return nil, err
	}
	val, err := gocty.ToCtyValue(vars, ty)
	if err != nil {
		return nil, err
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"project": val},
		Functions: functions(),
	}, nil
}
