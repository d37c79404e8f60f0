package expression

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/rs/zerolog/log"
)

// Implementation is the body of a built-in function. It receives one value
// per declared parameter, with defaults already applied, followed by any
// variadic arguments.
type Implementation func(ctx *execcontext.EvaluationContext, args []Value) (Value, error)

// Param describes a function parameter. A nil Default means the parameter
// is required.
type Param struct {
	Name     string `json:"name"`
	Default  Value  `json:"-"`
	Variadic bool   `json:"variadic,omitempty"`
}

// FunctionDefinition documents a registered function
type FunctionDefinition struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Signature   string   `json:"signature"`
	Params      []Param  `json:"params"`
	Examples    []string `json:"examples,omitempty"`
}

type function struct {
	def  *FunctionDefinition
	impl Implementation
}

// FunctionManager is a case-insensitive table of functions. It is filled
// once at startup and only read afterwards.
type FunctionManager struct {
	functions map[string]*function
}

// NewFunctionManager creates an empty function manager
func NewFunctionManager() *FunctionManager {
	return &FunctionManager{functions: make(map[string]*function)}
}

var (
	defaultFunctions     *FunctionManager
	defaultFunctionsOnce sync.Once
)

// DefaultFunctions returns the shared manager holding the built-in library
func DefaultFunctions() *FunctionManager {
	defaultFunctionsOnce.Do(func() {
		fm := NewFunctionManager()
		fm.registerTextFunctions()
		fm.registerDateFunctions()
		fm.registerMathFunctions()
		fm.registerLogicFunctions()
		fm.registerCustomFunctions()
		defaultFunctions = fm
	})
	return defaultFunctions
}

// canonicalName lower-cases a function name and strips the leading
// underscore used to register names that clash with keywords.
func canonicalName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "_"))
}

// Register adds a function. Only the last parameter may be variadic.
func (fm *FunctionManager) Register(name string, def *FunctionDefinition, impl Implementation) error {
	key := canonicalName(name)
	if key == "" {
		return fmt.Errorf("function name can't be empty")
	}
	if _, exists := fm.functions[key]; exists {
		return fmt.Errorf("function %s is already registered", key)
	}
	for i, p := range def.Params {
		if p.Variadic && i != len(def.Params)-1 {
			return fmt.Errorf("function %s: only the last parameter can be variadic", key)
		}
	}

	def.Name = strings.ToUpper(key)
	def.Signature = signature(def)
	fm.functions[key] = &function{def: def, impl: impl}
	return nil
}

func (fm *FunctionManager) mustRegister(name, category, description string, params []Param, examples []string, impl Implementation) {
	def := &FunctionDefinition{Category: category, Description: description, Params: params, Examples: examples}
	if err := fm.Register(name, def, impl); err != nil {
		panic(err)
	}
}

func signature(def *FunctionDefinition) string {
	parts := make([]string, len(def.Params))
	for i, p := range def.Params {
		switch {
		case p.Variadic:
			parts[i] = p.Name + "..."
		case p.Default != nil:
			parts[i] = fmt.Sprintf("%s=%s", p.Name, reprWithoutContext(p.Default))
		default:
			parts[i] = p.Name
		}
	}
	return fmt.Sprintf("%s(%s)", def.Name, strings.Join(parts, ", "))
}

func reprWithoutContext(v Value) string {
	if t, ok := v.(TextValue); ok {
		return `"` + strings.ReplaceAll(t.Val, `"`, `""`) + `"`
	}
	return displayText(v)
}

// Lookup returns the definition of a function
func (fm *FunctionManager) Lookup(name string) (*FunctionDefinition, bool) {
	fn, ok := fm.functions[canonicalName(name)]
	if !ok {
		return nil, false
	}
	return fn.def, true
}

// ListFunctions returns all definitions sorted by name
func (fm *FunctionManager) ListFunctions() []*FunctionDefinition {
	defs := make([]*FunctionDefinition, 0, len(fm.functions))
	for _, fn := range fm.functions {
		defs = append(defs, fn.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Invoke binds args to the function's parameters and calls it. Supplied
// arguments fill parameters left to right, missing ones take their
// defaults and a variadic parameter takes everything left over.
func (fm *FunctionManager) Invoke(ctx *execcontext.EvaluationContext, name string, args []Value) (Value, error) {
	fn, ok := fm.functions[canonicalName(name)]
	if !ok {
		return nil, newEvaluationError("No such function %s", name)
	}

	bound := make([]Value, 0, len(args))
	remaining := args
	for _, p := range fn.def.Params {
		if p.Variadic {
			bound = append(bound, remaining...)
			remaining = nil
			break
		}
		switch {
		case len(remaining) > 0:
			bound = append(bound, remaining[0])
			remaining = remaining[1:]
		case p.Default != nil:
			bound = append(bound, p.Default)
		default:
			return nil, newEvaluationError("Too few arguments provided for function %s", name)
		}
	}
	if len(remaining) > 0 {
		return nil, newEvaluationError("Too many arguments provided for function %s", name)
	}

	result, err := fn.impl(ctx, bound)
	if err != nil {
		log.Debug().Err(err).Str("function", fn.def.Name).Msg("function call failed")
		return nil, wrapEvaluationError(err, "Error calling function %s with arguments %s", name, prettyArgs(args, ctx))
	}
	return result, nil
}

func prettyArgs(args []Value, ctx *execcontext.EvaluationContext) string {
	pretty := make([]string, len(args))
	for i, arg := range args {
		if t, ok := arg.(TextValue); ok {
			pretty[i] = `"` + t.Val + `"`
			continue
		}
		s, err := ToText(arg, ctx)
		if err != nil {
			s = arg.String()
		}
		pretty[i] = s
	}
	return strings.Join(pretty, ", ")
}

func required(name string) Param { return Param{Name: name} }

func optional(name string, def Value) Param { return Param{Name: name, Default: def} }

func variadic(name string) Param { return Param{Name: name, Variadic: true} }
