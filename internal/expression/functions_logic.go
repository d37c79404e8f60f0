package expression

import (
	"github.com/lacquerai/excellent/internal/execcontext"
)

func (fm *FunctionManager) registerLogicFunctions() {
	const category = "logic"

	fm.mustRegister("_and", category, "Returns TRUE if and only if all its arguments evaluate to TRUE",
		[]Param{variadic("args")},
		[]string{"@(AND(contact.gender = \"F\", contact.age >= 18))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			return foldBooleans(ctx, args, true)
		})

	fm.mustRegister("_false", category, "Returns the logical value FALSE",
		nil,
		[]string{"@(FALSE())"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			return Bool(false), nil
		})

	fm.mustRegister("_if", category, "Returns one value if the condition evaluates to TRUE, and another value if it evaluates to FALSE",
		[]Param{required("logical_test"), optional("value_if_true", Int(0)), optional("value_if_false", Bool(false))},
		[]string{"@(IF(contact.gender = \"M\", \"Sir\", \"Madam\"))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			test, err := ToBoolean(args[0], ctx)
			if err != nil {
				return nil, err
			}
			if test {
				return args[1], nil
			}
			return args[2], nil
		})

	fm.mustRegister("_or", category, "Returns TRUE if any argument is TRUE",
		[]Param{variadic("args")},
		[]string{"@(OR(contact.state = \"GA\", contact.state = \"WA\"))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			return foldBooleans(ctx, args, false)
		})

	fm.mustRegister("_true", category, "Returns the logical value TRUE",
		nil,
		[]string{"@(TRUE())"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			return Bool(true), nil
		})
}

// foldBooleans implements AND when all is true and OR otherwise. Every
// argument is converted, so a bad argument errors even after the result is
// known.
func foldBooleans(ctx *execcontext.EvaluationContext, args []Value, all bool) (Value, error) {
	if len(args) == 0 {
		return nil, errWrongArgCount
	}

	result := all
	for _, arg := range args {
		b, err := ToBoolean(arg, ctx)
		if err != nil {
			return nil, err
		}
		if all {
			result = result && b
		} else {
			result = result || b
		}
	}
	return Bool(result), nil
}
