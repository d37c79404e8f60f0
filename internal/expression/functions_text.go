package expression

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/lacquerai/excellent/internal/execcontext"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var controlCharRegex = regexp.MustCompile(`\p{C}`)

// maxFixedDecimals caps the fractional digits FIXED will render
const maxFixedDecimals = 9

func (fm *FunctionManager) registerTextFunctions() {
	const category = "text"

	fm.mustRegister("char", category, "Returns the character specified by a number",
		[]Param{required("number")},
		[]string{"@(CHAR(65))"},
		unichar)

	fm.mustRegister("clean", category, "Removes all non-printable characters from a text string",
		[]Param{required("text")},
		[]string{"@(CLEAN(step.value))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Text(controlCharRegex.ReplaceAllString(text, "")), nil
		})

	fm.mustRegister("code", category, "Returns a numeric code for the first character in a text string",
		[]Param{required("text")},
		[]string{"@(CODE(\"A\"))"},
		unicodeOf)

	fm.mustRegister("concatenate", category, "Joins text strings into one text string",
		[]Param{variadic("args")},
		[]string{"@(CONCATENATE(contact.first_name, \" \", contact.last_name))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			var b strings.Builder
			for _, arg := range args {
				text, err := ToText(arg, ctx)
				if err != nil {
					return nil, err
				}
				b.WriteString(text)
			}
			return Text(b.String()), nil
		})

	fm.mustRegister("fixed", category, "Formats the given number in decimal format using a period and commas",
		[]Param{required("number"), optional("decimals", Int(2)), optional("no_commas", Bool(false))},
		[]string{"@(FIXED(1234.5678))", "@(FIXED(1234.5678, 1, TRUE))"},
		fixed)

	fm.mustRegister("left", category, "Returns the first characters in a text string",
		[]Param{required("text"), required("num_chars")},
		[]string{"@(LEFT(contact.name, 3))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			runes, n, err := textAndCount(ctx, args, "Number of chars can't be negative")
			if err != nil {
				return nil, err
			}
			return Text(string(runes[:min(n, len(runes))])), nil
		})

	fm.mustRegister("_len", category, "Returns the number of characters in a text string",
		[]Param{required("text")},
		[]string{"@(LEN(step.value))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Int(int64(len([]rune(text)))), nil
		})

	fm.mustRegister("lower", category, "Converts a text string to lowercase",
		[]Param{required("text")},
		[]string{"@(LOWER(contact.name))"},
		caseMapper(cases.Lower(language.Und)))

	fm.mustRegister("proper", category, "Capitalizes the first letter of every word in a text string",
		[]Param{required("text")},
		[]string{"@(PROPER(contact.name))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Text(proper(text)), nil
		})

	fm.mustRegister("rept", category, "Repeats text a given number of times",
		[]Param{required("text"), required("number_times")},
		[]string{"@(REPT(\"*\", 10))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			runes, n, err := textAndCount(ctx, args, "Number of times can't be negative")
			if err != nil {
				return nil, err
			}
			return Text(strings.Repeat(string(runes), n)), nil
		})

	fm.mustRegister("right", category, "Returns the last characters in a text string",
		[]Param{required("text"), required("num_chars")},
		[]string{"@(RIGHT(contact.tel, 4))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			runes, n, err := textAndCount(ctx, args, "Number of chars can't be negative")
			if err != nil {
				return nil, err
			}
			return Text(string(runes[len(runes)-min(n, len(runes)):])), nil
		})

	fm.mustRegister("substitute", category, "Substitutes new_text for old_text in a text string. If instance_num is given, only that instance is replaced",
		[]Param{required("text"), required("old_text"), required("new_text"), optional("instance_num", Int(-1))},
		[]string{"@(SUBSTITUTE(step.value, \"can't\", \"can\"))"},
		substitute)

	fm.mustRegister("unichar", category, "Returns the unicode character specified by a number",
		[]Param{required("number")},
		[]string{"@(UNICHAR(65))"},
		unichar)

	fm.mustRegister("_unicode", category, "Returns a numeric code for the first character in a text string",
		[]Param{required("text")},
		[]string{"@(UNICODE(\"A\"))"},
		unicodeOf)

	fm.mustRegister("upper", category, "Converts a text string to uppercase",
		[]Param{required("text")},
		[]string{"@(UPPER(contact.name))"},
		caseMapper(cases.Upper(language.Und)))
}

func unichar(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
	code, err := ToInteger(args[0], ctx)
	if err != nil {
		return nil, err
	}
	if code < 0 || code > unicode.MaxRune {
		return nil, fmt.Errorf("%d is not a valid character code", code)
	}
	return Text(string(rune(code))), nil
}

func unicodeOf(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
	text, err := ToText(args[0], ctx)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errors.New("Text can't be empty")
	}
	return Int(int64([]rune(text)[0])), nil
}

func caseMapper(caser cases.Caser) Implementation {
	return func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
		text, err := ToText(args[0], ctx)
		if err != nil {
			return nil, err
		}
		return Text(caser.String(text)), nil
	}
}

// proper lower-cases text then upper-cases every letter that doesn't follow
// another letter.
func proper(text string) string {
	runes := []rune(strings.ToLower(text))
	prevLetter := false
	for i, r := range runes {
		isLetter := unicode.IsLetter(r)
		if isLetter && !prevLetter {
			runes[i] = unicode.ToTitle(r)
		}
		prevLetter = isLetter
	}
	return string(runes)
}

func textAndCount(ctx *execcontext.EvaluationContext, args []Value, negativeMessage string) ([]rune, int, error) {
	text, err := ToText(args[0], ctx)
	if err != nil {
		return nil, 0, err
	}
	n, err := ToInteger(args[1], ctx)
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		return nil, 0, errors.New(negativeMessage)
	}
	return []rune(text), n, nil
}

func fixed(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
	number, err := ToDecimal(args[0], ctx)
	if err != nil {
		return nil, err
	}
	decimals, err := ToInteger(args[1], ctx)
	if err != nil {
		return nil, err
	}
	noCommas, err := ToBoolean(args[2], ctx)
	if err != nil {
		return nil, err
	}

	decimals = min(decimals, maxFixedDecimals)
	rounded := number.Round(int32(decimals))

	formatted := rounded.StringFixed(int32(max(decimals, 0)))
	if !noCommas {
		formatted = groupThousands(formatted)
	}
	return Text(formatted), nil
}

func substitute(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
	text, err := ToText(args[0], ctx)
	if err != nil {
		return nil, err
	}
	oldText, err := ToText(args[1], ctx)
	if err != nil {
		return nil, err
	}
	newText, err := ToText(args[2], ctx)
	if err != nil {
		return nil, err
	}
	instance, err := ToInteger(args[3], ctx)
	if err != nil {
		return nil, err
	}

	if instance < 0 {
		return Text(strings.ReplaceAll(text, oldText, newText)), nil
	}

	splits := strings.Split(text, oldText)
	var b strings.Builder
	b.WriteString(splits[0])
	for i, part := range splits[1:] {
		if i+1 == instance {
			b.WriteString(newText)
		} else {
			b.WriteString(oldText)
		}
		b.WriteString(part)
	}
	return Text(b.String()), nil
}
