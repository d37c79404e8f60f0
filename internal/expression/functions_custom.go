package expression

import (
	"errors"
	"strings"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/shopspring/decimal"
)

func (fm *FunctionManager) registerCustomFunctions() {
	const category = "words"

	fm.mustRegister("field", category, "Reference a field in string separated by a delimiter",
		[]Param{required("text"), required("index"), optional("delimiter", Text(" "))},
		[]string{"@(FIELD(\"a,b,c\", 2, \",\"))"},
		field)

	fm.mustRegister("first_word", category, "Returns the first word in the given text - equivalent to WORD(text, 1)",
		[]Param{required("text")},
		[]string{"@(FIRST_WORD(step.value))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Text(wordSlice(text, 1, 2, false)), nil
		})

	fm.mustRegister("percent", category, "Formats a number as a percentage",
		[]Param{required("number")},
		[]string{"@(PERCENT(0.54))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			d, err := ToDecimal(args[0], ctx)
			if err != nil {
				return nil, err
			}
			n, err := ToInteger(Number(d.Mul(hundred)), ctx)
			if err != nil {
				return nil, err
			}
			return Text(Int(int64(n)).String() + "%"), nil
		})

	fm.mustRegister("read_digits", category, "Formats digits in text for reading in TTS",
		[]Param{required("text")},
		[]string{"@(READ_DIGITS(contact.tel_e164))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Text(readDigits(text)), nil
		})

	fm.mustRegister("remove_first_word", category, "Removes the first word from the given text. The remaining text will be unchanged",
		[]Param{required("text")},
		[]string{"@(REMOVE_FIRST_WORD(step.value))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			return Text(removeFirstWord(text)), nil
		})

	fm.mustRegister("word", category, "Extracts the nth word from the given text string",
		[]Param{required("text"), required("number"), optional("by_spaces", Bool(false))},
		[]string{"@(WORD(step.value, 2))", "@(WORD(step.value, -1, TRUE))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			n, err := ToInteger(args[1], ctx)
			if err != nil {
				return nil, err
			}
			return wordSliceValue(ctx, args[0], n, Int(int64(n+1)), args[2])
		})

	fm.mustRegister("word_count", category, "Returns the number of words in the given text string",
		[]Param{required("text"), optional("by_spaces", Bool(false))},
		[]string{"@(WORD_COUNT(step.value))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			text, err := ToText(args[0], ctx)
			if err != nil {
				return nil, err
			}
			bySpaces, err := ToBoolean(args[1], ctx)
			if err != nil {
				return nil, err
			}
			return Int(int64(len(splitWords(text, bySpaces)))), nil
		})

	fm.mustRegister("word_slice", category, "Extracts a substring of the words beginning at start, and up to but not-including stop",
		[]Param{required("text"), required("start"), optional("stop", Int(0)), optional("by_spaces", Bool(false))},
		[]string{"@(WORD_SLICE(step.value, 2, 4))", "@(WORD_SLICE(step.value, -2))"},
		func(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
			start, err := ToInteger(args[1], ctx)
			if err != nil {
				return nil, err
			}
			return wordSliceValue(ctx, args[0], start, args[2], args[3])
		})
}

var hundred = decimal.NewFromInt(100)

func field(ctx *execcontext.EvaluationContext, args []Value) (Value, error) {
	text, err := ToText(args[0], ctx)
	if err != nil {
		return nil, err
	}
	index, err := ToInteger(args[1], ctx)
	if err != nil {
		return nil, err
	}
	delimiter, err := ToText(args[2], ctx)
	if err != nil {
		return nil, err
	}
	if index < 1 {
		return nil, errors.New("Field index cannot be less than 1")
	}

	var fields []string
	for _, piece := range strings.Split(text, delimiter) {
		if piece != delimiter && strings.TrimSpace(piece) != "" {
			fields = append(fields, piece)
		}
	}

	if index > len(fields) {
		return Text(""), nil
	}
	return Text(fields[index-1]), nil
}

func wordSliceValue(ctx *execcontext.EvaluationContext, textArg Value, start int, stopArg, bySpacesArg Value) (Value, error) {
	text, err := ToText(textArg, ctx)
	if err != nil {
		return nil, err
	}
	stop, err := ToInteger(stopArg, ctx)
	if err != nil {
		return nil, err
	}
	bySpaces, err := ToBoolean(bySpacesArg, ctx)
	if err != nil {
		return nil, err
	}
	if start == 0 {
		return nil, errors.New("Start word cannot be zero")
	}
	return Text(wordSlice(text, start, stop, bySpaces)), nil
}

// wordSlice joins the words from start up to but not including stop. Both
// are 1-based, negative values count from the end and a zero stop means
// through the last word.
func wordSlice(text string, start, stop int, bySpaces bool) string {
	if start > 0 {
		start--
	}

	var end *int
	if stop != 0 {
		if stop > 0 {
			stop--
		}
		end = &stop
	}

	return strings.Join(slice(splitWords(text, bySpaces), start, end), " ")
}

// removeFirstWord drops the first word and any whitespace before the next
func removeFirstWord(text string) string {
	text = strings.TrimLeft(text, " \t\r\n")
	first := wordSlice(text, 1, 2, false)
	if first == "" {
		return ""
	}

	idx := strings.Index(text, first)
	return strings.TrimLeft(text[idx+len(first):], " \t\r\n")
}

// readDigits spaces out the digits of a number so a text to speech engine
// reads them one by one. Nine digit numbers are treated as social security
// numbers, other lengths are chunked by three or four.
func readDigits(text string) string {
	text = strings.TrimPrefix(strings.TrimSpace(text), "+")
	size := len(text)

	switch {
	case size == 0:
		return ""
	case size == 9:
		groups := []string{text[:3], text[3:5], text[5:]}
		for i, g := range groups {
			groups[i] = spaceChars(g, " ")
		}
		return strings.Join(groups, " , ")
	case size%3 == 0 && size > 3:
		return spaceChars(strings.Join(chunk(text, 3), ","), " ")
	case size%4 == 0:
		return spaceChars(strings.Join(chunk(text, 4), ","), " ")
	}
	return spaceChars(text, ",")
}

func chunk(text string, size int) []string {
	chunks := make([]string, 0, len(text)/size)
	for i := 0; i < len(text); i += size {
		chunks = append(chunks, text[i:min(i+size, len(text))])
	}
	return chunks
}

func spaceChars(text, sep string) string {
	return strings.Join(strings.Split(text, ""), sep)
}
