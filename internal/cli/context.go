package cli

import (
	"fmt"
	"strings"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/lacquerai/excellent/internal/expression"
	"github.com/spf13/viper"
)

// buildContext assembles the evaluation context from the --context
// document, any --var assignments and the timezone, date style and now
// overrides
func buildContext() (*execcontext.EvaluationContext, error) {
	doc := &execcontext.Document{}
	if path := viper.GetString("context"); path != "" {
		loaded, err := execcontext.LoadDocument(path)
		if err != nil {
			return nil, err
		}
		doc = loaded
	}

	for _, assignment := range contextVars {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", assignment)
		}
		doc.Set(strings.TrimSpace(key), value)
	}

	if tz := viper.GetString("tz"); tz != "" {
		doc.Timezone = tz
	}
	if viper.GetBool("month-first") {
		dayFirst := false
		doc.DayFirst = &dayFirst
	}
	if now := viper.GetString("now"); now != "" {
		doc.Now = now
	}

	return doc.Build()
}

// newEvaluator creates an evaluator configured by the prefix and allowed
// top level flags
func newEvaluator() (*expression.Evaluator, error) {
	var opts []expression.EvaluatorOption

	if p := viper.GetString("prefix"); p != "" {
		if len(p) != 1 {
			return nil, fmt.Errorf("prefix must be a single character, got %q", p)
		}
		opts = append(opts, expression.WithPrefix(p[0]))
	}

	if names := viper.GetStringSlice("allowed"); len(names) > 0 {
		opts = append(opts, expression.WithAllowedTopLevels(names...))
	}

	return expression.NewEvaluator(opts...), nil
}

// evaluationStrategy parses the --strategy flag
func evaluationStrategy() (expression.Strategy, error) {
	return expression.ParseStrategy(viper.GetString("strategy"))
}
