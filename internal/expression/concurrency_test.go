package expression

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTemplate_SharedContext(t *testing.T) {
	ctx := createTestContext(t, map[string]interface{}{
		"contact": map[string]interface{}{"name": "Bob"},
	}, dates.DayFirst)
	evaluator := NewEvaluator()

	const (
		workers    = 16
		iterations = 200
	)

	var wg sync.WaitGroup
	failures := make(chan string, workers*iterations)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				output, errs := evaluator.EvaluateTemplate(
					`@contact.name @(DATEVALUE("2-3-13")) @(TIMEVALUE("2:55 pm"))`, ctx, false)
				if len(errs) > 0 || output != "Bob 02-03-2013 14:55" {
					failures <- output
				}

				output, errs = evaluator.EvaluateTemplate(`@(RANDBETWEEN(1, 10))|@(RAND())`, ctx, false)
				if len(errs) > 0 {
					failures <- output
					continue
				}
				between, _, _ := strings.Cut(output, "|")
				n, err := strconv.Atoi(between)
				if err != nil || n < 1 || n > 10 {
					failures <- output
				}
			}
		}()
	}

	wg.Wait()
	close(failures)

	var failed []string
	for f := range failures {
		failed = append(failed, f)
	}
	assert.Empty(t, failed)
}

func TestEvaluateExpression_ModNearInteger(t *testing.T) {
	ctx := createTestContext(t, nil, dates.DayFirst)

	v, err := NewEvaluator().EvaluateExpression("MOD(0.99999999999, 1)", ctx)
	require.NoError(t, err)
	assertNumber(t, "0.99999999999", v)
}

