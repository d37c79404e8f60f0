package expression

import (
	"testing"

	"github.com/lacquerai/excellent/internal/dates"
	"github.com/stretchr/testify/assert"
)

func TestEvaluator_EvaluateTemplate(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := createTestContext(t, map[string]interface{}{
		"contact": map[string]interface{}{
			"*":        "Bob Smith",
			"name":     "Bob",
			"reports":  4,
			"tel":      "+250 788 123 123",
			"groups":   []interface{}{"Testers", "Developers"},
			"profile":  map[string]interface{}{"age": 32},
			"nickname": nil,
		},
		"flow": map[string]interface{}{
			"answer": map[string]interface{}{"*": "Yes", "category": "Positive"},
		},
		"step": map[string]interface{}{"value": "?!=Jow&Flow"},
	}, dates.DayFirst)

	testCases := []struct {
		name      string
		template  string
		urlEncode bool
		expected  string
		errors    []string
	}{
		{
			name:     "No expressions",
			template: "Hello world",
			expected: "Hello world",
		},
		{
			name:     "Full expression",
			template: "Answer is @(2 + 3)",
			expected: "Answer is 5",
		},
		{
			name:     "Single variable",
			template: "Hi @contact.name you have @(contact.reports * 2) reports",
			expected: "Hi Bob you have 8 reports",
		},
		{
			name:     "Default value",
			template: "Hi @contact",
			expected: "Hi Bob Smith",
		},
		{
			name:     "Identifier ends at trailing period",
			template: "Hi @contact.name.",
			expected: "Hi Bob.",
		},
		{
			name:     "Identifier ends at punctuation",
			template: "@contact.name, how are you?",
			expected: "Bob, how are you?",
		},
		{
			name:     "Nested default",
			template: "@flow.answer (@flow.answer.category)",
			expected: "Yes (Positive)",
		},
		{
			name:     "List",
			template: "Groups: @contact.groups",
			expected: "Groups: Testers, Developers",
		},
		{
			name:     "List index",
			template: "First group: @contact.groups.0",
			expected: "First group: Testers",
		},
		{
			name:     "Null value",
			template: "Nickname: '@contact.nickname'",
			expected: "Nickname: ''",
		},
		{
			name:     "Escaped prefix",
			template: "Email me @@ bob@@nyaruka.com",
			expected: "Email me @ bob@nyaruka.com",
		},
		{
			name:     "Email address is not an expression",
			template: "bob@nyaruka.com",
			expected: "bob@nyaruka.com",
		},
		{
			name:     "Prefix followed by space",
			template: "@ contact",
			expected: "@ contact",
		},
		{
			name:     "Trailing prefix",
			template: "Hi @",
			expected: "Hi @",
		},
		{
			name:     "Unbalanced expression",
			template: "Answer is @(2 + 3",
			expected: "Answer is @(2 + 3",
		},
		{
			name:     "Parentheses in string literal",
			template: `@(LEN(")") & "(")`,
			expected: "1(",
		},
		{
			name:     "Unterminated string literal",
			template: `@(LEN(")`,
			expected: `@(LEN(")`,
		},
		{
			name:     "Function in single variable form is not allowed",
			template: "@SUM(1, 2)",
			expected: "@SUM(1, 2)",
		},
		{
			name:     "Invalid expression",
			template: "@('x')",
			expected: "@('x')",
			errors:   []string{"Expression is invalid"},
		},
		{
			name:     "Missing item",
			template: "Hi @contact.first_name!",
			expected: "Hi @contact.first_name!",
			errors:   []string{"No item called 'contact.first_name' in context"},
		},
		{
			name:     "Map without default",
			template: "@contact.profile is @contact.profile.age",
			expected: "@contact.profile is 32",
			errors:   []string{"Item 'contact.profile' in context has no default value"},
		},
		{
			name:     "Errors don't stop evaluation",
			template: "@(1 / 0) @(2 / 1) @(XXX())",
			expected: "@(1 / 0) 2 @(XXX())",
			errors:   []string{"Division by zero", "No such function XXX"},
		},
		{
			name:      "URL encoding",
			template:  "http://example.com/?q=@step.value&n=@contact.name",
			urlEncode: true,
			expected:  "http://example.com/?q=%3F%21%3DJow%26Flow&n=Bob",
		},
		{
			name:      "URL encoding spaces",
			template:  "tel=@contact.tel",
			urlEncode: true,
			expected:  "tel=%2B250%20788%20123%20123",
		},
		{
			name:     "Unicode text",
			template: "واحد @(UPPER(\"abc\")) ثلاثة",
			expected: "واحد ABC ثلاثة",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, errs := evaluator.EvaluateTemplate(tc.template, ctx, tc.urlEncode)
			assert.Equal(t, tc.expected, output)
			assert.Equal(t, tc.errors, errs)
		})
	}
}

func TestEvaluator_EvaluateTemplateResolveAvailable(t *testing.T) {
	evaluator := NewEvaluator()
	ctx := createTestContext(t, map[string]interface{}{"foo": 5, "bar": "x"}, dates.DayFirst)

	testCases := []struct {
		template string
		expected string
	}{
		{"@(1 + 2)", "3"},
		{"Hi @contact.name", "Hi @contact.name"},
		{"@(foo + contact.name + bar)", `@(5+contact.name+"x")`},
		{"@(foo & bar)", "5x"},
	}

	for _, tc := range testCases {
		output, errs := evaluator.EvaluateTemplateWithStrategy(tc.template, ctx, false, StrategyResolveAvailable)
		assert.Equal(t, tc.expected, output, tc.template)
		assert.Empty(t, errs, tc.template)
	}
}
