package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLQuote(t *testing.T) {
	assert.Equal(t, "", urlQuote(""))
	assert.Equal(t, "%3F%21%3DJow%26Flow", urlQuote("?!=Jow&Flow"))
	assert.Equal(t, "a%20b", urlQuote("a b"))
}

func TestDecimalPow(t *testing.T) {
	testCases := []struct {
		base, power, expected string
	}{
		{"4", "2", "16"},
		{"4", "0.5", "2"},
		{"2", "-2", "0.25"},
	}

	for _, tc := range testCases {
		result, err := decimalPow(dec(tc.base), dec(tc.power))
		require.NoError(t, err)
		assertNumber(t, tc.expected, result)
	}

	_, err := decimalPow(dec("-4"), dec("0.5"))
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	intPtr := func(i int) *int { return &i }

	testCases := []struct {
		name     string
		start    int
		stop     *int
		expected []string
	}{
		{"all", 0, nil, items},
		{"from index", 2, nil, []string{"c", "d"}},
		{"negative start", -1, nil, []string{"d"}},
		{"bounded", 1, intPtr(3), []string{"b", "c"}},
		{"negative stop", 0, intPtr(-1), []string{"a", "b", "c"}},
		{"start past end", 10, nil, nil},
		{"inverted", 3, intPtr(1), nil},
		{"clamped negative", -10, intPtr(2), []string{"a", "b"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, slice(items, tc.start, tc.stop))
		})
	}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "ghi", "jkl"}, splitWords(" abc-def  ghi  jkl", false))
	assert.Equal(t, []string{"abc-def", "ghi", "jkl"}, splitWords(" abc-def  ghi  jkl", true))
	assert.Equal(t, []string{"01", "02", "2014"}, splitWords("01-02-2014", false))
	assert.Nil(t, splitWords("  ", false))
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "0", groupThousands("0"))
	assert.Equal(t, "999", groupThousands("999"))
	assert.Equal(t, "1,000", groupThousands("1000"))
	assert.Equal(t, "1,234,567.891", groupThousands("1234567.891"))
	assert.Equal(t, "-123,456", groupThousands("-123456"))
}
