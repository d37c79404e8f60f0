package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kigali(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Kigali")
	require.NoError(t, err)
	return loc
}

func TestYearFrom2Digits(t *testing.T) {
	testCases := []struct {
		short, current, expected int
	}{
		{1, 2015, 2001},
		{64, 2015, 2064},
		{65, 2015, 1965},
		{99, 2015, 1999},
		{1, 1990, 2001},
		{40, 1990, 2040},
		{41, 1990, 1941},
		{99, 1990, 1999},
		{2034, 2015, 2034},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, YearFrom2Digits(tc.short, tc.current), "short=%d current=%d", tc.short, tc.current)
	}
}

func TestParser_Auto(t *testing.T) {
	loc := kigali(t)
	now := time.Date(2015, 8, 12, 9, 0, 0, 0, loc)
	parser := NewParser(now, loc, DayFirst)

	dates := map[string]time.Time{
		"1/2/34":            time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"1-2-34":            time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"01 02 34":          time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"1 Feb 34":          time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"1. 2 '34":          time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"1st february 2034": time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"1er février 2034":  time.Date(2034, 2, 1, 0, 0, 0, 0, time.UTC),
		"2/25-70":           time.Date(1970, 2, 25, 0, 0, 0, 0, time.UTC),
		"1 feb":             time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC),
		"Feb 1st":           time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC),
		"1 feb 9999999":     time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for text, expected := range dates {
		t.Run(text, func(t *testing.T) {
			res, ok := parser.Auto(text)
			require.True(t, ok)
			assert.Equal(t, KindDate, res.Kind)
			assert.True(t, expected.Equal(res.Time), "got %s", res.Time)
		})
	}

	datetimes := []string{
		"1/2/34 14:55",
		"1-2-34 2:55PM",
		"01 02 34 1455",
		"1 Feb 34 02:55 PM",
		"1. 2 '34 02:55pm",
		"1st february 2034 14.55",
		"1er février 2034 1455h",
	}
	expected := time.Date(2034, 2, 1, 14, 55, 0, 0, loc)
	for _, text := range datetimes {
		t.Run(text, func(t *testing.T) {
			res, ok := parser.Auto(text)
			require.True(t, ok)
			assert.Equal(t, KindDateTime, res.Kind)
			assert.True(t, expected.Equal(res.Time), "got %s", res.Time)
			assert.Equal(t, loc, res.Time.Location())
		})
	}

	for _, text := range []string{"", "   ", "hello", "14:55", "31/2/2015"} {
		_, ok := parser.Auto(text)
		assert.False(t, ok, text)
	}
}

func TestParser_MonthFirst(t *testing.T) {
	loc := time.UTC
	parser := NewParser(time.Date(2015, 8, 12, 0, 0, 0, 0, loc), loc, MonthFirst)

	res, ok := parser.Auto("12/8/15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 12, 8, 0, 0, 0, 0, time.UTC), res.Time)

	res, ok = parser.Auto("14/8/15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2015, 8, 14, 0, 0, 0, 0, time.UTC), res.Time)
}

func TestParser_Time(t *testing.T) {
	loc := kigali(t)
	parser := NewParser(time.Date(2015, 8, 12, 9, 0, 0, 0, loc), loc, DayFirst)

	testCases := map[string]TimeOfDay{
		"2:55":       {Hour: 2, Minute: 55},
		"2:55 AM":    {Hour: 2, Minute: 55},
		"14:55":      {Hour: 14, Minute: 55},
		"2:55PM":     {Hour: 14, Minute: 55},
		"1455":       {Hour: 14, Minute: 55},
		"02:55 PM":   {Hour: 14, Minute: 55},
		"02:55pm":    {Hour: 14, Minute: 55},
		"14.55":      {Hour: 14, Minute: 55},
		"1455h":      {Hour: 14, Minute: 55},
		"14:55:30":   {Hour: 14, Minute: 55, Second: 30},
		"14:55.30PM": {Hour: 14, Minute: 55, Second: 30},
		"9:12":       {Hour: 9, Minute: 12},
		"0912":       {Hour: 9, Minute: 12},
		"09.12am":    {Hour: 9, Minute: 12},
	}
	for text, expected := range testCases {
		t.Run(text, func(t *testing.T) {
			clock, ok := parser.Time(text)
			require.True(t, ok)
			assert.Equal(t, expected, clock)
		})
	}

	_, ok := parser.Time("25:00")
	assert.False(t, ok)
	// PM on hour 12 moves past the end of the day
	_, ok = parser.Time("12:30 PM")
	assert.False(t, ok)
	_, ok = parser.Parse("12:30 pm", ModeTime)
	assert.False(t, ok)
	_, ok = parser.Time("")
	assert.False(t, ok)
}

func TestParser_DateModeIgnoresTimes(t *testing.T) {
	parser := NewParser(time.Date(2015, 8, 12, 0, 0, 0, 0, time.UTC), time.UTC, DayFirst)

	res, ok := parser.Parse("14 Aug 2015", ModeDate)
	require.True(t, ok)
	assert.Equal(t, KindDate, res.Kind)

	_, ok = parser.Parse("14 Aug 2015 10:30", ModeDate)
	assert.False(t, ok)

	res, ok = parser.Parse("14 Aug 2015 10:30", ModeDateTime)
	require.True(t, ok)
	assert.Equal(t, KindDateTime, res.Kind)
	assert.Equal(t, time.Date(2015, 8, 14, 10, 30, 0, 0, time.UTC), res.Time)
}

func TestMonthFromAlias(t *testing.T) {
	for alias, month := range map[string]int{"jan": 1, "Février": 2, "MARZO": 3, "août": 8, "dezember": 12} {
		got, ok := MonthFromAlias(alias)
		require.True(t, ok, alias)
		assert.Equal(t, month, got, alias)
	}
	_, ok := MonthFromAlias("smarch")
	assert.False(t, ok)
}

func TestStyle(t *testing.T) {
	style, err := ParseStyle("month_first")
	require.NoError(t, err)
	assert.Equal(t, MonthFirst, style)
	assert.Equal(t, "month_first", style.String())

	style, err = ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, DayFirst, style)

	_, err = ParseStyle("year_first")
	assert.Error(t, err)
}
