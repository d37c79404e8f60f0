package dates

import (
	_ "embed"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type component int

const (
	componentYear component = iota
	componentMonth
	componentDay
	componentHour
	componentMinute
	componentHourAndMinute
	componentSecond
	componentAMPM
)

const (
	markerAM = 0
	markerPM = 1
)

var (
	dateSequencesDayFirst = [][]component{
		{componentDay, componentMonth, componentYear},
		{componentMonth, componentDay, componentYear},
		{componentYear, componentMonth, componentDay},
		{componentDay, componentMonth},
		{componentMonth, componentDay},
		{componentMonth, componentYear},
	}

	dateSequencesMonthFirst = [][]component{
		{componentMonth, componentDay, componentYear},
		{componentDay, componentMonth, componentYear},
		{componentYear, componentMonth, componentDay},
		{componentMonth, componentDay},
		{componentDay, componentMonth},
		{componentMonth, componentYear},
	}

	timeSequences = [][]component{
		{componentHourAndMinute},
		{componentHour, componentMinute},
		{componentHour, componentMinute, componentAMPM},
		{componentHour, componentMinute, componentSecond},
		{componentHour, componentMinute, componentSecond, componentAMPM},
	}

	tokenRegex = regexp.MustCompile(`[0-9]+|[\p{L}\p{M}\p{N}_]+`)
)

//go:embed month.aliases
var monthAliasFile string

var monthsByAlias = loadMonthAliases(monthAliasFile)

func loadMonthAliases(content string) map[string]int {
	aliases := make(map[string]int)
	month := 1
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		for _, alias := range strings.Split(line, ",") {
			if alias = strings.TrimSpace(alias); alias != "" {
				aliases[alias] = month
			}
		}
		month++
	}
	return aliases
}

// MonthFromAlias looks up a month number by any of its known names
func MonthFromAlias(alias string) (int, bool) {
	m, ok := monthsByAlias[strings.ToLower(alias)]
	return m, ok
}

// Parser reads loosely formatted dates and times relative to a fixed now
type Parser struct {
	now   time.Time
	loc   *time.Location
	style Style
}

// NewParser creates a parser. Two digit years are expanded around now, and
// datetimes are produced in loc.
func NewParser(now time.Time, loc *time.Location, style Style) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{now: now.In(loc), loc: loc, style: style}
}

// Auto returns a date or a datetime depending on what the text contains
func (p *Parser) Auto(text string) (Result, bool) {
	return p.Parse(text, ModeAuto)
}

// Time parses a time of day
func (p *Parser) Time(text string) (TimeOfDay, bool) {
	res, ok := p.Parse(text, ModeTime)
	if !ok {
		return TimeOfDay{}, false
	}
	return res.Clock, true
}

// Parse tokenizes text and returns the first candidate component sequence
// that forms a valid value in the given mode.
func (p *Parser) Parse(text string, mode Mode) (Result, bool) {
	if strings.TrimSpace(text) == "" {
		return Result{}, false
	}

	var possibilities []map[component]int
	for _, token := range tokenRegex.FindAllString(text, -1) {
		if poss := tokenPossibilities(token, mode); len(poss) > 0 {
			possibilities = append(possibilities, poss)
		}
	}

	for _, seq := range p.possibleSequences(mode, len(possibilities)) {
		values, ok := match(seq, possibilities)
		if !ok {
			continue
		}
		if res, ok := p.makeResult(values); ok {
			return res, true
		}
	}
	return Result{}, false
}

func match(seq []component, possibilities []map[component]int) (map[component]int, bool) {
	values := make(map[component]int, len(seq))
	for i, c := range seq {
		v, ok := possibilities[i][c]
		if !ok {
			return nil, false
		}
		values[c] = v
	}
	return values, true
}

func (p *Parser) possibleSequences(mode Mode, length int) [][]component {
	dateSequences := dateSequencesDayFirst
	if p.style == MonthFirst {
		dateSequences = dateSequencesMonthFirst
	}

	var sequences [][]component
	switch mode {
	case ModeDate, ModeAuto:
		for _, seq := range dateSequences {
			if len(seq) == length {
				sequences = append(sequences, seq)
			}
		}
	case ModeTime:
		for _, seq := range timeSequences {
			if len(seq) == length {
				sequences = append(sequences, seq)
			}
		}
	}

	if mode == ModeDateTime || mode == ModeAuto {
		for _, dateSeq := range dateSequences {
			for _, timeSeq := range timeSequences {
				if len(dateSeq)+len(timeSeq) == length {
					seq := make([]component, 0, length)
					seq = append(seq, dateSeq...)
					seq = append(seq, timeSeq...)
					sequences = append(sequences, seq)
				}
			}
		}
	}
	return sequences
}

// tokenPossibilities returns every component the token could stand for
// without regard to its neighbours.
func tokenPossibilities(token string, mode Mode) map[component]int {
	token = strings.ToLower(strings.TrimSpace(token))
	poss := make(map[component]int)

	if n, err := strconv.Atoi(token); err == nil {
		if mode != ModeTime {
			if n >= 1 && n <= 9999 && (len(token) == 2 || len(token) == 4) {
				poss[componentYear] = n
			}
			if n >= 1 && n <= 12 {
				poss[componentMonth] = n
			}
			if n >= 1 && n <= 31 {
				poss[componentDay] = n
			}
		}
		if mode != ModeDate {
			if n >= 0 && n <= 23 {
				poss[componentHour] = n
			}
			if n >= 0 && n <= 59 {
				poss[componentMinute] = n
				poss[componentSecond] = n
			}
			if len(token) == 4 {
				hour := n / 100
				minute := n - hour*100
				if hour >= 1 && hour <= 24 && minute >= 1 && minute <= 59 {
					poss[componentHourAndMinute] = n
				}
			}
		}
		return poss
	}

	if mode != ModeTime {
		if month, ok := monthsByAlias[token]; ok {
			poss[componentMonth] = month
		}
	}
	if mode != ModeDate {
		switch token {
		case "am":
			poss[componentAMPM] = markerAM
		case "pm":
			poss[componentAMPM] = markerPM
		}
	}
	return poss
}

func (p *Parser) makeResult(values map[component]int) (Result, bool) {
	var (
		date    time.Time
		hasDate bool
		clock   TimeOfDay
		hasTime bool
	)

	if month, ok := values[componentMonth]; ok {
		year, ok := values[componentYear]
		if !ok {
			year = p.now.Year()
		}
		year = YearFrom2Digits(year, p.now.Year())

		day, ok := values[componentDay]
		if !ok {
			day = 1
		}
		if !validDate(year, month, day) {
			return Result{}, false
		}
		date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		hasDate = true
	}

	_, hasHour := values[componentHour]
	_, hasMinute := values[componentMinute]
	combined, hasCombined := values[componentHourAndMinute]
	if (hasHour && hasMinute) || hasCombined {
		var hour, minute, second int
		if hasCombined {
			hour = combined / 100
			minute = combined - hour*100
		} else {
			hour = values[componentHour]
			minute = values[componentMinute]
			second = values[componentSecond]
			if marker, ok := values[componentAMPM]; ok && marker == markerPM && hour <= 12 {
				hour += 12
			}
		}

		var ok bool
		if clock, ok = NewTimeOfDay(hour, minute, second); !ok {
			return Result{}, false
		}
		hasTime = true
	}

	switch {
	case hasDate && hasTime:
		return Result{Kind: KindDateTime, Time: clock.On(date, p.loc), Clock: clock}, true
	case hasDate:
		return Result{Kind: KindDate, Time: date}, true
	case hasTime:
		return Result{Kind: KindTime, Clock: clock}, true
	}
	return Result{}, false
}

func validDate(year, month, day int) bool {
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

// YearFrom2Digits expands a relative two digit year to the four digit year
// closest to currentYear.
func YearFrom2Digits(shortYear, currentYear int) int {
	if shortYear < 100 {
		shortYear += currentYear - currentYear%100
		if abs(shortYear-currentYear) >= 50 {
			if shortYear < currentYear {
				return shortYear + 100
			}
			return shortYear - 100
		}
	}
	return shortYear
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
