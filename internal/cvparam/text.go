package cvparam

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// intPattern and floatPattern implement the value-type dispatch rule from
// spec.md §3: "\d+" maps to int, "\d+\.\d+" maps to float, otherwise string.
// The literal tokens None/True/False are checked first and take priority
// over the regexes.
var (
	intPattern   = regexp.MustCompile(`^\d+$`)
	floatPattern = regexp.MustCompile(`^\d+\.\d+$`)
)

// parseToken converts a single grammar token into a Value using the
// None/True/False/int/float/string dispatch rule.
func parseToken(tok string) Value {
	switch tok {
	case "None":
		return NullValue{}
	case "True":
		return BoolValue(true)
	case "False":
		return BoolValue(false)
	}
	if intPattern.MatchString(tok) {
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return IntValue(n)
		}
	}
	if floatPattern.MatchString(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return FloatValue(f)
		}
	}
	return StringValue(tok)
}

// fieldPattern extracts a single `name='value'` field from the tag body,
// tolerating the value itself containing any character except a single
// quote (the grammar never escapes quotes).
func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(name + `='([^']*)'`)
}

var (
	reValue     = fieldPattern("value")
	reMin       = fieldPattern("min")
	reMax       = fieldPattern("max")
	reDelta     = fieldPattern("delta")
	reTolerance = fieldPattern("tolerance")
	reFixed     = fieldPattern("fixed")
	reEnum      = fieldPattern("enumerated")
)

// FromString parses the text round-trip grammar:
//
//	<value='…' min='…' max='…' delta='…' tolerance='…' fixed='…' enumerated='…'>
//
// Every field must be present; FromString(String()) must reproduce an
// Equal parameter for any valid CVParameter (spec.md §8).
func FromString(text string) (*CVParameter, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "<") || !strings.HasSuffix(text, ">") {
		return nil, fmt.Errorf("%w: missing angle brackets", ErrMalformedText)
	}

	extract := func(re *regexp.Regexp, field string) (string, error) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", fmt.Errorf("%w: missing field %q", ErrMalformedText, field)
		}
		return m[1], nil
	}

	valueTok, err := extract(reValue, "value")
	if err != nil {
		return nil, err
	}
	minTok, err := extract(reMin, "min")
	if err != nil {
		return nil, err
	}
	maxTok, err := extract(reMax, "max")
	if err != nil {
		return nil, err
	}
	deltaTok, err := extract(reDelta, "delta")
	if err != nil {
		return nil, err
	}
	tolTok, err := extract(reTolerance, "tolerance")
	if err != nil {
		return nil, err
	}
	fixedTok, err := extract(reFixed, "fixed")
	if err != nil {
		return nil, err
	}
	enumTok, err := extract(reEnum, "enumerated")
	if err != nil {
		return nil, err
	}

	delta, err := strconv.ParseFloat(deltaTok, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: delta %q: %v", ErrMalformedText, deltaTok, err)
	}
	tolerance, err := strconv.ParseFloat(tolTok, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: tolerance %q: %v", ErrMalformedText, tolTok, err)
	}

	fixed, err := parseBoolToken(fixedTok)
	if err != nil {
		return nil, fmt.Errorf("%w: fixed %q", ErrMalformedText, fixedTok)
	}
	enumerated, err := parseBoolToken(enumTok)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerated %q", ErrMalformedText, enumTok)
	}

	p := &CVParameter{
		Value:      parseToken(valueTok),
		Min:        parseToken(minTok),
		Max:        parseToken(maxTok),
		Delta:      delta,
		Tolerance:  tolerance,
		Fixed:      fixed,
		Enumerated: enumerated,
	}
	if _, isNull := p.Min.(NullValue); isNull {
		p.Min = nil
	}
	if _, isNull := p.Max.(NullValue); isNull {
		p.Max = nil
	}
	if err := p.checkBounds(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseBoolToken(tok string) (bool, error) {
	switch tok {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, ErrMalformedText
	}
}

// String renders the exact text round-trip grammar for this parameter. A
// nil Min/Max is rendered as "None" (data-type limit).
func (p *CVParameter) String() string {
	render := func(v Value) string {
		if v == nil {
			return "None"
		}
		return v.String()
	}
	renderBool := func(b bool) string {
		if b {
			return "True"
		}
		return "False"
	}
	return fmt.Sprintf(
		"<value='%s' min='%s' max='%s' delta='%s' tolerance='%s' fixed='%s' enumerated='%s'>",
		render(p.Value),
		render(p.Min),
		render(p.Max),
		strconv.FormatFloat(p.Delta, 'f', -1, 64),
		strconv.FormatFloat(p.Tolerance, 'f', -1, 64),
		renderBool(p.Fixed),
		renderBool(p.Enumerated),
	)
}
