package checker

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Matches reports whether actual satisfies expected, with a reason when it
// does not.
//
// Expected strings may be matchers: ~regex~, or a comparison such as >3,
// <=0x0ff. Maps match on the expected keys only.
func Matches(actual, expected interface{}) (bool, string) {
	if expected == nil || actual == nil {
		if expected == actual {
			return true, ""
		}
		return false, fmt.Sprintf("expected %v, got %v", expected, actual)
	}

	if s, ok := expected.(string); ok {
		switch {
		case len(s) > 1 && strings.HasPrefix(s, "~") && strings.HasSuffix(s, "~"):
			return matchRegex(actual, strings.Trim(s, "~"))
		case strings.HasPrefix(s, ">") || strings.HasPrefix(s, "<"):
			return matchComparison(actual, s)
		}
	}

	if ef, err := toFloat64(expected); err == nil {
		af, err := toFloat64(actual)
		if err != nil {
			return false, fmt.Sprintf("expected number %v, got %T", expected, actual)
		}
		if af != ef {
			return false, fmt.Sprintf("expected %v, got %v", expected, actual)
		}
		return true, ""
	}

	switch e := expected.(type) {
	case map[string]interface{}:
		a, ok := actual.(map[string]interface{})
		if !ok {
			return false, fmt.Sprintf("expected map, got %T", actual)
		}
		for key, ev := range e {
			av, exists := a[key]
			if !exists {
				return false, fmt.Sprintf("missing key %q", key)
			}
			if ok, reason := Matches(av, ev); !ok {
				return false, fmt.Sprintf("key %q: %s", key, reason)
			}
		}
		return true, ""

	case []interface{}:
		a, ok := actual.([]interface{})
		if !ok {
			return false, fmt.Sprintf("expected list, got %T", actual)
		}
		if len(a) != len(e) {
			return false, fmt.Sprintf("expected %d elements, got %d", len(e), len(a))
		}
		for i := range e {
			if ok, reason := Matches(a[i], e[i]); !ok {
				return false, fmt.Sprintf("element %d: %s", i, reason)
			}
		}
		return true, ""
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func matchRegex(actual interface{}, pattern string) (bool, string) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}

	s := fmt.Sprintf("%v", actual)
	if re.MatchString(s) {
		return true, ""
	}
	return false, fmt.Sprintf("value %q does not match ~%s~", s, pattern)
}

func matchComparison(actual interface{}, comparison string) (bool, string) {
	af, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value %v", actual)
	}

	op := comparison[:1]
	if strings.HasPrefix(comparison[1:], "=") {
		op = comparison[:2]
	}
	ef, err := parseNumber(strings.TrimSpace(comparison[len(op):]))
	if err != nil {
		return false, fmt.Sprintf("invalid comparison value in %q", comparison)
	}

	var ok bool
	switch op {
	case ">":
		ok = af > ef
	case ">=":
		ok = af >= ef
	case "<":
		ok = af < ef
	case "<=":
		ok = af <= ef
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("expected value %s %v, got %v", op, ef, af)
}

// toFloat64 accepts Go numbers and numeric strings, which is what Redis
// hands back.
func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return parseNumber(n)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func parseNumber(s string) (float64, error) {
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), nil
	}
	return strconv.ParseFloat(s, 64)
}
