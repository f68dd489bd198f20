package engine

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"aoss-hq/sentinel/pkg/rules/ast"
)

// evalOperator applies one comparison operator to an actual fact value
// and the rule's expected value.
func evalOperator(op ast.Operator, actual, expected interface{}) (bool, error) {
	switch op {
	case ast.OperatorEqual:
		return valuesEqual(actual, expected), nil

	case ast.OperatorNotEqual:
		return !valuesEqual(actual, expected), nil

	case ast.OperatorLessThan, ast.OperatorGreaterThan,
		ast.OperatorLessEqual, ast.OperatorGreaterEqual:
		return compareNumeric(op, actual, expected)

	case ast.OperatorContains:
		return evalContains(actual, expected)

	case ast.OperatorMatches:
		return evalMatches(actual, expected)

	case ast.OperatorStartsWith:
		return strings.HasPrefix(asString(actual), asString(expected)), nil

	case ast.OperatorEndsWith:
		return strings.HasSuffix(asString(actual), asString(expected)), nil

	case ast.OperatorIn:
		return evalIn(actual, expected)

	case ast.OperatorNotIn:
		in, err := evalIn(actual, expected)
		return !in, err

	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

// valuesEqual compares two values, coercing numerics so a YAML int
// compares equal to an extracted float and vice versa.
func valuesEqual(actual, expected interface{}) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	an, aok := asFloat(actual)
	en, eok := asFloat(expected)
	if aok && eok {
		return an == en
	}
	return reflect.DeepEqual(actual, expected)
}

func compareNumeric(op ast.Operator, actual, expected interface{}) (bool, error) {
	an, ok := asFloat(actual)
	if !ok {
		return false, fmt.Errorf("operator %q: actual value %T is not numeric", op, actual)
	}
	en, ok := asFloat(expected)
	if !ok {
		return false, fmt.Errorf("operator %q: expected value %T is not numeric", op, expected)
	}
	switch op {
	case ast.OperatorLessThan:
		return an < en, nil
	case ast.OperatorGreaterThan:
		return an > en, nil
	case ast.OperatorLessEqual:
		return an <= en, nil
	default:
		return an >= en, nil
	}
}

// evalContains is substring containment for strings and element
// containment for slices.
func evalContains(actual, expected interface{}) (bool, error) {
	if s, ok := actual.(string); ok {
		return strings.Contains(s, asString(expected)), nil
	}
	v := reflect.ValueOf(actual)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false, fmt.Errorf("contains requires a string or list, got %T", actual)
	}
	for i := 0; i < v.Len(); i++ {
		if valuesEqual(v.Index(i).Interface(), expected) {
			return true, nil
		}
	}
	return false, nil
}

func evalMatches(actual, expected interface{}) (bool, error) {
	pattern, ok := expected.(string)
	if !ok {
		return false, fmt.Errorf("matches requires a string pattern, got %T", expected)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re.MatchString(asString(actual)), nil
}

func evalIn(actual, expected interface{}) (bool, error) {
	v := reflect.ValueOf(expected)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false, fmt.Errorf("in requires a list, got %T", expected)
	}
	for i := 0; i < v.Len(); i++ {
		if valuesEqual(actual, v.Index(i).Interface()) {
			return true, nil
		}
	}
	return false, nil
}

// asFloat coerces the numeric types YAML decoding and fact extraction
// actually produce.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
