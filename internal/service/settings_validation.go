package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"observo/internal/apperrors"
	"observo/internal/models"
)

// validator reports every failure under field, using full paths for
// nested values.
type validator interface {
	validate(field string, v any) []apperrors.FieldError
}

// rule checks one scalar value and returns a message when it is invalid.
type rule func(v any) string

func (r rule) validate(field string, v any) []apperrors.FieldError {
	if msg := r(v); msg != "" {
		return []apperrors.FieldError{{Field: field, Message: msg}}
	}
	return nil
}

type nested func(field string, v any) []apperrors.FieldError

func (n nested) validate(field string, v any) []apperrors.FieldError { return n(field, v) }

var sectionRules = map[string]map[string]validator{
	models.SectionDashboard: {
		"refreshInterval":  intRange(5, 300),
		"defaultTimeRange": oneOf("1h", "6h", "12h", "24h", "7d", "30d"),
		"widgets": objectList(map[string]validator{
			"id":       isString,
			"enabled":  isBool,
			"position": isNumber,
		}),
	},
	models.SectionAlerts: {
		"enabled":            isBool,
		"errorRateThreshold": numberRange(0, 100),
		"logVolumeThreshold": intRange(0, math.MaxInt32),
		"notifications": object(map[string]validator{
			"email":           isBool,
			"emails":          stringList,
			"slack":           isBool,
			"slackWebhookUrl": isString,
			"webhook":         isBool,
			"webhookUrl":      isString,
		}),
	},
	models.SectionDataRetention: {
		"enabled":    isBool,
		"days":       intRange(1, 365),
		"autoDelete": isBool,
	},
	models.SectionAPI: {
		"rateLimit":  intRange(10, 10000),
		"maxResults": intRange(10, 10000),
	},
	models.SectionUser: {
		"theme":    oneOf("light", "dark", "auto"),
		"timezone": nonEmptyString,
		"language": oneOf("en", "es", "fr", "de", "ja", "zh"),
	},
	models.SectionSystemCheck: {
		"enabled":         isBool,
		"intervalSeconds": intRange(10, 3600),
		"endpoints": objectList(map[string]validator{
			"name": isString,
			"url":  isString,
		}),
	},
}

// sectionAliases maps the names accepted over HTTP to document sections.
var sectionAliases = map[string]string{
	"retention": models.SectionDataRetention,
}

// CanonicalSection resolves an alias to its section name.
func CanonicalSection(name string) string {
	if s, ok := sectionAliases[name]; ok {
		return s
	}
	return name
}

// validateDocument checks every section of a partial document and collects
// all failures.
func validateDocument(partial map[string]any) []apperrors.FieldError {
	var errs []apperrors.FieldError
	for _, section := range sortedKeys(partial) {
		errs = append(errs, validateSection(section, partial[section])...)
	}
	return errs
}

func validateSection(section string, data any) []apperrors.FieldError {
	rules, ok := sectionRules[section]
	if !ok {
		return []apperrors.FieldError{{Field: section, Message: "unknown section"}}
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return []apperrors.FieldError{{Field: section, Message: "must be an object"}}
	}
	return checkObject(section, obj, rules)
}

func checkObject(prefix string, obj map[string]any, rules map[string]validator) []apperrors.FieldError {
	var errs []apperrors.FieldError
	for _, key := range sortedKeys(obj) {
		field := prefix + "." + key
		r, ok := rules[key]
		if !ok {
			errs = append(errs, apperrors.FieldError{Field: field, Message: "unknown field"})
			continue
		}
		errs = append(errs, r.validate(field, obj[key])...)
	}
	return errs
}

// normalizeDocument converts caller-supplied values into the shapes a JSON
// decode produces so rules and merge only see map[string]any, []any,
// float64, string, bool and nil.
func normalizeDocument(doc map[string]any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var isBool rule = func(v any) string {
	if _, ok := v.(bool); !ok {
		return "must be a boolean"
	}
	return ""
}

var isString rule = func(v any) string {
	if _, ok := v.(string); !ok {
		return "must be a string"
	}
	return ""
}

var nonEmptyString rule = func(v any) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "must be a non-empty string"
	}
	return ""
}

var isNumber rule = func(v any) string {
	if _, ok := v.(float64); !ok {
		return "must be a number"
	}
	return ""
}

func numberRange(min, max float64) rule {
	return func(v any) string {
		n, ok := v.(float64)
		if !ok || n < min || n > max {
			return fmt.Sprintf("must be a number between %g and %g", min, max)
		}
		return ""
	}
}

func intRange(min, max int) rule {
	return func(v any) string {
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			return "must be an integer"
		}
		if n < float64(min) || n > float64(max) {
			if max == math.MaxInt32 {
				return fmt.Sprintf("must be at least %d", min)
			}
			return fmt.Sprintf("must be between %d and %d", min, max)
		}
		return ""
	}
}

func oneOf(allowed ...string) rule {
	return func(v any) string {
		s, _ := v.(string)
		for _, a := range allowed {
			if s == a {
				return ""
			}
		}
		return "must be one of " + strings.Join(allowed, ", ")
	}
}

var stringList rule = func(v any) string {
	items, ok := v.([]any)
	if !ok {
		return "must be a list of strings"
	}
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return "must be a list of strings"
		}
	}
	return ""
}

// object validates a nested object; only the keys present are checked.
func object(fields map[string]validator) validator {
	return nested(func(field string, v any) []apperrors.FieldError {
		obj, ok := v.(map[string]any)
		if !ok {
			return []apperrors.FieldError{{Field: field, Message: "must be an object"}}
		}
		return checkObject(field, obj, fields)
	})
}

// objectList requires every item to carry every listed field.
func objectList(fields map[string]validator) validator {
	return nested(func(field string, v any) []apperrors.FieldError {
		items, ok := v.([]any)
		if !ok {
			return []apperrors.FieldError{{Field: field, Message: "must be a list"}}
		}
		var errs []apperrors.FieldError
		for i, item := range items {
			at := fmt.Sprintf("%s[%d]", field, i)
			obj, ok := item.(map[string]any)
			if !ok {
				errs = append(errs, apperrors.FieldError{Field: at, Message: "must be an object"})
				continue
			}
			for _, name := range sortedKeys(fields) {
				val, present := obj[name]
				if !present {
					errs = append(errs, apperrors.FieldError{Field: at + "." + name, Message: "is required"})
					continue
				}
				errs = append(errs, fields[name].validate(at+"."+name, val)...)
			}
		}
		return errs
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
