package agent

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s-]{7,20}$`)
)

// ValidateArgs checks args against the schema and returns a cleaned copy:
// required parameters present, values type-coerced, formats and enums
// enforced. Unknown arguments are dropped, not rejected; speech front ends
// routinely over-produce fields.
func ValidateArgs(schema types.ToolSchema, args map[string]any) (map[string]any, error) {
	cleaned := make(map[string]any, len(schema.Parameters))

	for _, p := range schema.Parameters {
		raw, ok := args[p.Name]
		if !ok || raw == nil {
			if p.Required {
				return nil, types.NewError(types.ErrValidation,
					fmt.Sprintf("missing required parameter %q", p.Name)).WithField(p.Name)
			}
			continue
		}

		val, err := coerce(p, raw)
		if err != nil {
			return nil, err
		}
		cleaned[p.Name] = val
	}

	return cleaned, nil
}

func coerce(p types.Param, raw any) (any, error) {
	switch p.Type {
	case types.ParamString:
		s, ok := raw.(string)
		if !ok {
			return nil, typeErr(p, "string")
		}
		s = strings.TrimSpace(s)
		if p.MinLen > 0 && len(s) < p.MinLen {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("parameter %q must be at least %d characters", p.Name, p.MinLen)).WithField(p.Name)
		}
		if err := checkFormat(p, s); err != nil {
			return nil, err
		}
		if err := checkEnum(p, s); err != nil {
			return nil, err
		}
		return s, nil

	case types.ParamInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, typeErr(p, "integer")
			}
			return int(v), nil
		default:
			return nil, typeErr(p, "integer")
		}

	case types.ParamFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, typeErr(p, "number")
		}

	case types.ParamBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, typeErr(p, "boolean")
		}
		return b, nil

	case types.ParamStrings:
		items, ok := raw.([]any)
		if !ok {
			if ss, isStrings := raw.([]string); isStrings {
				items = make([]any, len(ss))
				for i, s := range ss {
					items[i] = s
				}
			} else {
				return nil, typeErr(p, "list of strings")
			}
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, isStr := it.(string)
			if !isStr {
				return nil, typeErr(p, "list of strings")
			}
			out = append(out, strings.TrimSpace(s))
		}
		if p.MinLen > 0 && len(out) < p.MinLen {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("parameter %q needs at least %d entries", p.Name, p.MinLen)).WithField(p.Name)
		}
		return out, nil

	case types.ParamObjects:
		items, ok := raw.([]any)
		if !ok {
			if ms, isMaps := raw.([]map[string]any); isMaps {
				items = make([]any, len(ms))
				for i, m := range ms {
					items[i] = m
				}
			} else {
				return nil, typeErr(p, "list of objects")
			}
		}
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			m, isMap := it.(map[string]any)
			if !isMap {
				return nil, typeErr(p, "list of objects")
			}
			out = append(out, m)
		}
		if p.MinLen > 0 && len(out) < p.MinLen {
			return nil, types.NewError(types.ErrValidation,
				fmt.Sprintf("parameter %q needs at least %d entries", p.Name, p.MinLen)).WithField(p.Name)
		}
		return out, nil

	default:
		return nil, types.NewError(types.ErrInternal,
			fmt.Sprintf("unknown parameter type %q for %q", p.Type, p.Name)).WithField(p.Name)
	}
}

func checkFormat(p types.Param, s string) error {
	switch p.Format {
	case "":
		return nil
	case types.FormatEmail:
		if !emailRe.MatchString(s) {
			return formatErr(p, "an email address")
		}
	case types.FormatDate:
		if !dateRe.MatchString(s) {
			return formatErr(p, "a date in YYYY-MM-DD form")
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return formatErr(p, "a valid calendar date")
		}
	case types.FormatFutureDate:
		if !dateRe.MatchString(s) {
			return formatErr(p, "a date in YYYY-MM-DD form")
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return formatErr(p, "a valid calendar date")
		}
		// compare date strings so "today" means the local calendar day
		if s < time.Now().Format("2006-01-02") {
			return types.NewError(types.ErrValidation,
				fmt.Sprintf("parameter %q must not be in the past", p.Name)).WithField(p.Name)
		}
	case types.FormatClock:
		if !clockRe.MatchString(s) {
			return formatErr(p, "a 24h time in HH:MM form")
		}
	case types.FormatPhone:
		if !phoneRe.MatchString(s) {
			return formatErr(p, "a phone number")
		}
	default:
		return types.NewError(types.ErrInternal,
			fmt.Sprintf("unknown format %q for %q", p.Format, p.Name)).WithField(p.Name)
	}
	return nil
}

func checkEnum(p types.Param, s string) error {
	if len(p.Enum) == 0 {
		return nil
	}
	for _, allowed := range p.Enum {
		if strings.EqualFold(s, allowed) {
			return nil
		}
	}
	return types.NewError(types.ErrValidation,
		fmt.Sprintf("parameter %q must be one of %s", p.Name, strings.Join(p.Enum, ", "))).WithField(p.Name)
}

func typeErr(p types.Param, want string) error {
	return types.NewError(types.ErrValidation,
		fmt.Sprintf("parameter %q must be %s", p.Name, want)).WithField(p.Name)
}

func formatErr(p types.Param, want string) error {
	return types.NewError(types.ErrValidation,
		fmt.Sprintf("parameter %q must be %s", p.Name, want)).WithField(p.Name)
}
