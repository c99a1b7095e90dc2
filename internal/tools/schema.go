package tools

import (
	"encoding/json"
	"fmt"
)

// ValidateArgs checks args against a JSON-Schema subset: type "object", a
// properties map of {type, description}, an optional required list, and
// additionalProperties set to false to forbid unlisted fields. The agent loop
// runs this before every Invoke; tools themselves trust their inputs.
func ValidateArgs(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}

	properties, _ := schema["properties"].(map[string]any)

	for _, name := range stringList(schema["required"]) {
		if _, ok := args[name]; !ok {
			return &SchemaValidationError{Field: name, Reason: "required field is missing"}
		}
	}

	if allowed, ok := schema["additionalProperties"].(bool); ok && !allowed {
		for name := range args {
			if _, listed := properties[name]; !listed {
				return &SchemaValidationError{Field: name, Reason: "field is not allowed"}
			}
		}
	}

	for name, value := range args {
		spec, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := spec["type"].(string)
		if wantType == "" {
			continue
		}
		if err := checkType(name, wantType, value); err != nil {
			return err
		}
	}
	return nil
}

// ParseArgs decodes a raw JSON argument object into a map.
func ParseArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &SchemaValidationError{Reason: "arguments are not a JSON object"}
	}
	return args, nil
}

func checkType(field, wantType string, value any) error {
	ok := false
	switch wantType {
	case "string":
		_, ok = value.(string)
	case "number":
		ok = isNumber(value)
	case "integer":
		switch v := value.(type) {
		case float64:
			ok = v == float64(int64(v))
		case int, int64:
			ok = true
		case json.Number:
			_, err := v.Int64()
			ok = err == nil
		}
	case "boolean":
		_, ok = value.(bool)
	case "array":
		_, ok = value.([]any)
	case "object":
		_, ok = value.(map[string]any)
	default:
		return &SchemaValidationError{Field: field, Reason: fmt.Sprintf("unsupported schema type %q", wantType)}
	}
	if !ok {
		return &SchemaValidationError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", wantType, value)}
	}
	return nil
}

func isNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	}
	return false
}

func stringList(value any) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
