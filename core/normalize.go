package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	FieldName                = "name"
	FieldAdapter             = "adapter"
	FieldAPIKey              = "apiKey"
	FieldBaseURL             = "baseUrl"
	FieldEnableDefaultModels = "enableDefaultModels"
	FieldExtraHeaders        = "extraHeaders"
	FieldCustomModels        = "customModels"
)

type fieldAlias struct {
	canonical string
	aliases   []string
}

// inputAliases maps historical field names onto canonical keys. The first
// alias holding a non-nil value wins.
var inputAliases = []fieldAlias{
	{canonical: FieldName, aliases: []string{"name", "provider"}},
	{canonical: FieldAdapter, aliases: []string{"adapter"}},
	{canonical: FieldAPIKey, aliases: []string{"apiKey", "secretKey"}},
	{canonical: FieldBaseURL, aliases: []string{"baseUrl", "baseURL"}},
	{canonical: FieldEnableDefaultModels, aliases: []string{"enableDefaultModels", "useDefaultModels", "withDefaultModels"}},
	{canonical: FieldExtraHeaders, aliases: []string{"extraHeaders"}},
	{canonical: FieldCustomModels, aliases: []string{"customModels", "models"}},
}

// RawInput is a loosely shaped connection record as produced by forms or
// older callers.
type RawInput map[string]any

// Canonical resolves aliases and returns a map keyed only by canonical
// field names.
func (r RawInput) Canonical() map[string]any {
	out := make(map[string]any, len(inputAliases))
	for _, entry := range inputAliases {
		for _, alias := range entry.aliases {
			value, ok := r[alias]
			if !ok || value == nil {
				continue
			}
			out[entry.canonical] = value
			break
		}
	}
	return out
}

func (r RawInput) ConnectionInput() Input {
	canonical := r.Canonical()
	in := Input{
		Name:         stringValue(canonical[FieldName]),
		Adapter:      stringValue(canonical[FieldAdapter]),
		APIKey:       stringValue(canonical[FieldAPIKey]),
		BaseURL:      stringValue(canonical[FieldBaseURL]),
		ExtraHeaders: headersValue(canonical[FieldExtraHeaders]),
		CustomModels: stringsValue(canonical[FieldCustomModels]),
	}
	if value, ok := boolValue(canonical[FieldEnableDefaultModels]); ok {
		in.EnableDefaultModels = &value
	}
	return in
}

// normalizeInput trims the canonical input and applies the adapter default.
func normalizeInput(in Input, defaultAdapter string) Input {
	out := Input{
		Name:                strings.TrimSpace(in.Name),
		Adapter:             strings.TrimSpace(in.Adapter),
		APIKey:              strings.TrimSpace(in.APIKey),
		BaseURL:             strings.TrimSpace(in.BaseURL),
		EnableDefaultModels: in.EnableDefaultModels,
		ExtraHeaders:        append([]ExtraHeader(nil), in.ExtraHeaders...),
		CustomModels:        NormalizeModels(in.CustomModels),
	}
	if out.Adapter == "" {
		out.Adapter = strings.TrimSpace(defaultAdapter)
	}
	if out.Adapter == "" {
		out.Adapter = DefaultAdapter
	}
	return out
}

// NormalizeHeaders converges header pairs to a mapping with trimmed,
// non-empty keys and trimmed values. Later duplicates replace earlier ones.
func NormalizeHeaders(headers []ExtraHeader) map[string]string {
	out := make(map[string]string, len(headers))
	for _, header := range headers {
		key := strings.TrimSpace(header.Key)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(header.Value)
	}
	return out
}

// HeadersFromMap turns a header mapping into pairs ordered by key.
func HeadersFromMap(headers map[string]string) []ExtraHeader {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]ExtraHeader, 0, len(keys))
	for _, key := range keys {
		out = append(out, ExtraHeader{Key: key, Value: headers[key]})
	}
	return out
}

func NormalizeModels(models []string) []string {
	out := make([]string, 0, len(models))
	for _, model := range models {
		trimmed := strings.TrimSpace(model)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func boolValue(value any) (bool, bool) {
	switch typed := value.(type) {
	case nil:
		return false, false
	case bool:
		return typed, true
	case *bool:
		if typed == nil {
			return false, false
		}
		return *typed, true
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return false, true
		}
		parsed, err := strconv.ParseBool(trimmed)
		if err != nil {
			return true, true
		}
		return parsed, true
	case int:
		return typed != 0, true
	case int64:
		return typed != 0, true
	case float64:
		return typed != 0, true
	default:
		return true, true
	}
}

func stringsValue(value any) []string {
	switch typed := value.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if item == nil {
				continue
			}
			out = append(out, stringValue(item))
		}
		return out
	case string:
		return []string{typed}
	default:
		return nil
	}
}

func headersValue(value any) []ExtraHeader {
	switch typed := value.(type) {
	case nil:
		return nil
	case []ExtraHeader:
		return append([]ExtraHeader(nil), typed...)
	case map[string]string:
		return HeadersFromMap(typed)
	case map[string]any:
		flat := make(map[string]string, len(typed))
		for key, item := range typed {
			flat[key] = stringValue(item)
		}
		return HeadersFromMap(flat)
	case []map[string]any:
		out := make([]ExtraHeader, 0, len(typed))
		for _, item := range typed {
			out = append(out, headerPair(item))
		}
		return out
	case []map[string]string:
		out := make([]ExtraHeader, 0, len(typed))
		for _, item := range typed {
			out = append(out, ExtraHeader{Key: item["key"], Value: item["value"]})
		}
		return out
	case []any:
		out := make([]ExtraHeader, 0, len(typed))
		for _, item := range typed {
			switch pair := item.(type) {
			case map[string]any:
				out = append(out, headerPair(pair))
			case map[string]string:
				out = append(out, ExtraHeader{Key: pair["key"], Value: pair["value"]})
			case ExtraHeader:
				out = append(out, pair)
			}
		}
		return out
	default:
		return nil
	}
}

func headerPair(item map[string]any) ExtraHeader {
	return ExtraHeader{
		Key:   stringValue(item["key"]),
		Value: stringValue(item["value"]),
	}
}
