package core

import (
	"context"
	"strings"
	"time"
)

var maskedKeyFields = []string{
	"displaySecretKey",
	"maskedKey",
	"obfuscatedKey",
	"secretKeyMasked",
	"secretKey",
}

var maskedKeyMatchFields = []string{"provider", "name", "id"}

// MaskedKey looks up the masked secret stored for provider. The list is read
// through a GET lookup, or through the list snapshot cache when one is set.
// An unknown provider yields an empty string.
func (c *Client) MaskedKey(ctx context.Context, provider string, opts CallOptions) (masked string, err error) {
	startedAt := time.Now()
	provider = strings.TrimSpace(provider)
	fields := map[string]any{"provider": provider}
	defer func() { c.observeOperation(ctx, startedAt, "masked_key", err, fields) }()

	if err = c.ready(); err != nil {
		return "", err
	}
	if provider == "" {
		return "", ConfigurationError("provider", "core: provider is required for masked key lookup")
	}
	projectID, err := c.resolveProjectID(opts)
	if err != nil {
		return "", err
	}
	fields["project_id"] = projectID

	fetch := func(ctx context.Context) ([]any, error) {
		value, err := c.invoker.Lookup(ctx, c.config.Procedures.List, map[string]any{"projectId": projectID}, Scope{ProjectID: projectID})
		if err != nil {
			return nil, err
		}
		return ListItems(value), nil
	}

	var items []any
	if c.listCache != nil {
		fields["cached"] = true
		items, err = c.listCache.GetOrFetch(ctx, projectID, fetch)
	} else {
		items, err = fetch(ctx)
	}
	if err != nil {
		return "", err
	}

	masked = FindMaskedKey(items, provider)
	fields["found"] = masked != ""
	return masked, nil
}

// FindMaskedKey returns the masked secret of the first item whose provider,
// name or id matches provider, ignoring case and surrounding spaces.
func FindMaskedKey(items []any, provider string) string {
	needle := strings.ToLower(strings.TrimSpace(provider))
	if needle == "" {
		return ""
	}
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if !recordMatches(record, needle) {
			continue
		}
		for _, field := range maskedKeyFields {
			if value := strings.TrimSpace(stringValue(record[field])); value != "" {
				return value
			}
		}
		return ""
	}
	return ""
}

func recordMatches(record map[string]any, needle string) bool {
	for _, field := range maskedKeyMatchFields {
		if record[field] == nil {
			continue
		}
		if strings.ToLower(strings.TrimSpace(stringValue(record[field]))) == needle {
			return true
		}
	}
	return false
}
