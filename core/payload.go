package core

import "strings"

func buildCreatePayload(projectID string, in Input) (Payload, error) {
	if in.Name == "" {
		return Payload{}, ConfigurationError(FieldName, "core: connection name (provider) is required")
	}
	if in.APIKey == "" {
		return Payload{}, ConfigurationError(FieldAPIKey, "core: connection api key (secretKey) is required")
	}
	return fullPayload(projectID, in), nil
}

func buildTestPayload(projectID string, in Input) (Payload, error) {
	if in.Name == "" {
		return Payload{}, ConfigurationError(FieldName, "core: connection name (provider) is required")
	}
	return fullPayload(projectID, in), nil
}

// buildUpdatePayload omits every optional field the caller left unset so the
// backend keeps the stored value.
func buildUpdatePayload(id string, projectID string, in Input) (Payload, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Payload{}, ConfigurationError("id", "core: connection id is required for update")
	}
	if in.Name == "" {
		return Payload{}, ConfigurationError(FieldName, "core: connection name (provider) is required")
	}
	payload := Payload{
		ID:                id,
		ProjectID:         projectID,
		Provider:          in.Name,
		Adapter:           in.Adapter,
		SecretKey:         in.APIKey,
		BaseURL:           in.BaseURL,
		WithDefaultModels: in.EnableDefaultModels,
	}
	if len(in.CustomModels) > 0 {
		payload.CustomModels = in.CustomModels
	}
	if headers := NormalizeHeaders(in.ExtraHeaders); len(headers) > 0 {
		payload.ExtraHeaders = headers
	}
	return payload, nil
}

func fullPayload(projectID string, in Input) Payload {
	withDefaults := true
	if in.EnableDefaultModels != nil {
		withDefaults = *in.EnableDefaultModels
	}
	models := in.CustomModels
	if models == nil {
		models = []string{}
	}
	return Payload{
		ProjectID:         projectID,
		Provider:          in.Name,
		Adapter:           in.Adapter,
		SecretKey:         in.APIKey,
		BaseURL:           in.BaseURL,
		WithDefaultModels: &withDefaults,
		CustomModels:      models,
		ExtraHeaders:      NormalizeHeaders(in.ExtraHeaders),
	}
}
