package query

import (
	"strings"

	"github.com/goliatone/go-llm-connections/core"
)

const (
	TypeListConnections = "llmconn.query.connection.list"
	TypeMaskedKey       = "llmconn.query.connection.masked_key"
	TypeListAttempts    = "llmconn.query.attempts.list"
)

const MaxAttemptsPerPage = 500

type ListConnectionsMessage struct {
	ProjectID string
}

func (ListConnectionsMessage) Type() string { return TypeListConnections }

func (m ListConnectionsMessage) Validate() error {
	return validateProject(m.ProjectID)
}

type MaskedKeyMessage struct {
	Provider  string
	ProjectID string
}

func (MaskedKeyMessage) Type() string { return TypeMaskedKey }

func (m MaskedKeyMessage) Validate() error {
	if err := validateProject(m.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Provider) == "" {
		return queryValidationError("provider", "provider is required")
	}
	return nil
}

type ListAttemptsMessage struct {
	Filter core.AttemptFilter
}

func (ListAttemptsMessage) Type() string { return TypeListAttempts }

func (m ListAttemptsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Filter.Limit > MaxAttemptsPerPage {
		return queryValidationError("limit", "limit must be <= 500")
	}
	if m.Filter.Offset < 0 {
		return queryValidationError("offset", "offset must be >= 0")
	}
	switch m.Filter.Outcome {
	case "",
		core.AttemptOutcomeSuccess,
		core.AttemptOutcomeProtocolFailure,
		core.AttemptOutcomeTransportFailure,
		core.AttemptOutcomeCanceled:
	default:
		return queryValidationError("outcome", "unknown attempt outcome")
	}
	return nil
}

func validateProject(projectID string) error {
	if projectID != "" && strings.TrimSpace(projectID) == "" {
		return queryValidationError("projectId", "project id must not be blank")
	}
	return nil
}
