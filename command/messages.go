package command

import (
	"strings"

	"github.com/goliatone/go-llm-connections/core"
)

const (
	TypeCreateConnection = "llmconn.command.connection.create"
	TypeUpdateConnection = "llmconn.command.connection.update"
	TypeUpsertConnection = "llmconn.command.connection.upsert"
	TypeDeleteConnection = "llmconn.command.connection.delete"
	TypeTestConnection   = "llmconn.command.connection.test"
)

type CreateConnectionMessage struct {
	Input     core.Input
	ProjectID string
}

func (CreateConnectionMessage) Type() string { return TypeCreateConnection }

func (m CreateConnectionMessage) Validate() error {
	if err := validateProject(m.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return commandValidationError(core.FieldName, "name is required")
	}
	if strings.TrimSpace(m.Input.APIKey) == "" {
		return commandValidationError(core.FieldAPIKey, "api key is required")
	}
	return nil
}

type UpdateConnectionMessage struct {
	ID        string
	Input     core.Input
	ProjectID string
}

func (UpdateConnectionMessage) Type() string { return TypeUpdateConnection }

func (m UpdateConnectionMessage) Validate() error {
	if err := validateProject(m.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "connection id is required")
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return commandValidationError(core.FieldName, "name is required")
	}
	return nil
}

type UpsertConnectionMessage struct {
	Input     core.Input
	ProjectID string
}

func (UpsertConnectionMessage) Type() string { return TypeUpsertConnection }

func (m UpsertConnectionMessage) Validate() error {
	if err := validateProject(m.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return commandValidationError(core.FieldName, "name is required")
	}
	return nil
}

type DeleteConnectionMessage struct {
	ID        string
	ProjectID string
}

func (DeleteConnectionMessage) Type() string { return TypeDeleteConnection }

func (m DeleteConnectionMessage) Validate() error {
	if err := validateProject(m.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(m.ID) == "" {
		return commandValidationError("id", "connection id is required")
	}
	return nil
}

type TestConnectionMessage struct {
	Input     core.Input
	ProjectID string
}

func (TestConnectionMessage) Type() string { return TypeTestConnection }

func (m TestConnectionMessage) Validate() error {
	if err := validateProject(m.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return commandValidationError(core.FieldName, "name is required")
	}
	return nil
}

// validateProject only rejects a blank id. The client applies any configured
// default project, so an empty id is left for it to resolve.
func validateProject(projectID string) error {
	if projectID != "" && strings.TrimSpace(projectID) == "" {
		return commandValidationError("projectId", "project id must not be blank")
	}
	return nil
}
