package core

import (
	"context"
	"time"
)

type ExtraHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Input is the canonical connection input. Callers holding loosely shaped
// records use RawInput, which collapses historical field names into Input.
type Input struct {
	Name                string
	Adapter             string
	APIKey              string
	BaseURL             string
	EnableDefaultModels *bool
	ExtraHeaders        []ExtraHeader
	CustomModels        []string
}

// InputSource is accepted by every client operation that takes connection
// input.
type InputSource interface {
	ConnectionInput() Input
}

func (in Input) ConnectionInput() Input {
	return in
}

type CallOptions struct {
	ProjectID string
}

// Payload is the resource-shaped record sent to the backend.
type Payload struct {
	ID                string
	ProjectID         string
	Provider          string
	Adapter           string
	SecretKey         string
	BaseURL           string
	WithDefaultModels *bool
	CustomModels      []string
	ExtraHeaders      map[string]string
}

// Map renders the payload with wire field names, omitting unset optional
// fields.
func (p Payload) Map() map[string]any {
	out := map[string]any{
		"projectId": p.ProjectID,
	}
	if p.ID != "" {
		out["id"] = p.ID
	}
	if p.Provider != "" {
		out["provider"] = p.Provider
	}
	if p.Adapter != "" {
		out["adapter"] = p.Adapter
	}
	if p.SecretKey != "" {
		out["secretKey"] = p.SecretKey
	}
	if p.BaseURL != "" {
		out["baseURL"] = p.BaseURL
	}
	if p.WithDefaultModels != nil {
		out["withDefaultModels"] = *p.WithDefaultModels
	}
	if p.CustomModels != nil {
		out["customModels"] = append([]string{}, p.CustomModels...)
	}
	if p.ExtraHeaders != nil {
		headers := make(map[string]any, len(p.ExtraHeaders))
		for key, value := range p.ExtraHeaders {
			headers[key] = value
		}
		out["extraHeaders"] = headers
	}
	return out
}

type AttemptOutcome string

const (
	AttemptOutcomeSuccess          AttemptOutcome = "success"
	AttemptOutcomeProtocolFailure  AttemptOutcome = "protocol_failure"
	AttemptOutcomeTransportFailure AttemptOutcome = "transport_failure"
	AttemptOutcomeCanceled         AttemptOutcome = "canceled"
)

// AttemptRecord describes one envelope format attempt of an invocation.
type AttemptRecord struct {
	InvocationID string
	ProjectID    string
	Procedure    string
	Format       string
	Method       string
	Attempt      int
	StatusCode   int
	Outcome      AttemptOutcome
	Message      string
	Duration     time.Duration
	StartedAt    time.Time
}

// AttemptFilter narrows an attempt ledger listing. Zero values match all.
type AttemptFilter struct {
	ProjectID    string
	Procedure    string
	InvocationID string
	Outcome      AttemptOutcome
	Limit        int
	Offset       int
}

type AttemptReader interface {
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]AttemptRecord, error)
}
