package query

import (
	"context"

	"github.com/goliatone/go-llm-connections/core"
)

type ConnectionReader interface {
	List(ctx context.Context, opts core.CallOptions) ([]any, error)
	MaskedKey(ctx context.Context, provider string, opts core.CallOptions) (string, error)
}

type ListConnectionsQuery struct {
	reader ConnectionReader
}

func NewListConnectionsQuery(reader ConnectionReader) *ListConnectionsQuery {
	return &ListConnectionsQuery{reader: reader}
}

func (q *ListConnectionsQuery) Query(ctx context.Context, msg ListConnectionsMessage) ([]any, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: connection reader is required")
	}
	return q.reader.List(ctx, core.CallOptions{ProjectID: msg.ProjectID})
}

type MaskedKeyQuery struct {
	reader ConnectionReader
}

func NewMaskedKeyQuery(reader ConnectionReader) *MaskedKeyQuery {
	return &MaskedKeyQuery{reader: reader}
}

func (q *MaskedKeyQuery) Query(ctx context.Context, msg MaskedKeyMessage) (string, error) {
	if q == nil || q.reader == nil {
		return "", queryDependencyError("query: connection reader is required")
	}
	return q.reader.MaskedKey(ctx, msg.Provider, core.CallOptions{ProjectID: msg.ProjectID})
}

type ListAttemptsQuery struct {
	reader core.AttemptReader
}

func NewListAttemptsQuery(reader core.AttemptReader) *ListAttemptsQuery {
	return &ListAttemptsQuery{reader: reader}
}

func (q *ListAttemptsQuery) Query(ctx context.Context, msg ListAttemptsMessage) ([]core.AttemptRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: attempt reader is required")
	}
	return q.reader.ListAttempts(ctx, msg.Filter)
}
