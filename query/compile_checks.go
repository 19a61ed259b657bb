package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-llm-connections/core"
)

var (
	_ gocmd.Querier[ListConnectionsMessage, []any]             = (*ListConnectionsQuery)(nil)
	_ gocmd.Querier[MaskedKeyMessage, string]                  = (*MaskedKeyQuery)(nil)
	_ gocmd.Querier[ListAttemptsMessage, []core.AttemptRecord] = (*ListAttemptsQuery)(nil)

	_ ConnectionReader = (*core.Client)(nil)
)
