package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-llm-connections/core"
)

var (
	_ gocmd.Commander[CreateConnectionMessage] = (*CreateConnectionCommand)(nil)
	_ gocmd.Commander[UpdateConnectionMessage] = (*UpdateConnectionCommand)(nil)
	_ gocmd.Commander[UpsertConnectionMessage] = (*UpsertConnectionCommand)(nil)
	_ gocmd.Commander[DeleteConnectionMessage] = (*DeleteConnectionCommand)(nil)
	_ gocmd.Commander[TestConnectionMessage]   = (*TestConnectionCommand)(nil)

	_ MutatingService = (*core.Client)(nil)
)
