package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/spf13/cobra"

	llmcommand "github.com/goliatone/go-llm-connections/command"
	"github.com/goliatone/go-llm-connections/core"
	llmquery "github.com/goliatone/go-llm-connections/query"
)

type inputFlags struct {
	name            string
	adapter         string
	apiKey          string
	providerBaseURL string
	models          []string
	headers         []string
	defaultModels   bool
	rawJSON         string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Provider name, e.g. openai")
	flags.StringVar(&f.adapter, "adapter", "", "Provider adapter (default openai)")
	flags.StringVar(&f.apiKey, "api-key", "", "Provider API key")
	flags.StringVar(&f.providerBaseURL, "provider-base-url", "", "Provider base URL override")
	flags.StringSliceVar(&f.models, "model", nil, "Custom model id, repeatable")
	flags.StringArrayVar(&f.headers, "header", nil, "Extra provider header as key=value, repeatable")
	flags.BoolVar(&f.defaultModels, "default-models", false, "Enable the provider's default models")
	flags.StringVar(&f.rawJSON, "input", "", "Connection input as a JSON object; flags override its fields")
}

// input merges --input with the explicit flags. Only flags the user set
// override the JSON fields.
func (f *inputFlags) input(cmd *cobra.Command) (core.Input, error) {
	raw := core.RawInput{}
	if strings.TrimSpace(f.rawJSON) != "" {
		if err := json.Unmarshal([]byte(f.rawJSON), &raw); err != nil {
			return core.Input{}, core.ConfigurationError("input", fmt.Sprintf("cli: --input must be a JSON object: %v", err))
		}
	}
	canonical := raw.Canonical()
	flags := cmd.Flags()
	if flags.Changed("name") {
		canonical[core.FieldName] = f.name
	}
	if flags.Changed("adapter") {
		canonical[core.FieldAdapter] = f.adapter
	}
	if flags.Changed("api-key") {
		canonical[core.FieldAPIKey] = f.apiKey
	}
	if flags.Changed("provider-base-url") {
		canonical[core.FieldBaseURL] = f.providerBaseURL
	}
	if flags.Changed("model") {
		canonical[core.FieldCustomModels] = f.models
	}
	if flags.Changed("default-models") {
		canonical[core.FieldEnableDefaultModels] = f.defaultModels
	}
	if flags.Changed("header") {
		headers := make([]core.ExtraHeader, 0, len(f.headers))
		for _, pair := range f.headers {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return core.Input{}, core.ConfigurationError("header", fmt.Sprintf("cli: header %q must be key=value", pair))
			}
			headers = append(headers, core.ExtraHeader{Key: key, Value: value})
		}
		canonical[core.FieldExtraHeaders] = headers
	}
	return core.RawInput(canonical).ConnectionInput(), nil
}

func (app *App) addConnectionCommands(rootCmd *cobra.Command) {
	create := &inputFlags{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a provider connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := create.input(cmd)
			if err != nil {
				return err
			}
			msg := llmcommand.CreateConnectionMessage{Input: in, ProjectID: app.Settings.ProjectID}
			return app.execute(cmd, msg.Validate, func(ctx context.Context, rt *runtime) error {
				return rt.facade.Commands().Create.Execute(ctx, msg)
			})
		},
	}
	create.bind(createCmd)

	update := &inputFlags{}
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a provider connection; unset fields are left unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := update.input(cmd)
			if err != nil {
				return err
			}
			msg := llmcommand.UpdateConnectionMessage{ID: args[0], Input: in, ProjectID: app.Settings.ProjectID}
			return app.execute(cmd, msg.Validate, func(ctx context.Context, rt *runtime) error {
				return rt.facade.Commands().Update.Execute(ctx, msg)
			})
		},
	}
	update.bind(updateCmd)

	upsert := &inputFlags{}
	upsertCmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create the connection, or update the existing one with the same provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := upsert.input(cmd)
			if err != nil {
				return err
			}
			msg := llmcommand.UpsertConnectionMessage{Input: in, ProjectID: app.Settings.ProjectID}
			return app.execute(cmd, msg.Validate, func(ctx context.Context, rt *runtime) error {
				return rt.facade.Commands().Upsert.Execute(ctx, msg)
			})
		},
	}
	upsert.bind(upsertCmd)

	test := &inputFlags{}
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Ask the backend to verify provider credentials without storing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := test.input(cmd)
			if err != nil {
				return err
			}
			msg := llmcommand.TestConnectionMessage{Input: in, ProjectID: app.Settings.ProjectID}
			return app.execute(cmd, msg.Validate, func(ctx context.Context, rt *runtime) error {
				return rt.facade.Commands().Test.Execute(ctx, msg)
			})
		},
	}
	test.bind(testCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a provider connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := llmcommand.DeleteConnectionMessage{ID: args[0], ProjectID: app.Settings.ProjectID}
			return app.execute(cmd, msg.Validate, func(ctx context.Context, rt *runtime) error {
				return rt.facade.Commands().Delete.Execute(ctx, msg)
			})
		},
	}

	rootCmd.AddCommand(createCmd, updateCmd, upsertCmd, testCmd, deleteCmd)
}

func (app *App) addQueryCommands(rootCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the project's provider connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg := llmquery.ListConnectionsMessage{ProjectID: app.Settings.ProjectID}
			return app.query(cmd, msg.Validate, func(ctx context.Context, rt *runtime) (any, error) {
				return rt.facade.Queries().List.Query(ctx, msg)
			})
		},
	}

	maskedKeyCmd := &cobra.Command{
		Use:   "masked-key <provider>",
		Short: "Print the masked API key stored for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := llmquery.MaskedKeyMessage{Provider: args[0], ProjectID: app.Settings.ProjectID}
			return app.query(cmd, msg.Validate, func(ctx context.Context, rt *runtime) (any, error) {
				masked, err := rt.facade.Queries().MaskedKey.Query(ctx, msg)
				if err != nil {
					return nil, err
				}
				return map[string]any{"provider": msg.Provider, "maskedKey": masked}, nil
			})
		},
	}

	var filter core.AttemptFilter
	var outcome string
	attemptsCmd := &cobra.Command{
		Use:   "attempts",
		Short: "List recorded RPC attempts from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.ProjectID = app.Settings.ProjectID
			filter.Outcome = core.AttemptOutcome(strings.TrimSpace(outcome))
			msg := llmquery.ListAttemptsMessage{Filter: filter}
			if err := msg.Validate(); err != nil {
				return err
			}
			db, store, err := app.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return core.ConfigurationError("db_dsn", "cli: --db-dsn is required to list attempts")
			}
			defer db.Close()
			records, err := llmquery.NewListAttemptsQuery(store).Query(cmd.Context(), msg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	attemptsCmd.Flags().StringVar(&filter.InvocationID, "invocation", "", "Only attempts of this invocation id")
	attemptsCmd.Flags().StringVar(&filter.Procedure, "procedure", "", "Only attempts of this procedure")
	attemptsCmd.Flags().StringVar(&outcome, "outcome", "", "Only attempts with this outcome")
	attemptsCmd.Flags().IntVar(&filter.Limit, "limit", 0, "Page size (default 50)")
	attemptsCmd.Flags().IntVar(&filter.Offset, "offset", 0, "Page offset")

	rootCmd.AddCommand(listCmd, maskedKeyCmd, attemptsCmd)
}

// execute validates, runs a command handler and prints the stored result.
func (app *App) execute(cmd *cobra.Command, validate func() error, run func(context.Context, *runtime) error) error {
	return app.query(cmd, validate, func(ctx context.Context, rt *runtime) (any, error) {
		collector := gocmd.NewResult[any]()
		if err := run(gocmd.ContextWithResult(ctx, collector), rt); err != nil {
			return nil, err
		}
		result, _ := collector.Load()
		return result, nil
	})
}

func (app *App) query(cmd *cobra.Command, validate func() error, run func(context.Context, *runtime) (any, error)) error {
	if err := validate(); err != nil {
		return err
	}
	rt, err := app.open(cmd)
	if err != nil {
		return err
	}
	result, runErr := run(cmd.Context(), rt)
	if err := app.finish(cmd, rt); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
