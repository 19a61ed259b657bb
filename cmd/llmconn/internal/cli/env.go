package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-llm-connections/core"
)

const EnvPrefix = "LLMCONN_"

// EnvTokenKey holds the bearer token when --token is not set.
const EnvTokenKey = EnvPrefix + "TOKEN"

type envValueKind int

const (
	envString envValueKind = iota
	envBool
	envInt
	envDuration
)

type envBinding struct {
	path []string
	kind envValueKind
}

var envBindings = map[string]envBinding{
	"SERVICE_NAME":            {path: []string{"service_name"}},
	"BASE_URL":                {path: []string{"base_url"}},
	"ROUTE_PREFIX":            {path: []string{"route_prefix"}},
	"TIMEOUT":                 {path: []string{"timeout"}, kind: envDuration},
	"MAX_RESPONSE_BODY_BYTES": {path: []string{"max_response_body_bytes"}, kind: envInt},
	"DEFAULT_ADAPTER":         {path: []string{"default_adapter"}},
	"PROJECT_ALLOW_DEFAULT":   {path: []string{"project", "allow_default"}, kind: envBool},
	"PROJECT_DEFAULT_ID":      {path: []string{"project", "default_id"}},
	"PROCEDURES_CREATE":       {path: []string{"procedures", "create"}},
	"PROCEDURES_UPDATE":       {path: []string{"procedures", "update"}},
	"PROCEDURES_LIST":         {path: []string{"procedures", "list"}},
	"PROCEDURES_DELETE":       {path: []string{"procedures", "delete"}},
	"PROCEDURES_TEST":         {path: []string{"procedures", "test"}},
}

// EnvFileLoader reads LLMCONN_* keys from a dotenv file and the process
// environment and shapes them as the raw config layer. Process values win
// over the file, matching godotenv.Load.
type EnvFileLoader struct {
	Path string
	// Environ replaces os.Environ when set.
	Environ func() []string
}

var _ core.RawConfigLoader = EnvFileLoader{}

func (l EnvFileLoader) LoadRaw(context.Context) (map[string]any, error) {
	values, err := l.values()
	if err != nil {
		return nil, err
	}
	return envConfig(values)
}

func (l EnvFileLoader) values() (map[string]string, error) {
	values, err := readEnvFile(l.Path)
	if err != nil {
		return nil, err
	}
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	for _, entry := range environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) || strings.TrimSpace(value) == "" {
			continue
		}
		values[key] = value
	}
	return values, nil
}

func readEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read .env file %s: %w", path, err)
	}
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}
	return values, nil
}

func envConfig(values map[string]string) (map[string]any, error) {
	out := map[string]any{}
	for key, raw := range values {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		binding, ok := envBindings[strings.TrimPrefix(key, EnvPrefix)]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		value, err := binding.parse(raw)
		if err != nil {
			return nil, core.ConfigurationError(key, fmt.Sprintf("cli: invalid %s: %v", key, err))
		}
		setPath(out, binding.path, value)
	}
	return out, nil
}

func (b envBinding) parse(raw string) (any, error) {
	switch b.kind {
	case envBool:
		return strconv.ParseBool(raw)
	case envInt:
		return strconv.ParseInt(raw, 10, 64)
	case envDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

func setPath(target map[string]any, path []string, value any) {
	for _, segment := range path[:len(path)-1] {
		next, ok := target[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[segment] = next
		}
		target = next
	}
	target[path[len(path)-1]] = value
}
