package envelope

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-llm-connections/core"
)

// Request is a wire-encoded call ready for the transport.
type Request struct {
	Format Format
	Method string
	Path   string
	Query  map[string]string
	Body   any
}

func Encode(format Format, route string, procedure string, method Method, payload map[string]any) (Request, error) {
	procedure = strings.TrimSpace(procedure)
	if procedure == "" {
		return Request{}, core.ConfigurationError("procedure", "envelope: procedure is required")
	}
	if method == "" {
		method = MethodFor(procedure)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	req := Request{
		Format: format,
		Method: http.MethodPost,
		Path:   ProcedurePath(route, procedure),
	}
	switch format {
	case FormatDirect:
		req.Body = map[string]any{
			"json": map[string]any{"input": payload},
		}
	case FormatBatch:
		req.Query = map[string]string{"batch": "1"}
		req.Body = []any{
			map[string]any{
				"id": 1,
				"json": map[string]any{
					"method": string(method),
					"params": map[string]any{"input": payload},
				},
			},
		}
	case FormatLegacy:
		req.Body = map[string]any{
			"json": map[string]any{
				"method": string(method),
				"params": map[string]any{
					"path":  procedure,
					"input": payload,
				},
			},
		}
	default:
		return Request{}, core.InternalError(fmt.Sprintf("envelope: unknown format %q", format))
	}
	return req, nil
}

// ProcedurePath joins the route prefix and the procedure name.
func ProcedurePath(route string, procedure string) string {
	route = strings.TrimRight(strings.TrimSpace(route), "/")
	return route + "/" + strings.TrimLeft(strings.TrimSpace(procedure), "/")
}

// EncodeLookupQuery renders the input query parameter of a GET lookup:
// the URL-encoded form of {"json":input}.
func EncodeLookupQuery(input map[string]any) (string, error) {
	raw, err := LookupInput(input)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(raw), nil
}

// LookupInput is the unescaped value of the lookup input parameter.
func LookupInput(input map[string]any) (string, error) {
	if input == nil {
		input = map[string]any{}
	}
	raw, err := json.Marshal(map[string]any{"json": input})
	if err != nil {
		return "", core.InternalError("envelope: encode lookup input: " + err.Error())
	}
	return string(raw), nil
}

// EncodeSuccess renders value as the success response a backend accepting
// format would send.
func EncodeSuccess(format Format, value any) ([]byte, error) {
	result := map[string]any{
		"result": map[string]any{
			"data": map[string]any{"json": value},
		},
	}
	var body any = result
	if format == FormatBatch {
		body = []any{result}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, core.InternalError("envelope: encode success: " + err.Error())
	}
	return raw, nil
}
