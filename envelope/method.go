package envelope

import "strings"

type Method string

const (
	MethodQuery    Method = "query"
	MethodMutation Method = "mutation"
)

var queryVerbs = map[string]struct{}{
	"all":    {},
	"get":    {},
	"getAll": {},
	"list":   {},
}

// MethodFor classifies a procedure by its last dot-separated segment.
// llmApiKey.all is a query, llmApiKey.create is a mutation.
func MethodFor(procedure string) Method {
	procedure = strings.TrimSpace(procedure)
	verb := procedure
	if index := strings.LastIndex(procedure, "."); index >= 0 {
		verb = procedure[index+1:]
	}
	if _, ok := queryVerbs[verb]; ok {
		return MethodQuery
	}
	return MethodMutation
}
