package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

const RootLoggerName = "llmconnections"

// ComponentName returns the logger name of a component, e.g.
// llmconnections.rpc. An empty component yields the root name.
func ComponentName(component string) string {
	component = strings.Trim(strings.TrimSpace(component), ".")
	if component == "" {
		return RootLoggerName
	}
	return RootLoggerName + "." + component
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(component string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(ComponentName(component), provider, logger)
}

// Components resolves one logger per component name from the same source.
func Components(provider glog.LoggerProvider, logger glog.Logger, components ...string) map[string]glog.Logger {
	out := make(map[string]glog.Logger, len(components))
	for _, component := range components {
		_, resolved := Resolve(component, provider, logger)
		out[component] = resolved
	}
	return out
}

// ForJob resolves the jobs component logger and returns the go-job bridges
// for worker wiring.
func ForJob(provider glog.LoggerProvider, logger glog.Logger) (job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve("jobs", provider, logger)
	var jobProvider job.LoggerProvider
	if resolvedProvider != nil {
		jobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	var jobLogger job.Logger
	if resolvedLogger != nil {
		jobLogger = job.GoLogger(resolvedLogger)
	}
	return jobProvider, jobLogger
}
