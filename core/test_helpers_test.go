package core

import (
	"context"
	"sync"
)

type invokeCall struct {
	lookup    bool
	procedure string
	payload   map[string]any
	scope     Scope
}

type invokeReply struct {
	value any
	err   error
}

// stubInvoker replays replies per procedure in order and records every call.
type stubInvoker struct {
	mu      sync.Mutex
	calls   []invokeCall
	replies map[string][]invokeReply
}

func newStubInvoker() *stubInvoker {
	return &stubInvoker{replies: map[string][]invokeReply{}}
}

func (s *stubInvoker) reply(procedure string, value any, err error) *stubInvoker {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[procedure] = append(s.replies[procedure], invokeReply{value: value, err: err})
	return s
}

func (s *stubInvoker) Invoke(_ context.Context, procedure string, payload map[string]any, scope Scope) (any, error) {
	return s.next(invokeCall{procedure: procedure, payload: payload, scope: scope})
}

func (s *stubInvoker) Lookup(_ context.Context, procedure string, input map[string]any, scope Scope) (any, error) {
	return s.next(invokeCall{lookup: true, procedure: procedure, payload: input, scope: scope})
}

func (s *stubInvoker) next(call invokeCall) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	queue := s.replies[call.procedure]
	if len(queue) == 0 {
		return nil, nil
	}
	head := queue[0]
	if len(queue) > 1 {
		s.replies[call.procedure] = queue[1:]
	}
	return head.value, head.err
}

func (s *stubInvoker) snapshot() []invokeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]invokeCall, len(s.calls))
	copy(out, s.calls)
	return out
}

type memoryListCache struct {
	mu          sync.Mutex
	entries     map[string][]any
	fetches     int
	invalidated []string
}

func newMemoryListCache() *memoryListCache {
	return &memoryListCache{entries: map[string][]any{}}
}

func (m *memoryListCache) GetOrFetch(ctx context.Context, projectID string, fetch func(context.Context) ([]any, error)) ([]any, error) {
	m.mu.Lock()
	if items, ok := m.entries[projectID]; ok {
		m.mu.Unlock()
		return items, nil
	}
	m.fetches++
	m.mu.Unlock()

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.entries[projectID] = items
	m.mu.Unlock()
	return items, nil
}

func (m *memoryListCache) Invalidate(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, projectID)
	m.invalidated = append(m.invalidated, projectID)
	return nil
}

func newTestClient(invoker ProcedureInvoker, opts ...Option) (*Client, error) {
	return NewClient(Config{}, append([]Option{WithInvoker(invoker)}, opts...)...)
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}
