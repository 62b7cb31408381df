// Package bridge implements the host contract by shelling out to the
// authoring application's embedded Python interpreter (hython). Each
// primitive is one subprocess call carrying JSON arguments; the remote
// side answers with a {success, result, error, traceback} envelope.
//
// The subprocess runner is an interface so tests can substitute a fake
// without spawning processes.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjrosen/stagehand/internal/host"
	"github.com/zjrosen/stagehand/internal/log"
)

// Default subprocess configuration. The remote module ships with the
// host-side package installation.
const (
	DefaultExecutable = "hython"
	DefaultModule     = "stagehand_host"
)

// Runner executes one remote function call and returns its raw stdout.
type Runner interface {
	Run(ctx context.Context, fn string, payload string) ([]byte, error)
}

// envelope is the wire result structure every remote function returns.
type envelope struct {
	Success   bool           `json:"success"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Traceback string         `json:"traceback,omitempty"`
}

// RemoteError is a failure reported by the remote side of the bridge.
type RemoteError struct {
	Message   string
	Traceback string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge: remote error: %s", e.Message)
}

// object is a path-backed handle to a remote node. The path is the only
// state; every operation re-resolves it remotely.
type object struct {
	path string
}

func (o object) Path() string { return o.path }

// Host drives a remote authoring host through a Runner.
type Host struct {
	runner Runner
}

// Option configures a bridge Host.
type Option func(*Host)

// WithRunner substitutes the subprocess runner, used by tests.
func WithRunner(r Runner) Option {
	return func(h *Host) {
		h.runner = r
	}
}

// WithCommand sets the interpreter executable and remote module for the
// default subprocess runner.
func WithCommand(executable, module string) Option {
	return func(h *Host) {
		h.runner = &execRunner{executable: executable, module: module}
	}
}

// New creates a bridge host using the default hython runner.
func New(opts ...Option) *Host {
	h := &Host{
		runner: &execRunner{executable: DefaultExecutable, module: DefaultModule},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// call invokes a remote function with JSON-encoded arguments and decodes
// the result envelope.
func (h *Host) call(ctx context.Context, fn string, args map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("bridge: encoding %s args: %w", fn, err)
	}

	log.Debug(log.CatBridge, "calling remote function", "fn", fn)
	out, err := h.runner.Run(ctx, fn, string(payload))
	if err != nil {
		return nil, fmt.Errorf("bridge: %s: %w", fn, err)
	}

	var env envelope
	if err := json.Unmarshal(out, &env); err != nil {
		return nil, fmt.Errorf("bridge: decoding %s result: %w", fn, err)
	}
	if !env.Success {
		log.Error(log.CatBridge, "remote function failed", "fn", fn, "error", env.Error)
		return nil, &RemoteError{Message: env.Error, Traceback: env.Traceback}
	}
	return env.Result, nil
}

func resultString(result map[string]any, key string) (string, error) {
	v, ok := result[key]
	if !ok {
		return "", fmt.Errorf("bridge: result missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("bridge: result field %q is not a string", key)
	}
	return s, nil
}

// CreateChild creates a node of the given type under parent.
func (h *Host) CreateChild(ctx context.Context, parent host.Object, typeName, name string) (host.Object, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: <nil parent>", host.ErrNotFound)
	}
	result, err := h.call(ctx, "create_child", map[string]any{
		"parent": parent.Path(),
		"type":   typeName,
		"name":   name,
	})
	if err != nil {
		return nil, err
	}
	path, err := resultString(result, "path")
	if err != nil {
		return nil, err
	}
	return object{path: path}, nil
}

// SetParameter sets one parameter value.
func (h *Host) SetParameter(ctx context.Context, obj host.Object, name string, value any) error {
	_, err := h.call(ctx, "set_parameter", map[string]any{
		"path":  obj.Path(),
		"name":  name,
		"value": value,
	})
	return err
}

// ConnectInput wires source's output into obj's input slot.
func (h *Host) ConnectInput(ctx context.Context, obj host.Object, input int, source host.Object, sourceOutput int) error {
	_, err := h.call(ctx, "connect_input", map[string]any{
		"path":          obj.Path(),
		"input":         input,
		"source":        source.Path(),
		"source_output": sourceOutput,
	})
	return err
}

// SetFlag toggles a node flag.
func (h *Host) SetFlag(ctx context.Context, obj host.Object, kind host.FlagKind, enabled bool) error {
	_, err := h.call(ctx, "set_flag", map[string]any{
		"path":    obj.Path(),
		"flag":    kind.String(),
		"enabled": enabled,
	})
	return err
}

// ResolveByPath looks up a node by absolute path.
func (h *Host) ResolveByPath(ctx context.Context, path string) (host.Object, error) {
	result, err := h.call(ctx, "resolve_path", map[string]any{"path": path})
	if err != nil {
		return nil, err
	}
	if found, ok := result["found"].(bool); ok && !found {
		return nil, fmt.Errorf("%w: %s", host.ErrNotFound, path)
	}
	resolved, err := resultString(result, "path")
	if err != nil {
		return nil, err
	}
	return object{path: resolved}, nil
}

// OutputCount reports how many outputs a node exposes.
func (h *Host) OutputCount(ctx context.Context, obj host.Object) (int, error) {
	result, err := h.call(ctx, "output_count", map[string]any{"path": obj.Path()})
	if err != nil {
		return 0, err
	}
	v, ok := result["count"].(float64)
	if !ok {
		return 0, fmt.Errorf("bridge: result field %q is not a number", "count")
	}
	return int(v), nil
}

// Validate checks that the remote host is reachable and answering.
func (h *Host) Validate(ctx context.Context) error {
	_, err := h.call(ctx, "get_host_info", map[string]any{})
	return err
}

// Info returns environment details reported by the remote host.
func (h *Host) Info(ctx context.Context) (map[string]any, error) {
	return h.call(ctx, "get_host_info", map[string]any{})
}

// Compile-time check that Host implements host.Host.
var _ host.Host = (*Host)(nil)
