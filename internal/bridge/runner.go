package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// execRunner runs remote functions via the interpreter subprocess:
//
//	hython -m stagehand_host call <fn> <json-payload>
//
// stdout carries the JSON result envelope; stderr is folded into the
// error on failure.
type execRunner struct {
	executable string
	module     string
}

func (r *execRunner) Run(ctx context.Context, fn string, payload string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.executable, "-m", r.module, "call", fn, payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s %s failed: %s", r.executable, fn, stderr.String())
		}
		return nil, fmt.Errorf("%s %s failed: %w", r.executable, fn, err)
	}
	return stdout.Bytes(), nil
}
