// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"
)

// Unzipper extracts self-extracting archives with an external unzip tool.
type Unzipper struct {
	log          logr.Logger
	command      string
	benignStderr string
}

// NewUnzipper returns an Unzipper running command. A run exiting with a
// warning status is accepted when stderr only carries benignStderr.
func NewUnzipper(log logr.Logger, command, benignStderr string) *Unzipper {
	return &Unzipper{log: log, command: command, benignStderr: benignStderr}
}

// Extract extracts the archive at path into dir.
func (u *Unzipper) Extract(ctx context.Context, path, dir string) error {
	tool, err := exec.LookPath(u.command)
	if err != nil {
		return fmt.Errorf("%s is not present: %w", u.command, err)
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, "-o", "-qq", path, "-d", dir)
	cmd.Stderr = &stderr
	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && exitErr.ExitCode() == 1 && u.benign(stderr.String()) {
		u.log.V(1).Info("Ignoring benign unzip diagnostic", "archive", path, "stderr", strings.TrimSpace(stderr.String()))
		return nil
	}
	return fmt.Errorf("running %s on %s failed: %w: %s", u.command, path, runErr, strings.TrimSpace(stderr.String()))
}

// benign reports whether stderr carries the tolerated warning and no error.
func (u *Unzipper) benign(stderr string) bool {
	if u.benignStderr == "" || !strings.Contains(stderr, u.benignStderr) {
		return false
	}
	return !strings.Contains(strings.ToLower(stderr), "error")
}
