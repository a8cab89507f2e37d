package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/synchrony-solutions/curation-enricher-ai/pkg/models"
	"github.com/synchrony-solutions/curation-enricher-ai/pkg/prompts"
)

const (
	// defaultCLITimeout is the hard wall-clock ceiling for one CLI call.
	defaultCLITimeout = 2 * time.Minute
	// cliProbeTimeout bounds the --version liveness probe.
	cliProbeTimeout = 10 * time.Second
	// cliWaitGrace bounds how long Run waits for inherited pipes to close
	// after the deadline fires or the CLI exits leaving children behind.
	cliWaitGrace = 5 * time.Second
)

// ClaudeCLIService runs prompts through a locally installed agent CLI in
// non-interactive mode. No API key is needed; the binary's own
// authentication is reused and data stays on the local machine.
type ClaudeCLIService struct {
	command  string
	maxTurns int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClaudeCLIService creates the local-process backend. command is the
// path or name of the CLI binary; maxTurns caps agentic turns per
// invocation (1 for single-shot).
func NewClaudeCLIService(command string, maxTurns int, logger *zap.Logger) *ClaudeCLIService {
	if command == "" {
		command = "claude"
	}
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &ClaudeCLIService{
		command:  command,
		maxTurns: maxTurns,
		timeout:  defaultCLITimeout,
		logger:   logger.Named("claude-cli"),
	}
}

// invoke runs one CLI call with the prompt on stdin and returns the answer
// text. The call blocks only its own goroutine and is bounded by the
// service timeout.
func (s *ClaudeCLIService) invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command,
		"--print",
		"--output-format", "json",
		"--max-turns", strconv.Itoa(s.maxTurns),
	)
	configureProcessGroup(cmd)
	cmd.WaitDelay = cliWaitGrace
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Debug("Invoking CLI",
		zap.String("command", s.command),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return "", NewError(ErrorTypeTimeout,
			fmt.Sprintf("CLI timed out after %s", s.timeout), true, ctx.Err())
	}
	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = "unknown error"
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", NewError(ErrorTypeInvocation,
				fmt.Sprintf("CLI failed (exit %d): %s", exitErr.ExitCode(), diag), false, err)
		}
		return "", NewError(ErrorTypeInvocation,
			fmt.Sprintf("CLI failed to start: %s", diag), false, err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", NewError(ErrorTypeEmptyResponse, "CLI returned empty output", false, nil)
	}

	s.logger.Debug("CLI call completed",
		zap.Duration("elapsed", elapsed),
		zap.Int("output_len", len(out)))

	return unwrapCLIEnvelope(out), nil
}

// GenerateColumnDescriptions implements Service.
func (s *ClaudeCLIService) GenerateColumnDescriptions(ctx context.Context, datasetName string, fields []models.SchemaField) (map[string]string, error) {
	prompt := prompts.BuildColumnDescriptionPrompt(datasetName, fields)
	response, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	descriptions := projectDescriptions(s.logger, datasetName, response)
	s.logger.Info("Generated column descriptions",
		zap.String("dataset", datasetName),
		zap.Int("count", len(descriptions)))
	return descriptions, nil
}

// DetectPIIColumns implements Service.
func (s *ClaudeCLIService) DetectPIIColumns(ctx context.Context, datasetName string, fields []models.SchemaField) ([]string, error) {
	prompt := prompts.BuildPIIDetectionPrompt(datasetName, fields)
	response, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	piiFields := projectPIIColumns(s.logger, datasetName, response)
	s.logger.Info("Detected PII columns",
		zap.String("dataset", datasetName),
		zap.Int("count", len(piiFields)))
	return piiFields, nil
}

// SuggestTags implements Service.
func (s *ClaudeCLIService) SuggestTags(ctx context.Context, datasetName, datasetDescription string, fields []models.SchemaField) ([]string, error) {
	prompt := prompts.BuildTagSuggestionPrompt(datasetName, datasetDescription, fields)
	response, err := s.invoke(ctx, prompt)
	if err != nil {
		return nil, err
	}

	tags := projectTags(s.logger, datasetName, response)
	s.logger.Info("Suggested tags",
		zap.String("dataset", datasetName),
		zap.Int("count", len(tags)))
	return tags, nil
}

// CheckConnection implements Service. It verifies the CLI binary is on PATH
// and answers a version probe.
func (s *ClaudeCLIService) CheckConnection(ctx context.Context) bool {
	if _, err := exec.LookPath(s.command); err != nil {
		s.logger.Error("CLI binary not found", zap.String("command", s.command))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, cliProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.command, "--version").Output()
	if err != nil {
		s.logger.Error("CLI version probe failed", zap.Error(err))
		return false
	}

	s.logger.Info("CLI available", zap.String("version", strings.TrimSpace(string(out))))
	return true
}

// BackendName implements Service.
func (s *ClaudeCLIService) BackendName() string {
	return "claude-code (local)"
}
