package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes one CLI operation
type RunnerConfig struct {
	Title     string  // e.g. "Login"
	Command   string  // e.g. "smartweb-cfg login"
	Params    []Param // shown in the header
	StepNames []string
	Output    io.Writer // default: os.Stdout
}

// Runner prints a header, the steps as they finish and a final result box
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	out      io.Writer
	width    int
}

// NewRunner creates a runner sized to the terminal
func NewRunner(config RunnerConfig) *Runner {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	width := GetTerminalWidth()

	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params...).SetWidth(width),
		progress: NewProgress(config.StepNames...),
		out:      out,
		width:    width,
	}
}

// SetWidth overrides the terminal width
func (r *Runner) SetWidth(width int) *Runner {
	r.width = width
	r.header.SetWidth(width)
	return r
}

// Operation does the work and returns the details for the success box
type Operation func(ctx context.Context, onStep StepCallback) ([]Param, error)

// Run executes op and renders the outcome. Failures are rendered with the
// hub's troubleshooting hint.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	start := time.Now()

	_, _ = fmt.Fprintln(r.out, r.header.Render())
	_, _ = fmt.Fprintln(r.out)

	details, err := op(ctx, r.onStep)
	elapsed := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.out)
	if err != nil {
		_, _ = fmt.Fprintln(r.out, NewHubFailureResult(r.config.Title+" failed", err).SetWidth(r.width).Render())
		return err
	}

	details = append(details, Param{Key: "Duration", Value: elapsed.String()})
	_, _ = fmt.Fprintln(r.out, NewSuccessResult(r.config.Title+" complete", details...).SetWidth(r.width).Render())
	return nil
}

func (r *Runner) onStep(number int, status StepStatus, message string) {
	r.progress.UpdateStep(number, status, message)
	if number < 1 || number > r.progress.Total() {
		return
	}

	line := r.progress.renderStepLine(r.progress.Steps[number-1])
	if status == StepRunning {
		// overwritten when the step finishes
		_, _ = fmt.Fprint(r.out, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.out, line)
}
