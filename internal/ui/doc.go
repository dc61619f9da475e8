// Package ui provides terminal output components for the smartweb-cfg CLI.
//
// Components render once and exit; the interactive setup lives in the
// wizard package. The building blocks are:
//
//   - Header: command banner with title and parameters
//   - Progress: step list with a progress bar
//   - Result: success, failure and warning boxes
//   - RenderDeviceTable: one row per device snapshot
//
// Runner ties them together for commands that talk to the hub:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Login",
//	    Command:   "smartweb-cfg login",
//	    StepNames: []string{"Authenticate"},
//	})
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    ...
//	})
//
// Failures are rendered with the troubleshooting hint of the hub error.
//
// zap logging is silent unless SMARTWEB_LOG_LEVEL is set, so the styled
// output is not interleaved with log lines.
package ui
