// Command corebrowser-demo drives the core against a static HTML fixture
// from the command line: run replays a JSON command script, snapshot takes
// one snapshot and prints its tree, and exec issues a single ad hoc action.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fenwickbrowser/corebrowser/internal/coretypes"
)

var (
	fixturePath string
	fixtureURL  string
	logLevel    string
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "corebrowser-demo",
		Short: "Drive the semantic snapshot/action core against a static HTML fixture",
	}
	root.PersistentFlags().StringVar(&fixturePath, "fixture", os.Getenv("COREBROWSER_FIXTURE"), "path to an HTML fixture file")
	root.PersistentFlags().StringVar(&fixtureURL, "url", "file://fixture", "URL recorded against the loaded document")
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("COREBROWSER_LOG_LEVEL", "info"), "zerolog level")

	root.AddCommand(newSnapshotCmd(), newExecCmd(), newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() zerolog.Logger {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func loadFixture(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("--fixture is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read fixture: %w", err)
	}
	return string(b), nil
}

func newSnapshotCmd() *cobra.Command {
	var mode, format, grepPattern string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Take one snapshot of the fixture and print its tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			cmdArgs := map[string]any{"mode": mode}
			if format != "" {
				cmdArgs["format"] = format
			}
			if grepPattern != "" {
				cmdArgs["grep"] = map[string]any{"pattern": grepPattern, "ignoreCase": true}
			}
			resp := eng.Dispatch(cmd.Context(), coretypes.Command{
				Action: coretypes.ActionSnapshot,
				Args:   cmdArgs,
			})
			return printResponse(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "interactive", "interactive|outline|content|extract")
	cmd.Flags().StringVar(&format, "format", "", "tree|html|markdown (content/extract modes)")
	cmd.Flags().StringVar(&grepPattern, "grep", "", "filter pattern")
	return cmd
}

func newExecCmd() *cobra.Command {
	var action, argsJSON string
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Issue a single action command against the fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			var decoded map[string]any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &decoded); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}
			resp := eng.Dispatch(cmd.Context(), coretypes.Command{
				Action: coretypes.Action(action),
				Args:   decoded,
			})
			return printResponse(resp)
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "action tag, e.g. click")
	cmd.Flags().StringVar(&argsJSON, "args", "{}", "action args as a JSON object")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

// scriptCommand is one line of a run script: a command plus an optional
// human label used only in console output.
type scriptCommand struct {
	Label  string         `json:"label"`
	Action string         `json:"action"`
	Args   map[string]any `json:"args"`
}

func newRunCmd() *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a JSON array of commands against the fixture, in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(scriptPath)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			var script []scriptCommand
			if err := json.Unmarshal(raw, &script); err != nil {
				return fmt.Errorf("parse script: %w", err)
			}
			for i, sc := range script {
				resp := eng.Dispatch(cmd.Context(), coretypes.Command{
					Action: coretypes.Action(sc.Action),
					Args:   sc.Args,
				})
				label := sc.Label
				if label == "" {
					label = fmt.Sprintf("step %d", i+1)
				}
				fmt.Printf("--- %s (%s) ---\n", label, sc.Action)
				if err := printResponse(resp); err != nil {
					return err
				}
				if !resp.Success {
					return fmt.Errorf("script stopped at %s: %s", label, resp.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "path to a JSON command script")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func printResponse(resp coretypes.Response) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
