// Package cli wires the detect command line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartreview/detection/internal/adapter/store/sqlite"
	"github.com/smartreview/detection/internal/usecase/detect"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Detector runs a detection request to completion.
type Detector interface {
	Detect(ctx context.Context, req detect.Request) detect.Response
}

// ResponseWriter persists a detection response and returns the artifact path.
type ResponseWriter interface {
	Write(ctx context.Context, outputDir string, resp detect.Response) (string, error)
}

// HistoryLister reads stored run history.
type HistoryLister interface {
	RecentRuns(ctx context.Context, limit int) ([]sqlite.RunRecord, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Detector      Detector
	Writers       []ResponseWriter
	History       HistoryLister
	Args          Arguments
	DefaultOutput string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "detect",
		Short: "LLM-backed code issue detection",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(runCommand(deps))
	root.AddCommand(historyCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func runCommand(deps Dependencies) *cobra.Command {
	var inputPath string
	var outputDir string
	var deadline time.Duration
	var categories []string
	var severityThreshold string
	var maxIssuesPerFile int
	var requestID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze a batch of files for issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			if requestID != "" {
				req.RequestID = requestID
			}
			if len(categories) > 0 {
				req.Options.Categories = categories
			}
			if severityThreshold != "" {
				req.Options.SeverityThreshold = severityThreshold
			}
			if maxIssuesPerFile > 0 {
				req.Options.MaxIssuesPerFile = maxIssuesPerFile
			}

			ctx := cmd.Context()
			if deadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, deadline)
				defer cancel()
			}

			resp := deps.Detector.Detect(ctx, *req)

			dir := outputDir
			if dir == "" {
				dir = deps.DefaultOutput
			}
			for _, writer := range deps.Writers {
				path, err := writer.Write(ctx, dir, resp)
				if err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
			}

			printSummary(cmd.OutOrStdout(), resp)

			if resp.Status == detect.StatusError {
				return fmt.Errorf("detection failed: %s", strings.Join(resp.Errors, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Request JSON file, or - for stdin (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for report artifacts")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "Overall run deadline, e.g. 5m (0 = none)")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Restrict analysis to these categories")
	cmd.Flags().StringVar(&severityThreshold, "severity-threshold", "", "Drop issues below this severity")
	cmd.Flags().IntVar(&maxIssuesPerFile, "max-issues-per-file", 0, "Cap reported issues per file")
	cmd.Flags().StringVar(&requestID, "request-id", "", "Override the request identifier")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func historyCommand(history HistoryLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent detection runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return fmt.Errorf("run history store is not enabled")
			}

			runs, err := history.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  files=%d/%d  issues=%d  tokens=%d  cost=$%.6f  %s\n",
					run.StartedAt.Format(time.RFC3339), run.Status,
					run.FilesAnalyzed, run.TotalFiles, run.TotalIssues,
					run.TotalTokens, run.EstimatedCost, run.RequestID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	return cmd
}

func readRequest(stdin io.Reader, inputPath string) (*detect.Request, error) {
	var reader io.Reader
	switch inputPath {
	case "":
		return nil, fmt.Errorf("--input is required")
	case "-":
		reader = stdin
	default:
		file, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var req detect.Request
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

func printSummary(out io.Writer, resp detect.Response) {
	fmt.Fprintf(out, "status: %s\n", resp.Status)
	fmt.Fprintf(out, "files analyzed: %d/%d\n", resp.Summary.FilesAnalyzed, resp.Summary.TotalFiles)
	fmt.Fprintf(out, "issues found: %d\n", resp.Summary.TotalIssues)
	if resp.Summary.TotalTokens > 0 {
		fmt.Fprintf(out, "tokens used: %d (est. cost $%.6f)\n", resp.Summary.TotalTokens, resp.Summary.EstimatedCost)
	}
	for _, line := range resp.Summary.TopIssues {
		fmt.Fprintf(out, "  - %s\n", line)
	}
}
