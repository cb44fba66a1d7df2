// triagectl is the operator companion to the triage API. It prints the
// tracker queries the dashboard would send, runs a one-off summary, and
// mints dashboard session tokens.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/spf13/pflag"

	"github.com/lorrc/defect-triage/internal/adapters/secondary/jira"
	"github.com/lorrc/defect-triage/internal/auth"
	"github.com/lorrc/defect-triage/internal/config"
	"github.com/lorrc/defect-triage/internal/core/domain"
	"github.com/lorrc/defect-triage/internal/core/jql"
	"github.com/lorrc/defect-triage/internal/core/services"
	"github.com/lorrc/defect-triage/internal/infrastructure/logging"
)

const usage = `Usage: triagectl <command> [flags]

Commands:
  jql      print the JQL for a set of dashboard filters
  summary  compute the dashboard summary against the configured tracker
  token    mint a dashboard session token

Run "triagectl <command> --help" for the flags of a command.
`

func main() {
	// Local .env files are optional.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "jql":
		return runJQL(args[1:], stdout, stderr)
	case "summary":
		return runSummary(ctx, args[1:], stdout, stderr)
	case "token":
		return runToken(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// filterFlags mirrors the dashboard's query parameters.
type filterFlags struct {
	category  string
	window    string
	start     string
	end       string
	assignee  string
	directory string
}

func (f *filterFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&f.category, "filter", string(domain.CategoryOngoing), "category: ongoing, triagePending, waiting, done, rejected, nri")
	fs.StringVar(&f.window, "date", string(domain.DateWindowNone), "date window: all, week, month, range")
	fs.StringVar(&f.start, "start", "", "range start (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "range end (YYYY-MM-DD)")
	fs.StringVar(&f.assignee, "assignee", "", "assignee directory key (empty for anyone)")
	fs.StringVar(&f.directory, "directory", os.Getenv("ASSIGNEE_DIRECTORY_FILE"), "assignee directory YAML file")
}

func (f *filterFlags) criteria() (domain.FilterCriteria, *jql.Directory, error) {
	dir, err := jql.LoadDirectory(f.directory)
	if err != nil {
		return domain.FilterCriteria{}, nil, err
	}

	category, err := domain.ParseCategory(f.category)
	if err != nil {
		return domain.FilterCriteria{}, nil, fmt.Errorf("--filter %q: %w", f.category, err)
	}
	window, err := domain.ParseDateWindow(f.window, f.start, f.end)
	if err != nil {
		return domain.FilterCriteria{}, nil, fmt.Errorf("--date: %w", err)
	}

	assignee := domain.AnyAssignee()
	if f.assignee != "" {
		assignee = domain.SpecificPerson(f.assignee)
	}

	return domain.FilterCriteria{Category: category, DateWindow: window, Assignee: assignee}, dir, nil
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("triagectl "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runJQL(args []string, stdout, stderr io.Writer) error {
	var filters filterFlags
	var count bool

	fs := newFlagSet("jql", stderr)
	filters.add(fs)
	fs.BoolVar(&count, "count", false, "print the count query (no ORDER BY)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria, dir, err := filters.criteria()
	if err != nil {
		return err
	}

	builder := jql.NewBuilder(dir)
	var query string
	if count {
		query, err = builder.CountQuery(criteria)
	} else {
		query, err = builder.ListQuery(criteria)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, query)
	return nil
}

func runSummary(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var filters filterFlags
	var timeout time.Duration
	var out string

	fs := newFlagSet("summary", stderr)
	filters.add(fs)
	fs.DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	fs.StringVar(&out, "out", "", "also write the summary to this file, replacing it atomically")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria, dir, err := filters.criteria()
	if err != nil {
		return err
	}

	cfg, err := config.LoadTracker()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      "text",
		Output:      stderr,
		ServiceName: "triagectl",
		Environment: cfg.App.Environment,
	})

	tracker, err := jira.NewClient(jira.Config{
		BaseURL: cfg.Tracker.BaseURL,
		Token:   cfg.Tracker.Token,
		Timeout: cfg.Tracker.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, err := services.NewSummaryService(tracker, jql.NewBuilder(dir)).Summarize(ctx, criteria)
	if err != nil {
		return err
	}

	return writeJSON(summary, stdout, out)
}

// writeJSON prints v and, when path is set, replaces path with the same
// bytes so readers never see a partial snapshot.
func writeJSON(v any, stdout io.Writer, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}

	if path != "" {
		if err := atomic.WriteFile(path, bytes.NewReader(buf.Bytes())); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	_, err := stdout.Write(buf.Bytes())
	return err
}

func runToken(args []string, stdout, stderr io.Writer) error {
	var accountID, name, secret string
	var ttl time.Duration

	fs := newFlagSet("token", stderr)
	fs.StringVar(&accountID, "account-id", "", "tracker account id of the session owner (required)")
	fs.StringVar(&name, "name", "", "display name recorded on writes")
	fs.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	fs.DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if accountID == "" {
		return errors.New("--account-id is required")
	}
	if len(secret) < config.MinSecretLength {
		return fmt.Errorf("signing secret must be at least %d characters", config.MinSecretLength)
	}

	token, err := auth.NewTokenManager(secret, ttl).GenerateToken(accountID, name)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, token)
	return nil
}
