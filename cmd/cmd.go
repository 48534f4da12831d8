package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/shreeve/rip-sub000/lexer"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// errFailed is returned by check when at least one file did not lex. The
// diagnostics have already been printed, so Execute only sets the status.
var errFailed = errors.New("some files failed to tokenize")

// Execute runs the rip CLI with the given version string.
func Execute(version string) {
	session, err := lexer.NewSession(lexer.DefaultCacheSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	c := newCommand(version, session, os.Stdin, os.Stdout, os.Stderr)
	if err := c.Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newCommand(version string, session *lexer.Session, stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	r := &runner{session: session, stdin: stdin, stdout: stdout, stderr: stderr}
	return &cli.Command{
		Name:                   "rip",
		Usage:                  "Tokenize rip source into the stream read by the grammar",
		Version:                version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		// Allow `rip file.rip` as shorthand for `rip tokens file.rip`
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 0 && strings.HasSuffix(cmd.Args().First(), ".rip") {
				return r.tokens(cmd.Args().First(), nil, tokensConfig{})
			}
			return cli.DefaultShowRootCommandHelp(cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "tokens",
				Usage:     "Print the token stream of a file, of --eval code, or of stdin",
				ArgsUsage: "[file.rip]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "eval",
						Aliases: []string{"e"},
						Usage:   "Tokenize this code instead of a file",
					},
					&cli.BoolFlag{
						Name:    "locations",
						Aliases: []string{"l"},
						Usage:   "Print the location of every token",
					},
					&cli.BoolFlag{
						Name:  "no-rewrite",
						Usage: "Print the raw scanner output",
					},
					&cli.BoolFlag{
						Name:    "debug",
						Sources: cli.EnvVars("RIP_DEBUG_TOKEN_STREAM"),
						Usage:   "Log the token stream before and after rewriting",
					},
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: r.tokensAction,
			},
			{
				Name:      "check",
				Usage:     "Tokenize files and report the first error in each",
				ArgsUsage: "<file.rip>...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Files tokenized in parallel",
						Value:   1,
					},
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: r.checkAction,
			},
		},
	}
}

// runner holds what the command actions share.
type runner struct {
	session *lexer.Session
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

type tokensConfig struct {
	locations bool
	noRewrite bool
	debug     bool
	noColor   bool
}

func (r *runner) tokensAction(ctx context.Context, cmd *cli.Command) error {
	cfg := tokensConfig{
		locations: cmd.Bool("locations"),
		noRewrite: cmd.Bool("no-rewrite"),
		debug:     cmd.Bool("debug"),
		noColor:   cmd.Bool("no-color"),
	}
	if cmd.IsSet("eval") {
		code := cmd.String("eval")
		return r.tokens("", &code, cfg)
	}
	if cmd.NArg() > 0 {
		return r.tokens(cmd.Args().First(), nil, cfg)
	}
	data, err := io.ReadAll(r.stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	code := string(data)
	return r.tokens("", &code, cfg)
}

// tokens prints the stream for path, or for code when it is non-nil.
func (r *runner) tokens(path string, code *string, cfg tokensConfig) error {
	var src string
	if code != nil {
		src = *code
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		src = string(data)
	}

	opts := lexer.Options{Filename: path, NoRewrite: cfg.noRewrite}
	if cfg.debug {
		opts.Logger = log.New(r.stderr, "rip: ", 0)
	}
	tokens, err := r.session.Tokenize(src, opts)
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			fmt.Fprint(r.stderr, lexer.FormatError(lexErr, src, useColor(cfg.noColor, r.stderr)))
			return errFailed
		}
		return err
	}

	var b bytes.Buffer
	for _, t := range tokens {
		b.WriteString(t.String())
		if cfg.locations {
			fmt.Fprintf(&b, " %s", t.Loc)
		}
		b.WriteByte('\n')
	}
	_, err = r.stdout.Write(b.Bytes())
	return err
}

func (r *runner) checkAction(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("usage: rip check [-j jobs] <file.rip>...")
	}
	jobs := int(cmd.Int("jobs"))
	if jobs < 1 {
		jobs = 1
	}
	results := r.check(files, jobs, useColor(cmd.Bool("no-color"), r.stderr))

	failed := 0
	for _, res := range results {
		if res.failed {
			failed++
			r.stderr.Write(res.output)
		}
	}
	fmt.Fprintf(r.stderr, "%d files, %d ok, %d failed\n", len(files), len(files)-failed, failed)
	if failed > 0 {
		return errFailed
	}
	return nil
}

type checkResult struct {
	output []byte
	failed bool
}

// check tokenizes files with a pool of jobs workers. Results come back in
// the order of files.
func (r *runner) check(files []string, jobs int, color bool) []checkResult {
	results := make([]checkResult, len(files))
	work := make(chan int, len(files))
	for i := range files {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = r.checkFile(files[i], color)
			}
		}()
	}
	wg.Wait()
	return results
}

func (r *runner) checkFile(path string, color bool) checkResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return checkResult{failed: true, output: []byte(fmt.Sprintf("error: reading %s: %v\n", path, err))}
	}
	src := string(data)
	_, err = r.session.Tokenize(src, lexer.Options{Filename: path})
	if err == nil {
		return checkResult{}
	}
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return checkResult{failed: true, output: []byte(lexer.FormatError(lexErr, src, color))}
	}
	return checkResult{failed: true, output: []byte(fmt.Sprintf("error: %s: %v\n", path, err))}
}

// useColor reports whether diagnostics written to w get ANSI colours:
// never with --no-color or NO_COLOR, and only when w is a terminal.
func useColor(noColor bool, w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
