package scrub

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raaihank/logscrub/internal/identity"
	"github.com/raaihank/logscrub/internal/logger"
	"github.com/raaihank/logscrub/internal/report"
)

// TempFilePrefix prefixes every temp output file written beside a source log.
const TempFilePrefix = "anon-"

const (
	initialLineBuffer = 64 * 1024
	maxLineBytes      = 4 * 1024 * 1024
)

// Options tunes pipeline behavior.
type Options struct {
	// LinesPerSecond throttles line processing when positive, for runs
	// against live log directories. Zero disables throttling.
	LinesPerSecond int
}

// Pipeline rewrites a batch of log files for one user. Compilation happens
// once in New; a compile failure means no file is ever opened.
type Pipeline struct {
	rewriter *Rewriter
	sink     report.Appender
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// FileResult describes one fully processed file. Temp holds the exact path of
// the rewritten copy, for the replace step.
type FileResult struct {
	Source  string
	Temp    string
	Lines   int
	Matched int
}

// New resolves the user's placeholder mapping and compiles the rule list.
func New(user identity.User, rules []Rule, sink report.Appender, opts Options, log *logger.Logger) (*Pipeline, error) {
	mapping, err := user.Resolve()
	if err != nil {
		return nil, err
	}

	compiled, err := Compile(rules, mapping)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if opts.LinesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.LinesPerSecond), opts.LinesPerSecond)
	}

	log.Info("Scrub pipeline ready",
		zap.Int("rules", len(compiled)),
		zap.Int("lines_per_second", opts.LinesPerSecond),
	)

	return &Pipeline{
		rewriter: NewRewriter(compiled, mapping, user.Pseudonym, log),
		sink:     sink,
		limiter:  limiter,
		logger:   log,
	}, nil
}

// Process rewrites every file in order, stopping at the first failure. Files
// finished before a failure keep their temp copies; the failing file's temp
// output is left behind for the caller to discard.
func (p *Pipeline) Process(ctx context.Context, files []string) ([]FileResult, error) {
	results := make([]FileResult, 0, len(files))
	for _, file := range files {
		start := time.Now()
		result, err := p.processFile(ctx, file)
		if err != nil {
			return results, &FileError{Path: file, Err: err}
		}
		results = append(results, result)
		p.logger.Info("Completed scanning log file",
			zap.String("file", file),
			zap.Int("lines", result.Lines),
			zap.Int("matched_lines", result.Matched),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return results, nil
}

func (p *Pipeline) processFile(ctx context.Context, path string) (FileResult, error) {
	result := FileResult{Source: path}

	p.sink.AppendSectionStart(path)
	p.logger.Debug("Reading log file", zap.String("file", path))

	in, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(path), TempFilePrefix+"*-"+filepath.Base(path))
	if err != nil {
		return result, fmt.Errorf("failed to create temp output: %w", err)
	}
	result.Temp = out.Name()

	lines, matched, err := p.scan(ctx, path, in, out)
	if err != nil {
		out.Close()
		return result, err
	}
	if err := out.Close(); err != nil {
		return result, fmt.Errorf("failed to close temp output: %w", err)
	}

	result.Lines = lines
	result.Matched = matched
	p.sink.AppendSectionEnd(path)
	return result, nil
}

// scan streams every line of in through the rewriter into out, returning the
// line count and the number of lines with at least one rule match.
func (p *Pipeline) scan(ctx context.Context, path string, in io.Reader, out io.Writer) (int, int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineBytes)
	writer := bufio.NewWriter(out)

	lineNumber := 0
	matchedLines := 0
	for scanner.Scan() {
		lineNumber++
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return lineNumber, matchedLines, err
			}
		}

		rewritten, matched, entries, err := p.rewriter.RewriteLine(path, lineNumber, scanner.Text())
		if err != nil {
			return lineNumber, matchedLines, err
		}
		if matched {
			matchedLines++
			for _, entry := range entries {
				p.sink.Append(entry)
			}
		}

		// Every output line ends with exactly one newline, whatever the
		// source line ending was.
		if _, err := writer.WriteString(rewritten); err != nil {
			return lineNumber, matchedLines, fmt.Errorf("failed to write temp output: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return lineNumber, matchedLines, fmt.Errorf("failed to write temp output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return lineNumber, matchedLines, fmt.Errorf("failed to read source: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return lineNumber, matchedLines, fmt.Errorf("failed to flush temp output: %w", err)
	}
	return lineNumber, matchedLines, nil
}

// ReplaceOriginal moves a completed temp copy over its source file. Temp files
// are created in the source's directory, so the rename is atomic.
func ReplaceOriginal(result FileResult) error {
	if err := os.Rename(result.Temp, result.Source); err != nil {
		return fmt.Errorf("failed to replace %s: %w", result.Source, err)
	}
	return nil
}
