package scrub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raaihank/logscrub/internal/identity"
	"github.com/raaihank/logscrub/internal/logger"
	"github.com/raaihank/logscrub/internal/report"
)

func testUser() identity.User {
	return identity.User{
		Username:        "jdoe",
		TenantDomain:    "example.com",
		TenantID:        42,
		UserstoreDomain: "PRIMARY",
		Pseudonym:       "ANON-7f3a",
	}
}

func testRules() []Rule {
	return []Rule{
		{Key: "bare-username", DetectPattern: `${username}`, ReplacePattern: `${username}`},
		{Key: "session-flag", DetectPattern: `session=\w+`, ReplacePattern: ""},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

// tempFilesIn lists files in dir carrying the temp prefix.
func tempFilesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	var temps []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), TempFilePrefix) {
			temps = append(temps, filepath.Join(dir, entry.Name()))
		}
	}
	return temps
}

func TestPipelineProcess(t *testing.T) {
	log := logger.Nop()

	t.Run("RewritesFile", func(t *testing.T) {
		dir := t.TempDir()
		src := writeFile(t, dir, "server.log",
			"User jdoe logged in from 10.0.0.1\n"+
				"nothing interesting\n"+
				"session=abc123 opened\n")
		sink := report.NewBufferAppender()

		p, err := New(testUser(), testRules(), sink, Options{}, log)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		results, err := p.Process(context.Background(), []string{src})
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("Expected 1 result, got %d", len(results))
		}

		result := results[0]
		if result.Lines != 3 {
			t.Errorf("Expected 3 lines, got %d", result.Lines)
		}
		if result.Matched != 2 {
			t.Errorf("Expected 2 matched lines, got %d", result.Matched)
		}
		if filepath.Dir(result.Temp) != dir {
			t.Errorf("Temp file not beside source: %s", result.Temp)
		}
		if !strings.HasPrefix(filepath.Base(result.Temp), TempFilePrefix) {
			t.Errorf("Temp file missing prefix: %s", result.Temp)
		}
		if !strings.HasSuffix(result.Temp, "server.log") {
			t.Errorf("Temp file missing source name: %s", result.Temp)
		}

		data, err := os.ReadFile(result.Temp)
		if err != nil {
			t.Fatalf("Failed to read temp output: %v", err)
		}
		want := "User ANON-7f3a logged in from 10.0.0.1\n" +
			"nothing interesting\n" +
			"session=abc123 opened\n"
		if string(data) != want {
			t.Errorf("Unexpected output:\n%q\nwant:\n%q", data, want)
		}

		// Source untouched; the replace step is external.
		orig, _ := os.ReadFile(src)
		if !strings.Contains(string(orig), "jdoe") {
			t.Error("Source file was modified")
		}

		entries := sink.Entries()
		if len(entries) != 2 {
			t.Fatalf("Expected 2 report entries, got %d", len(entries))
		}
		if entries[0].Line != 1 || !entries[0].Substituted {
			t.Errorf("Entry 0: expected (line=1, substituted=true), got %+v", entries[0])
		}
		if entries[1].Line != 3 || entries[1].Substituted {
			t.Errorf("Entry 1: expected (line=3, substituted=false), got %+v", entries[1])
		}

		sections := sink.Sections()
		if len(sections) != 2 || sections[0] != "start:"+src || sections[1] != "end:"+src {
			t.Errorf("Unexpected section markers: %v", sections)
		}
	})

	t.Run("LineCountAndOrderPreserved", func(t *testing.T) {
		dir := t.TempDir()
		lines := []string{"a jdoe", "b", "c jdoe jdoe", "d", ""}
		src := writeFile(t, dir, "ordered.log", strings.Join(lines, "\n")+"\n")
		sink := report.NewBufferAppender()

		p, err := New(testUser(), testRules(), sink, Options{}, log)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		results, err := p.Process(context.Background(), []string{src})
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		data, _ := os.ReadFile(results[0].Temp)
		got := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
		if len(got) != len(lines) {
			t.Fatalf("Line count changed: %d -> %d", len(lines), len(got))
		}
		if got[1] != "b" || got[3] != "d" || got[4] != "" {
			t.Errorf("Untouched lines moved or changed: %v", got)
		}
		if got[0] != "a ANON-7f3a" || got[2] != "c ANON-7f3a ANON-7f3a" {
			t.Errorf("Rewritten lines wrong: %v", got)
		}
	})

	t.Run("NormalizesMissingTrailingNewline", func(t *testing.T) {
		dir := t.TempDir()
		src := writeFile(t, dir, "noeol.log", "first\nlast without newline")
		sink := report.NewBufferAppender()

		p, err := New(testUser(), testRules(), sink, Options{}, log)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		results, err := p.Process(context.Background(), []string{src})
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		data, _ := os.ReadFile(results[0].Temp)
		if string(data) != "first\nlast without newline\n" {
			t.Errorf("Expected trailing newline normalization, got %q", data)
		}
	})

	t.Run("MultipleFilesInOrder", func(t *testing.T) {
		dir := t.TempDir()
		src1 := writeFile(t, dir, "one.log", "jdoe\n")
		src2 := writeFile(t, dir, "two.log", "jdoe\n")
		sink := report.NewBufferAppender()

		p, err := New(testUser(), testRules(), sink, Options{}, log)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		results, err := p.Process(context.Background(), []string{src1, src2})
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(results) != 2 || results[0].Source != src1 || results[1].Source != src2 {
			t.Errorf("Results out of order: %+v", results)
		}

		sections := sink.Sections()
		want := []string{"start:" + src1, "end:" + src1, "start:" + src2, "end:" + src2}
		if len(sections) != len(want) {
			t.Fatalf("Expected %d section markers, got %d", len(want), len(sections))
		}
		for i := range want {
			if sections[i] != want[i] {
				t.Errorf("Section %d: expected %s, got %s", i, want[i], sections[i])
			}
		}
	})

	t.Run("CompileFailureBeforeAnyFile", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "untouched.log", "jdoe\n")
		rules := []Rule{{Key: "broken", DetectPattern: `(${username}`, ReplacePattern: ""}}

		_, err := New(testUser(), rules, report.NewBufferAppender(), Options{}, log)
		if !errors.Is(err, ErrInvalidPattern) {
			t.Fatalf("Expected ErrInvalidPattern, got %v", err)
		}
		if temps := tempFilesIn(t, dir); len(temps) != 0 {
			t.Errorf("Compile failure must not create temp files, found %v", temps)
		}
	})

	t.Run("InvalidIdentityBeforeAnyFile", func(t *testing.T) {
		user := testUser()
		user.Pseudonym = ""
		_, err := New(user, testRules(), report.NewBufferAppender(), Options{}, log)
		if !errors.Is(err, identity.ErrInvalidIdentity) {
			t.Fatalf("Expected ErrInvalidIdentity, got %v", err)
		}
	})

	t.Run("MissingFileStopsProcessing", func(t *testing.T) {
		dir := t.TempDir()
		src := writeFile(t, dir, "good.log", "jdoe\n")
		missing := filepath.Join(dir, "missing.log")
		after := writeFile(t, dir, "after.log", "jdoe\n")
		sink := report.NewBufferAppender()

		p, err := New(testUser(), testRules(), sink, Options{}, log)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		results, err := p.Process(context.Background(), []string{src, missing, after})
		if err == nil {
			t.Fatal("Expected error for missing file")
		}
		var fileErr *FileError
		if !errors.As(err, &fileErr) {
			t.Fatalf("Expected FileError, got %T: %v", err, err)
		}
		if fileErr.Path != missing {
			t.Errorf("FileError names %s, expected %s", fileErr.Path, missing)
		}
		// The completed file keeps its rewritten copy; the file after
		// the failure was never opened.
		if len(results) != 1 || results[0].Source != src {
			t.Errorf("Expected one completed result for %s, got %+v", src, results)
		}
		if _, err := os.Stat(results[0].Temp); err != nil {
			t.Errorf("Completed temp file missing: %v", err)
		}
		for _, temp := range tempFilesIn(t, dir) {
			if strings.HasSuffix(temp, "after.log") {
				t.Errorf("File after the failure was processed: %s", temp)
			}
		}
	})

	t.Run("Throttled", func(t *testing.T) {
		dir := t.TempDir()
		src := writeFile(t, dir, "slow.log", "jdoe\njdoe\n")
		p, err := New(testUser(), testRules(), report.NewBufferAppender(), Options{LinesPerSecond: 1000}, log)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, err := p.Process(context.Background(), []string{src}); err != nil {
			t.Fatalf("Throttled process failed: %v", err)
		}
	})
}

func TestReplaceOriginal(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "server.log", "jdoe logged in\n")

	p, err := New(testUser(), testRules(), report.NewBufferAppender(), Options{}, logger.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	results, err := p.Process(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if err := ReplaceOriginal(results[0]); err != nil {
		t.Fatalf("ReplaceOriginal failed: %v", err)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("Failed to read replaced file: %v", err)
	}
	if string(data) != "ANON-7f3a logged in\n" {
		t.Errorf("Replaced content wrong: %q", data)
	}
	if _, err := os.Stat(results[0].Temp); !os.IsNotExist(err) {
		t.Errorf("Temp file still present after replace: %v", err)
	}
	if temps := tempFilesIn(t, dir); len(temps) != 0 {
		t.Errorf("Leftover temp files: %v", temps)
	}
}
