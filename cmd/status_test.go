package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"pgregory.net/rapid"

	"github.com/worklens/worklens/internal/store"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

func TestStatusEmptyDay(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	out, err := executeCommand(rootCmd, "status")
	if err != nil {
		t.Fatalf("status command error: %v", err)
	}
	if !strings.Contains(out, "No activity recorded today.") {
		t.Errorf("expected empty-day message, got:\n%s", out)
	}
}

func TestStatusCountsAccuracy(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		analyzed := rapid.IntRange(0, 10).Draw(rt, "analyzed")
		pending := rapid.IntRange(0, 10).Draw(rt, "pending")
		if analyzed+pending == 0 {
			return
		}

		tmp := t.TempDir()
		t.Setenv("HOME", tmp)

		// Seed the database at the path the command will open.
		seeded, err := store.Open(tmp + "/.local/share/worklens/worklens.db")
		if err != nil {
			rt.Fatalf("Open: %v", err)
		}
		now := time.Now()
		for i := 0; i < analyzed; i++ {
			id, err := seeded.CreateRecord(now, "Code", "main.go", "")
			if err != nil {
				rt.Fatalf("CreateRecord: %v", err)
			}
			if err := seeded.MarkAnalyzed(id, "coding", "work", 80); err != nil {
				rt.Fatalf("MarkAnalyzed: %v", err)
			}
		}
		for i := 0; i < pending; i++ {
			if _, err := seeded.CreateRecord(now, "Chrome", "docs", ""); err != nil {
				rt.Fatalf("CreateRecord: %v", err)
			}
		}
		seeded.Close()

		out, err := executeCommand(rootCmd, "status")
		if err != nil {
			rt.Fatalf("status command error: %v", err)
		}
		want := fmt.Sprintf("(%d analyzed, %d pending)", analyzed, pending)
		if !strings.Contains(out, want) {
			rt.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	})
}
