package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "# symdex:start"
	sentinelEnd   = "# symdex:end"
)

// newInitCmd implements `symdex init`, which writes (or updates) a block in
// a .gitignore file listing the artifacts extractors leave behind.
func newInitCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init [path-to-.gitignore]",
		Short: "Add symdex artifacts to a .gitignore file",
		Long: `Write the names of the extractor log artifacts (and the snapshot database,
if configured) to a .gitignore file. The block is wrapped in sentinel
comments so it can be updated in place on subsequent runs without touching
surrounding content. Creates the file if it does not exist.

path-to-.gitignore defaults to ./.gitignore.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			var artifacts []string
			for _, e := range reg.Entries() {
				artifacts = append(artifacts, e.LogName)
			}
			if a.cfg.Database != "" {
				artifacts = append(artifacts, a.cfg.Database)
			}
			section := generateSection(artifacts)

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(a.stdout, section)
				return nil
			}

			path := ".gitignore"
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(a.stderr, "wrote symdex section to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped ignore block. Artifacts are
// left unanchored so they match in any analyzed subdirectory.
func generateSection(artifacts []string) string {
	seen := make(map[string]bool, len(artifacts))
	var lines []string
	for _, name := range artifacts {
		name = strings.TrimPrefix(name, "./")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		lines = append(lines, name)
	}
	sort.Strings(lines)

	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	b.WriteString("# Symbol logs written by symdex extractors; regenerated on every analyze.\n")
	for _, name := range lines {
		b.WriteString(name + "\n")
	}
	b.WriteString(sentinelEnd)
	return b.String()
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
