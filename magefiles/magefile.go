//go:build mage

// Package main contains Mage build targets for pubrank developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "pubrank"
	cmdPkg  = "./cmd/pubrank"
)

// sampleConfig is written by Init when no pubrank.yaml exists.
const sampleConfig = `http:
  timeout: 30s
  user_agent: pubrank/0.1
  rate: 1
  burst: 1
  max_retries: 3
catalog:
  core_url: http://portal.core.edu.au/conf-ranks/
  scimago_url: https://www.scimagojr.com/
  lookup_timeout: 3s
cache:
  enabled: true
  backend: json
  dir: cache
  unknown_ttl: 720h
normalize:
  fold: true
  strip_colon: true
  ampersand: remove
patch: patch.json
output:
  yaml: false
  table: true
`

// samplePatch maps DBLP venue spellings to the ones the catalogs use.
const samplePatch = `[
  {"source": "sigmod conference", "query": "sigmod"},
  {"source": "vldb", "query": "pvldb"}
]
`

// Init writes a sample pubrank.yaml and patch.json into the working
// directory and creates the cache directory. Existing files are kept.
func Init() error {
	if err := os.MkdirAll("cache", 0o755); err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	for name, content := range map[string]string{"pubrank.yaml": sampleConfig, "patch.json": samplePatch} {
		if _, err := os.Stat(name); err == nil {
			fmt.Println("   kept", name)
			continue
		}
		if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Println("  ", name)
	}
	fmt.Println("Project initialized.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the git version.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests. The SQLite store needs cgo.
func Test() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", "test", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check vets, tests and builds.
func Check() {
	mg.SerialDeps(Vet, Test, Build)
}

// Clean removes the build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints project metrics: Go production and test lines.
func Stats() error {
	prodLines, testLines, err := countGoLines(".")
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines counts non-blank lines in Go files under root, split into
// production and _test.go files. Directories starting with "_" or "." are
// skipped, as the go tool does.
func countGoLines(root string) (prod, test int, err error) {
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				n++
			}
		}
		if strings.HasSuffix(path, "_test.go") {
			test += n
		} else {
			prod += n
		}
		return nil
	})
	return prod, test, err
}
