package rewrite_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ompgo/ompgo/internal/rewrite"
)

const parallelSource = `package main

import "fmt"

func run() {
	//ompgo: parallel num_threads(2)
	{
		fmt.Println("hello")
	}
}
`

// TestRelease verifies that Release writes shadow files alongside
// originals with the correct build tags and generated-code header.
func TestRelease(t *testing.T) {
	dir := setupDir(t, map[string]string{"main.go": parallelSource})

	if err := rewrite.Release(dir); err != nil {
		t.Fatal(err)
	}

	releasePath := filepath.Join(dir, "main_ompgo.go")
	releaseContent, err := os.ReadFile(releasePath)
	if err != nil {
		t.Fatalf("released file not found: %v", err)
	}
	rc := string(releaseContent)

	if !strings.HasPrefix(rc, "// Code generated by ompgo. DO NOT EDIT.") {
		t.Error("released file missing generated-code header")
	}
	if !strings.Contains(rc, "//go:build ompgo") {
		t.Error("released file missing //go:build ompgo tag")
	}
	if !strings.Contains(rc, ".RunTeam(2, func(w *ompgort.Worker)") {
		t.Error("released file missing transformed region")
	}

	origContent, err := os.ReadFile(filepath.Join(dir, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(origContent), "//go:build !ompgo") {
		t.Error("original file missing //go:build !ompgo exclude tag")
	}
}

// TestRelease_Idempotent confirms releasing twice doesn't stack exclude
// tags on the original.
func TestRelease_Idempotent(t *testing.T) {
	dir := setupDir(t, map[string]string{"main.go": parallelSource})

	if err := rewrite.Release(dir); err != nil {
		t.Fatal(err)
	}
	if err := rewrite.Release(dir); err != nil {
		t.Fatal(err)
	}

	origContent, err := os.ReadFile(filepath.Join(dir, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(origContent), "//go:build !ompgo") != 1 {
		t.Errorf("exclude tag stacked:\n%s", origContent)
	}
}

// TestReleaseClean verifies the released sibling is removed and the
// original untagged.
func TestReleaseClean(t *testing.T) {
	dir := setupDir(t, map[string]string{"main.go": parallelSource})

	if err := rewrite.Release(dir); err != nil {
		t.Fatal(err)
	}
	if err := rewrite.ReleaseClean(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "main_ompgo.go")); !os.IsNotExist(err) {
		t.Error("released file should be removed")
	}
	origContent, err := os.ReadFile(filepath.Join(dir, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(origContent), "//go:build !ompgo") {
		t.Error("exclude tag should be stripped from the original")
	}
	if string(origContent) != parallelSource {
		t.Errorf("original not restored byte-for-byte:\n%s", origContent)
	}
}
