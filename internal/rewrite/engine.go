// Package rewrite is the source-to-source engine: it scans Go source
// for `//ompgo:` directive markers, dispatches each to a registered
// processor, and publishes the transformed output through a
// go build -overlay mapping — or, via Release, as a permanent tagged
// sibling file.
package rewrite

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ompgo/ompgo/internal/directive"
	"github.com/ompgo/ompgo/internal/symtab"
)

// Overlay is the go build -overlay JSON format.
type Overlay struct {
	Replace map[string]string `json:"Replace"`
}

// Engine scans a module tree for `//ompgo:` markers, rewrites the
// files that carry them, and produces an overlay mapping.
type Engine struct {
	Root     string
	CacheDir string
	Alias    string
	Overlay  Overlay

	Registry   *directive.Registry
	Reductions *ReductionTable
	Log        *logrus.Entry
}

// NewEngine returns an engine rooted at root, with the standard
// directive registry and reduction table and a logger writing to stderr
// at logrus's default Info level, which the caller can replace (cmd/ompgo
// wires its own).
func NewEngine(root string) *Engine {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	return &Engine{
		Root:       root,
		CacheDir:   filepath.Join(root, ".ompgo_cache"),
		Alias:      "ompgo",
		Overlay:    Overlay{Replace: make(map[string]string)},
		Registry:   directive.NewRegistry(),
		Reductions: NewReductionTable(),
		Log:        log.WithField("component", "rewrite"),
	}
}

// Run executes the full pipeline: scan, parse, rewrite, write overlay.
func (e *Engine) Run() error {
	if err := os.MkdirAll(e.CacheDir, 0o755); err != nil {
		return fmt.Errorf("ompgo: create cache dir: %w", err)
	}

	err := filepath.Walk(e.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			base := info.Name()
			if path != e.Root && (strings.HasPrefix(base, ".") || base == "vendor" || base == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") || strings.HasSuffix(path, "_ompgo.go") {
			return nil
		}
		return e.processFile(path)
	})
	if err != nil {
		return err
	}
	return e.writeOverlay()
}

// processFile scans path for markers; if none are found it is left
// alone. Otherwise its AST is rewritten, reprinted, line-resynced, and
// written to a content-hashed shadow file registered in the overlay.
func (e *Engine) processFile(path string) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("ompgo: parse %s: %w", path, err)
	}

	markers := e.collectMarkers(f, fset, path)
	if len(markers) == 0 {
		return nil
	}
	e.Log.WithField("file", path).WithField("markers", len(markers)).Debug("rewriting")

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("ompgo: abs %s: %w", path, err)
	}
	origLines, err := readLines(absPath)
	if err != nil {
		return fmt.Errorf("ompgo: read original %s: %w", path, err)
	}

	if _, err := e.rewriteFile(f, fset, path, markers); err != nil {
		return fmt.Errorf("ompgo: rewrite %s: %w", path, err)
	}
	ensureRuntimeImport(fset, f)
	dropRuntimeImportIfUnused(fset, f)

	f.Comments = nil

	var buf strings.Builder
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, fset, f); err != nil {
		return fmt.Errorf("ompgo: print shadow for %s: %w", path, err)
	}

	shadowContent := injectLineDirectives(buf.String(), origLines, absPath)

	hash := contentHash(shadowContent)
	base := strings.TrimSuffix(filepath.Base(path), ".go")
	shadowName := fmt.Sprintf("%s_%s.go", base, hash[:12])
	shadowPath := filepath.Join(e.CacheDir, shadowName)

	if err := os.WriteFile(shadowPath, []byte(shadowContent), 0o644); err != nil {
		return fmt.Errorf("ompgo: write shadow %s: %w", shadowPath, err)
	}

	e.Overlay.Replace[absPath] = shadowPath
	return nil
}

// markerInfo associates a parsed directive with the comment and
// position it was found at.
type markerInfo struct {
	Directive *directive.Directive
	Pos       token.Pos
	Comment   *ast.Comment
}

// collectMarkers walks f's comment groups for lines beginning
// "//<alias>:" and parses each against e.Registry.
func (e *Engine) collectMarkers(f *ast.File, fset *token.FileSet, path string) []markerInfo {
	prefix := "//" + e.Alias + ":"
	var out []markerInfo
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, prefix) {
				continue
			}
			raw := strings.TrimSpace(strings.TrimPrefix(c.Text, prefix))
			pos := fset.Position(c.Pos())
			d, err := directive.ParseDirective(e.Registry, raw, path, pos.Line, pos.Column)
			if err != nil {
				e.Log.WithError(err).WithField("file", path).WithField("line", pos.Line).Warn("skipping unparsable marker")
				continue
			}
			out = append(out, markerInfo{Directive: d, Pos: c.Pos(), Comment: c})
		}
	}
	return out
}

// rewriteFile dispatches every marker in f to its processor, returning
// whether any marker was dispatched to a processor. Whether the runtime
// import is needed is decided separately, by referencesRuntime.
func (e *Engine) rewriteFile(f *ast.File, fset *token.FileSet, path string, markers []markerInfo) (bool, error) {
	byPos := make(map[token.Pos]*markerInfo, len(markers))
	for i := range markers {
		byPos[markers[i].Pos] = &markers[i]
	}

	scope := symtab.NewTable(path)
	ctx := &Context{Fset: fset, Filename: path, Alias: e.Alias, Scope: scope, Worker: RTCall("CurrentImplicit"), Reductions: e.Reductions}

	used := false
	var rewriteErr error

	// liftedBlocks marks *ast.BlockStmt bodies this pass itself created
	// (a region's lifted FuncLit body): every descendant of such a
	// block resolves its worker expression to that FuncLit's own
	// parameter instead of ctx's current (outer) Worker expression.
	liftedBlocks := map[*ast.BlockStmt]ast.Expr{}

	type frame struct{ worker ast.Expr }
	stack := []frame{{worker: ctx.Worker}}

	// decl-level markers (directive comment immediately above a
	// FuncDecl, the "decorator on a function").
	e.dispatchDeclMarkers(f, fset, byPos, ctx, &used, &rewriteErr)

	ast.Inspect(f, func(n ast.Node) bool {
		if rewriteErr != nil {
			return false
		}
		if n == nil {
			stack = stack[:len(stack)-1]
			ctx.Stack = ctx.Stack[:len(ctx.Stack)-1]
			return true
		}
		// Maintained so a processor can walk outward for its enclosing
		// FuncDecl/FuncLit (node-context stack invariant:
		// "stack[-1] is the statement or expression being rewritten").
		ctx.Stack = append(ctx.Stack, n)
		cur := stack[len(stack)-1].worker
		if bs, ok := n.(*ast.BlockStmt); ok {
			if w, tagged := liftedBlocks[bs]; tagged {
				cur = w
			}
			ctx.Worker = cur
			newList, u, err := e.processStmtList(ctx, bs.List, bs.Lbrace, fset, byPos, liftedBlocks)
			if err != nil {
				rewriteErr = err
				return false
			}
			bs.List = newList
			used = used || u
		}
		stack = append(stack, frame{worker: cur})
		return true
	})
	return used, rewriteErr
}

// dispatchDeclMarkers handles markers positioned directly above a
// top-level FuncDecl rather than above a statement inside one — the
// decorator position, used by directives with no governed block such
// as `declare reduction` or `threadprivate`.
func (e *Engine) dispatchDeclMarkers(f *ast.File, fset *token.FileSet, byPos map[token.Pos]*markerInfo, ctx *Context, used *bool, rewriteErr *error) {
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		for pos, mi := range byPos {
			if pos >= fn.Pos() {
				continue
			}
			if fset.Position(pos).Line != fset.Position(fn.Pos()).Line-1 {
				continue
			}
			proc, ok := lookup(mi.Directive)
			if !ok {
				continue
			}
			pop := ctx.Push(fn)
			_, err := proc(ctx, mi.Directive, nil, fn)
			pop()
			if err != nil {
				*rewriteErr = err
				return
			}
			*used = true
			delete(byPos, pos)
		}
	}
}

// processStmtList associates each marker with the statement
// immediately following it and dispatches to that directive's
// processor, replacing the statement with the processor's output.
func (e *Engine) processStmtList(ctx *Context, stmts []ast.Stmt, startPos token.Pos, fset *token.FileSet, byPos map[token.Pos]*markerInfo, liftedBlocks map[*ast.BlockStmt]ast.Expr) ([]ast.Stmt, bool, error) {
	var out []ast.Stmt
	used := false
	for i, stmt := range stmts {
		var prevEnd token.Pos
		if i > 0 {
			prevEnd = stmts[i-1].End()
		} else {
			prevEnd = startPos
		}

		var pending *markerInfo
		for pos, mi := range byPos {
			if pos > prevEnd && pos < stmt.Pos() {
				pending = mi
				delete(byPos, pos)
				break // one marker per governed statement
			}
		}

		if pending != nil {
			proc, ok := lookup(pending.Directive)
			if !ok {
				return nil, used, fmt.Errorf("%s: no processor registered for directive %q", ctx.Filename, pending.Directive.Name())
			}
			pop := ctx.Push(stmt)
			replacement, err := proc(ctx, pending.Directive, stmt, nil)
			pop()
			if err != nil {
				return nil, used, err
			}
			recordLiftedBlocks(replacement, liftedBlocks)
			out = append(out, replacement...)
			used = true
			continue
		}
		out = append(out, stmt)
	}
	return out, used, nil
}

// recordLiftedBlocks walks a processor's replacement statements for
// FuncLit bodies it constructed, tagging each with the worker
// identifier bound as that FuncLit's own parameter, so the engine's
// main traversal threads the right Worker expression into markers
// nested inside it.
func recordLiftedBlocks(stmts []ast.Stmt, liftedBlocks map[*ast.BlockStmt]ast.Expr) {
	for _, s := range stmts {
		ast.Inspect(s, func(n ast.Node) bool {
			fl, ok := n.(*ast.FuncLit)
			if !ok {
				return true
			}
			if len(fl.Type.Params.List) == 1 && len(fl.Type.Params.List[0].Names) == 1 {
				liftedBlocks[fl.Body] = Ident(fl.Type.Params.List[0].Names[0].Name)
			}
			return true
		})
	}
}

func (e *Engine) writeOverlay() error {
	if len(e.Overlay.Replace) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(e.Overlay, "", "  ")
	if err != nil {
		return fmt.Errorf("ompgo: marshal overlay: %w", err)
	}
	path := filepath.Join(e.CacheDir, "overlay.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ompgo: write overlay.json: %w", err)
	}
	e.Log.WithField("path", path).WithField("files", len(e.Overlay.Replace)).Info("overlay written")
	return nil
}

func contentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// injectLineDirectives re-syncs generated line numbers back to the
// original source: walk shadow and original lines in lockstep, emit a
// `//line` directive once they diverge, and resync at the next match.
func injectLineDirectives(shadow string, origLines []string, absPath string) string {
	shadowLines := strings.Split(shadow, "\n")

	origIdx := 0
	var result []string
	needsLineDirective := false

	for _, sLine := range shadowLines {
		trimmed := strings.TrimSpace(sLine)

		if origIdx < len(origLines) {
			origTrimmed := strings.TrimSpace(origLines[origIdx])

			if trimmed == origTrimmed {
				if needsLineDirective {
					result = append(result, fmt.Sprintf("//line %s:%d", absPath, origIdx+1))
					needsLineDirective = false
				}
				result = append(result, sLine)
				origIdx++
				continue
			}

			if isMarkerComment(origTrimmed) {
				origIdx++
				if origIdx < len(origLines) {
					origTrimmed = strings.TrimSpace(origLines[origIdx])
					if trimmed == origTrimmed {
						if needsLineDirective {
							result = append(result, fmt.Sprintf("//line %s:%d", absPath, origIdx+1))
							needsLineDirective = false
						}
						result = append(result, sLine)
						origIdx++
						continue
					}
				}
			}
		}

		result = append(result, sLine)
		needsLineDirective = true
	}

	return strings.Join(result, "\n")
}

func isMarkerComment(line string) bool {
	s := strings.TrimSpace(line)
	return strings.HasPrefix(s, "//ompgo:")
}
