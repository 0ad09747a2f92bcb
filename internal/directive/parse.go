package directive

import "fmt"

// Clause is one parsed clause attached to a directive, e.g. `private(x,
// y)` or `reduction(+: sum)`.
type Clause struct {
	Name string
	Args *Args
	Pos  Pos
}

// Directive is the fully-parsed result of one "//ompgo:" marker: a chain
// of one or more directive names (a "prefix" directive such as "declare"
// composed with a registered suffix such as "reduction") plus the
// clauses attached to the chain's terminal name.
type Directive struct {
	Raw     string
	Names   []string // e.g. ["declare", "reduction"] for a composed chain
	Clauses []Clause
	Pos     Pos
}

// Name returns the space-joined canonical directive name, e.g.
// "declare reduction".
func (d *Directive) Name() string {
	out := d.Names[0]
	for _, n := range d.Names[1:] {
		out += " " + n
	}
	return out
}

// Clause looks up the first clause with the given name, or nil.
func (d *Directive) Clause(name string) *Clause {
	for i := range d.Clauses {
		if d.Clauses[i].Name == name {
			return &d.Clauses[i]
		}
	}
	return nil
}

// ParseDirective tokenizes and validates raw against reg, returning the
// parsed directive or a *SyntaxError / *MissingRequiredError describing
// the first violation encountered.
func ParseDirective(reg *Registry, raw string, filename string, line, col int) (*Directive, error) {
	toks, err := Tokenize(raw, line, col)
	if err != nil {
		return nil, wrapSyntax(err, filename, raw, line, col)
	}
	if len(toks) == 0 {
		return nil, &SyntaxError{Filename: filename, Line: line, Col: col, SourceLine: raw, Message: "empty directive"}
	}

	names, rest, err := parseNameChain(reg, toks)
	if err != nil {
		return nil, wrapSyntax(err, filename, raw, line, col)
	}

	joined := names[0]
	for _, n := range names[1:] {
		joined += " " + n
	}
	// A multi-word chain like "parallel for" is registered under its
	// joined form; a prefix/suffix chain like "declare reduction" is
	// registered under its terminal suffix name instead.
	schema := reg.Lookup(joined)
	if schema == nil {
		schema = reg.Lookup(names[len(names)-1])
	}
	if schema == nil {
		return nil, &SyntaxError{
			Filename: filename, Line: line, Col: col, SourceLine: raw,
			Message: fmt.Sprintf("unrecognized directive %q", names[len(names)-1]),
		}
	}

	clauses, err := parseClauses(schema, rest)
	if err != nil {
		return nil, wrapSyntax(err, filename, raw, line, col)
	}

	if err := validateClauses(schema, clauses); err != nil {
		return nil, wrapSyntax(err, filename, raw, line, col)
	}

	return &Directive{
		Raw:     raw,
		Names:   names,
		Clauses: clauses,
		Pos:     Pos{Line: line, Col: col},
	}, nil
}

func wrapSyntax(err error, filename, raw string, line, col int) error {
	locate := func(se *SyntaxError) {
		if se.Filename == "" && se.Line == 0 {
			se.Filename, se.Line, se.Col, se.SourceLine = filename, line, col, raw
		}
	}
	if se, ok := err.(*SyntaxError); ok {
		locate(se)
		return se
	}
	if mre, ok := err.(*MissingRequiredError); ok {
		locate(mre.SyntaxError)
		return mre
	}
	return &SyntaxError{Filename: filename, Line: line, Col: col, SourceLine: raw, Message: err.Error()}
}

// parseNameChain consumes the leading run of TokName tokens that make up
// a (possibly composed) directive name, honoring the registry's
// Prefix/Suffixes relationship ("every directive in a
// composed chain must be a registered suffix of its prefix").
func parseNameChain(reg *Registry, toks []Token) ([]string, []Token, error) {
	if toks[0].Kind != TokName {
		return nil, nil, fmt.Errorf("expected a directive name, got %q", toks[0].Text)
	}

	// A two-word base name such as "parallel for" is registered under
	// its joined form; try that before falling back to a single-word
	// (possibly prefix-chained) name.
	if len(toks) >= 2 && toks[0].Kind == TokName && toks[1].Kind == TokName {
		joined := toks[0].Text + " " + toks[1].Text
		if reg.Lookup(joined) != nil {
			return []string{toks[0].Text, toks[1].Text}, toks[2:], nil
		}
	}

	name := toks[0].Text
	d := reg.Lookup(name)
	if d == nil {
		return nil, nil, fmt.Errorf("unrecognized directive %q", name)
	}
	names := []string{name}
	rest := toks[1:]

	for d.Prefix && len(rest) > 0 && rest[0].Kind == TokName {
		next := rest[0].Text
		if !reg.IsSuffixOf(name, next) {
			break
		}
		names = append(names, next)
		d = reg.Lookup(next)
		rest = rest[1:]
		name = next
	}

	return names, rest, nil
}

// parseClauses consumes the remaining tokens as a sequence of
// clause-name-plus-optional-args pairs.
func parseClauses(schema *DirectiveSchema, toks []Token) ([]Clause, error) {
	var clauses []Clause
	for len(toks) > 0 {
		if toks[0].Kind != TokName {
			return nil, fmt.Errorf("expected a clause name, got %q", toks[0].Text)
		}
		name := toks[0].Text
		cs, ok := schema.Clauses[name]
		if !ok {
			return nil, fmt.Errorf("%q is not a valid clause of %q (expected one of: %v)", name, schema.Name, clauseNames(schema))
		}
		pos := toks[0].Pos
		rest := toks[1:]

		parenRequired := cs.ArgShape != ShapeNone && !cs.ParenFree
		args, rest, err := ParseArgs(rest, parenRequired, cs.MultiArg, cs.ArgShape)
		if err != nil {
			return nil, fmt.Errorf("clause %q: %w", name, err)
		}

		clauses = append(clauses, Clause{Name: name, Args: args, Pos: pos})
		toks = rest

		if len(toks) > 0 && toks[0].Text == "," {
			toks = toks[1:]
		}
	}
	return clauses, nil
}

func clauseNames(schema *DirectiveSchema) []string {
	var out []string
	for n := range schema.Clauses {
		out = append(out, n)
	}
	return out
}

// validateClauses applies the structural rules: required
// clauses/groups present, exclusive groups not jointly satisfied, at
// most one occurrence of a non-repeatable clause, and an Ultimate
// clause (if present) occurring last.
func validateClauses(schema *DirectiveSchema, clauses []Clause) error {
	counts := map[string]int{}
	for _, c := range clauses {
		counts[c.Name]++
		cs := schema.Clauses[c.Name]
		if cs != nil && !cs.Repeatable && counts[c.Name] > 1 {
			return &SyntaxError{Message: fmt.Sprintf("clause %q may not repeat", c.Name)}
		}
	}

	for _, cs := range schema.Clauses {
		if cs.Required && counts[cs.Name] == 0 {
			return &MissingRequiredError{
				SyntaxError:  &SyntaxError{Message: fmt.Sprintf("missing required clause %q", cs.Name)},
				Alternatives: []string{cs.Name},
			}
		}
	}

	for _, g := range schema.Groups {
		present := 0
		for _, name := range g.Clauses {
			if counts[name] > 0 {
				present++
			}
		}
		if g.Required && present == 0 {
			return &MissingRequiredError{
				SyntaxError:  &SyntaxError{Message: "missing a required clause"},
				Alternatives: g.Clauses,
			}
		}
		if g.Exclusive && present > 1 {
			return &SyntaxError{Message: fmt.Sprintf("clauses %v are mutually exclusive", g.Clauses)}
		}
	}

	for i, c := range clauses {
		cs := schema.Clauses[c.Name]
		if cs != nil && cs.Ultimate && i != len(clauses)-1 {
			return &SyntaxError{Message: fmt.Sprintf("clause %q must be the last clause", c.Name)}
		}
	}

	return nil
}
