package directive

import (
	"fmt"
	"regexp"
)

// Modifier is one modifier item inside a clause's argument list
// ("Parsed item tree").
type Modifier struct {
	Name  string
	Value string
	Pos   Pos
}

// ArgItem is one positional argument item after modifiers have been
// stripped off.
type ArgItem struct {
	Text string
	Pos  Pos
}

// Args is the fully-parsed parenthesized argument group of a clause,
// following the grammar: `Args{lpar, [Modifier-item],
// [Arg-item], rpar, next?}`.
type Args struct {
	HasParens bool
	Modifiers []Modifier
	Items     []ArgItem
	Next      *Args // present for ';'-separated multiple-arg clauses
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseArgs consumes the optional parenthesized group following a clause
// name. required indicates the clause mandates a
// parenthesized group (e.g. "num_threads" always takes one; "nowait"
// never does).
func ParseArgs(toks []Token, required bool, multiArg bool, shape ArgShape) (*Args, []Token, error) {
	if len(toks) == 0 || toks[0].Text != "(" {
		if required {
			return nil, toks, fmt.Errorf("expected `(`")
		}
		return &Args{}, toks, nil
	}

	depth := 0
	end := -1
	for i, t := range toks {
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, toks, &UnbalancedError{Bracket: "(", Opened: true, Pos: toks[0].Pos}
	}

	inner := toks[1:end]
	rest := toks[end+1:]

	groups := splitTopLevelGroups(inner, multiArg)

	var head *Args
	var tail *Args
	for _, g := range groups {
		a, err := parseOneGroup(g, shape)
		if err != nil {
			return nil, toks, err
		}
		a.HasParens = true
		if head == nil {
			head = a
			tail = a
		} else {
			tail.Next = a
			tail = a
		}
	}
	if head == nil {
		head = &Args{HasParens: true}
	}
	return head, rest, nil
}

// splitTopLevelGroups splits on top-level ';' when multiArg is set,
// otherwise returns the whole token slice as a single group.
func splitTopLevelGroups(toks []Token, multiArg bool) [][]Token {
	if !multiArg {
		return [][]Token{toks}
	}
	var groups [][]Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ";":
			if depth == 0 {
				groups = append(groups, toks[start:i])
				start = i + 1
			}
		}
	}
	groups = append(groups, toks[start:])
	return groups
}

// parseOneGroup parses a single (possibly modifier-prefixed) comma-
// separated argument group into an *Args with Modifiers/Items split at
// the first top-level ':'.
func parseOneGroup(toks []Token, shape ArgShape) (*Args, error) {
	colonIdx := -1
	depth := 0
	for i, t := range toks {
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ":":
			if depth == 0 && colonIdx < 0 {
				colonIdx = i
			}
		}
	}

	var modToks, argToks []Token
	if colonIdx >= 0 {
		modToks = toks[:colonIdx]
		argToks = toks[colonIdx+1:]
	} else {
		argToks = toks
	}

	a := &Args{}

	for _, part := range splitTopLevelCommas(modToks) {
		if len(part) == 0 {
			continue
		}
		a.Modifiers = append(a.Modifiers, Modifier{
			Name: part[0].Text,
			Value: func() string {
				if len(part) > 1 {
					return Untokenize(part[1:])
				}
				return ""
			}(),
			Pos: part[0].Pos,
		})
	}

	items, err := parseItems(splitTopLevelCommas(argToks), shape)
	if err != nil {
		return nil, err
	}
	a.Items = items
	return a, nil
}

// splitTopLevelCommas splits a token slice on ',' at nesting depth 0.
func splitTopLevelCommas(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				groups = append(groups, toks[start:i])
				start = i + 1
			}
		}
	}
	groups = append(groups, toks[start:])
	return groups
}

// parseItems transforms each comma-separated token run into an ArgItem,
// applying the shape-specific constraint. A parse failure after the
// first successfully-parsed expression indicates a stray separator
// ("a parse failure after the first successful expression
// means a stray separator and fails with 'expected )'").
func parseItems(groups [][]Token, shape ArgShape) ([]ArgItem, error) {
	var items []ArgItem
	for gi, g := range groups {
		if len(g) == 0 {
			continue
		}
		text := Untokenize(g)
		if err := validateShape(g, text, shape); err != nil {
			if gi > 0 {
				return nil, fmt.Errorf("expected `)`: %w", err)
			}
			return nil, err
		}
		items = append(items, ArgItem{Text: text, Pos: g[0].Pos})
	}
	return items, nil
}

func validateShape(toks []Token, text string, shape ArgShape) error {
	switch shape {
	case ShapeIdentifier:
		if len(toks) != 1 || toks[0].Kind != TokName || !identRe.MatchString(toks[0].Text) {
			return fmt.Errorf("%q is not a valid identifier", text)
		}
	case ShapeVarOrSubscript:
		if len(toks) == 1 {
			if toks[0].Kind != TokName || !identRe.MatchString(toks[0].Text) {
				return fmt.Errorf("%q is not a valid variable", text)
			}
			return nil
		}
		if len(toks) >= 4 && toks[0].Kind == TokName && toks[1].Text == "[" && toks[len(toks)-1].Text == "]" {
			return nil
		}
		return fmt.Errorf("%q is not a variable or single-level subscript", text)
	case ShapeConstExpr:
		for _, t := range toks {
			if t.Kind == TokName && !isConstKeyword(t.Text) {
				return fmt.Errorf("%q is not a constant-evaluable expression (contains name %q)", text, t.Text)
			}
		}
	case ShapeGeneralExpr, ShapeStatement, ShapeRawToken, ShapeKindPair, ShapeNone:
		// No further structural constraint beyond having parsed as a
		// balanced, comma-free token run (already guaranteed by the
		// caller's splitting).
	}
	return nil
}

func isConstKeyword(name string) bool {
	switch name {
	case "true", "false", "nil", "iota":
		return true
	}
	return false
}
