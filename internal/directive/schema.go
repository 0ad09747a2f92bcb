package directive

// ArgShape describes what an argument list parses into: the item
// transformer applied to each positional argument.
type ArgShape int

const (
	ShapeNone           ArgShape = iota
	ShapeIdentifier              // bare name
	ShapeVarOrSubscript          // name or name[expr]
	ShapeConstExpr               // must evaluate without names or calls
	ShapeGeneralExpr             // any single expression
	ShapeStatement               // a statement block
	ShapeRawToken                // passed through verbatim
	ShapeKindPair                // "kind[,chunk]" pairs (schedule-style)
)

// ClauseSchema describes one clause permitted on one or more directives.
type ClauseSchema struct {
	Name       string
	Required   bool
	Repeatable bool
	Ultimate   bool // must be the last clause if present
	ArgShape   ArgShape
	MultiArg   bool // clause supports ';'-separated argument groups
	ParenFree  bool // clause may appear without its parenthesized group (e.g. a bare `ordered`)
}

// ClauseGroup expresses a required/exclusive relationship between clause
// names on a single directive.
type ClauseGroup struct {
	Clauses   []string
	Required  bool
	Exclusive bool
}

// DirectiveSchema is the declarative description of one directive name.
type DirectiveSchema struct {
	Name     string
	Prefix   bool     // composable, e.g. "declare" before "reduction"
	Suffixes []string // directives that may follow this one in a chain
	Clauses  map[string]*ClauseSchema
	Groups   []ClauseGroup
}

// ModifierSchema describes a standard modifier recognized inside clause
// argument lists.
type ModifierSchema struct {
	Name       string
	Values     []string // enumerated legal values, empty = unconstrained
	Required   bool
	Repeatable bool
	Ultimate   bool
	ArgShape   ArgShape
}

// Registry is the directive/clause/modifier catalog consulted by the
// parser and the validator.
type Registry struct {
	Directives map[string]*DirectiveSchema
	Modifiers  map[string]*ModifierSchema
}

func clause(name string, shape ArgShape, opts ...func(*ClauseSchema)) *ClauseSchema {
	c := &ClauseSchema{Name: name, ArgShape: shape}
	for _, o := range opts {
		o(c)
	}
	return c
}

func required(c *ClauseSchema)   { c.Required = true }
func repeatable(c *ClauseSchema) { c.Repeatable = true }
func ultimate(c *ClauseSchema)   { c.Ultimate = true }
func multiArg(c *ClauseSchema)   { c.MultiArg = true }
func parenFree(c *ClauseSchema)  { c.ParenFree = true }

func clauseMap(cs ...*ClauseSchema) map[string]*ClauseSchema {
	m := make(map[string]*ClauseSchema, len(cs))
	for _, c := range cs {
		m[c.Name] = c
	}
	return m
}

// NewRegistry builds the standard directive/clause/modifier catalog of
// recognized OpenMP constructs.
func NewRegistry() *Registry {
	dataSharing := []*ClauseSchema{
		clause("default", ShapeIdentifier),
		clause("shared", ShapeVarOrSubscript, repeatable, multiArg),
		clause("private", ShapeVarOrSubscript, repeatable, multiArg),
		clause("firstprivate", ShapeVarOrSubscript, repeatable, multiArg),
		clause("reduction", ShapeGeneralExpr, repeatable, multiArg),
	}

	reg := &Registry{
		Directives: map[string]*DirectiveSchema{},
		Modifiers:  map[string]*ModifierSchema{},
	}

	add := func(d *DirectiveSchema) { reg.Directives[d.Name] = d }

	add(&DirectiveSchema{
		Name: "parallel",
		Clauses: clauseMap(append(dataSharing,
			clause("if", ShapeGeneralExpr),
			clause("num_threads", ShapeKindPair),
			clause("copyin", ShapeVarOrSubscript, repeatable, multiArg),
			clause("proc_bind", ShapeIdentifier),
			clause("message", ShapeGeneralExpr),
			clause("severity", ShapeIdentifier),
			clause("safesync", ShapeNone),
		)...),
	})

	add(&DirectiveSchema{
		Name: "teams",
		Clauses: clauseMap(append(dataSharing,
			clause("num_teams", ShapeKindPair),
			clause("thread_limit", ShapeGeneralExpr),
		)...),
		Suffixes: []string{"distribute"},
	})

	add(&DirectiveSchema{
		Name: "distribute",
		Clauses: clauseMap(
			clause("private", ShapeVarOrSubscript, repeatable, multiArg),
			clause("firstprivate", ShapeVarOrSubscript, repeatable, multiArg),
			clause("collapse", ShapeConstExpr),
			clause("dist_schedule", ShapeKindPair),
		),
	})

	forClauses := clauseMap(
		clause("schedule", ShapeKindPair),
		clause("collapse", ShapeConstExpr),
		clause("ordered", ShapeConstExpr, parenFree),
		clause("nowait", ShapeNone),
		clause("private", ShapeVarOrSubscript, repeatable, multiArg),
		clause("firstprivate", ShapeVarOrSubscript, repeatable, multiArg),
		clause("lastprivate", ShapeVarOrSubscript, repeatable, multiArg),
		clause("reduction", ShapeGeneralExpr, repeatable, multiArg),
		clause("order", ShapeIdentifier),
	)
	add(&DirectiveSchema{Name: "for", Clauses: forClauses})
	add(&DirectiveSchema{
		Name: "parallel for",
		Clauses: mergeClauses(forClauses, clauseMap(append(dataSharing,
			clause("if", ShapeGeneralExpr),
			clause("num_threads", ShapeKindPair),
			clause("proc_bind", ShapeIdentifier),
		)...)),
	})

	add(&DirectiveSchema{
		Name: "sections",
		Clauses: clauseMap(append(dataSharing,
			clause("nowait", ShapeNone),
		)...),
	})
	add(&DirectiveSchema{Name: "section", Clauses: clauseMap()})

	add(&DirectiveSchema{
		Name: "single",
		Clauses: clauseMap(
			clause("private", ShapeVarOrSubscript, repeatable, multiArg),
			clause("firstprivate", ShapeVarOrSubscript, repeatable, multiArg),
			clause("copyprivate", ShapeVarOrSubscript, repeatable, multiArg),
			clause("nowait", ShapeNone),
			clause("allocate", ShapeVarOrSubscript, repeatable, multiArg),
		),
	})

	add(&DirectiveSchema{
		Name: "task",
		Clauses: clauseMap(
			clause("if", ShapeGeneralExpr),
			clause("untied", ShapeNone),
			clause("default", ShapeIdentifier),
			clause("private", ShapeVarOrSubscript, repeatable, multiArg),
			clause("shared", ShapeVarOrSubscript, repeatable, multiArg),
			clause("firstprivate", ShapeVarOrSubscript, repeatable, multiArg),
		),
	})
	add(&DirectiveSchema{Name: "taskwait", Clauses: clauseMap()})
	add(&DirectiveSchema{Name: "barrier", Clauses: clauseMap()})
	add(&DirectiveSchema{Name: "critical", Clauses: clauseMap(clause("name", ShapeIdentifier))})
	add(&DirectiveSchema{Name: "atomic", Clauses: clauseMap(clause("kind", ShapeIdentifier))})
	add(&DirectiveSchema{Name: "master", Clauses: clauseMap()})
	add(&DirectiveSchema{
		Name: "ordered",
		Clauses: clauseMap(
			clause("threads", ShapeNone),
			clause("simd", ShapeNone),
		),
	})
	add(&DirectiveSchema{
		Name: "threadprivate",
		Clauses: clauseMap(
			clause("vars", ShapeVarOrSubscript, required, repeatable, multiArg),
		),
	})
	add(&DirectiveSchema{
		Name:     "declare",
		Prefix:   true,
		Suffixes: []string{"reduction"},
		Clauses:  clauseMap(),
	})
	add(&DirectiveSchema{
		Name: "reduction",
		Clauses: clauseMap(
			clause("identifier", ShapeIdentifier, required),
			clause("combiner", ShapeStatement, required),
			clause("initializer", ShapeStatement),
		),
	})
	add(&DirectiveSchema{
		Name: "scan",
		Clauses: clauseMap(
			clause("inclusive", ShapeVarOrSubscript, repeatable, multiArg),
			clause("exclusive", ShapeVarOrSubscript, repeatable, multiArg),
		),
		Groups: []ClauseGroup{{Clauses: []string{"inclusive", "exclusive"}, Required: true, Exclusive: true}},
	})

	reg.Modifiers["reduction-identifier"] = &ModifierSchema{Name: "reduction-identifier", ArgShape: ShapeIdentifier}
	reg.Modifiers["mapper-identifier"] = &ModifierSchema{Name: "mapper-identifier", ArgShape: ShapeIdentifier}
	reg.Modifiers["storage"] = &ModifierSchema{Name: "storage", Values: []string{"from", "to", "always", "close", "present"}}
	reg.Modifiers["order"] = &ModifierSchema{Name: "order", Values: []string{"reproducible", "unconstrained"}}
	reg.Modifiers["iterator"] = &ModifierSchema{Name: "iterator", ArgShape: ShapeGeneralExpr}
	reg.Modifiers["saved"] = &ModifierSchema{Name: "saved", ArgShape: ShapeIdentifier}
	reg.Modifiers["lower-bound"] = &ModifierSchema{Name: "lower-bound", ArgShape: ShapeConstExpr}
	reg.Modifiers["monotonic"] = &ModifierSchema{Name: "monotonic", Values: []string{"monotonic", "nonmonotonic"}}

	return reg
}

func mergeClauses(base, extra map[string]*ClauseSchema) map[string]*ClauseSchema {
	out := make(map[string]*ClauseSchema, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Lookup returns the schema for a directive name, or nil if unknown.
func (r *Registry) Lookup(name string) *DirectiveSchema {
	return r.Directives[name]
}

// IsSuffixOf reports whether suffix is a registered continuation of
// prefix's composed-directive chain ("every directive in a
// composed chain must be a registered suffix of its prefix").
func (r *Registry) IsSuffixOf(prefix, suffix string) bool {
	d := r.Lookup(prefix)
	if d == nil {
		return false
	}
	for _, s := range d.Suffixes {
		if s == suffix {
			return true
		}
	}
	return false
}
