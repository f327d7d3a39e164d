package rules

// defaultCatalog is built once at init; catalog construction failures are
// programming errors.
var defaultCatalog = MustCatalog(defaultRules, defaultBindings)

// Default returns the catalog of mypy strictness rules typetight manages.
func Default() *Catalog {
	return defaultCatalog
}

// defaultRules is the full rule set, in canonical serialization order.
// Baseline rules come first: they are non-negotiable, and a codebase that
// violates them cannot be tightened at all.
var defaultRules = []Rule{
	{
		Name:        NoImplicitOptional,
		Baseline:    true,
		Description: "Arguments with a None default require an explicit Optional type.",
	},
	{
		Name:        StrictOptional,
		Baseline:    true,
		Description: "None is not a member of every type; optionality must be declared.",
	},
	{
		Name:        WarnRedundantCasts,
		Baseline:    true,
		Description: "Casts that do not change the expression type are errors.",
	},
	{
		Name:        CheckUntypedDefs,
		PerModule:   true,
		Description: "Type-check the bodies of functions without annotations.",
	},
	{
		Name:        DisallowUntypedCalls,
		PerModule:   true,
		Description: "Calling an unannotated function from typed code is an error.",
	},
	{
		Name:        DisallowUntypedDefs,
		PerModule:   true,
		Description: "Functions must have type annotations.",
	},
	{
		Name:        DisallowIncompleteDefs,
		Requires:    []string{DisallowUntypedDefs},
		PerModule:   true,
		Description: "Partially annotated functions are errors.",
	},
	{
		Name:        DisallowUntypedDecorators,
		PerModule:   true,
		Description: "Decorating a typed function with an untyped decorator is an error.",
	},
	{
		Name:        WarnUnusedIgnores,
		Description: "'type: ignore' comments that suppress nothing are errors. Global-only: the checker reports these only once all other checks pass.",
	},
}

// defaultBindings attributes checker errors to rules. Bindings for a code are
// listed most-selective first; note that the no-untyped-def substrings overlap.
var defaultBindings = []Binding{
	{Code: "misc", Message: "Untyped decorator", Rule: DisallowUntypedDecorators},
	{Code: "misc", Message: "", Rule: CheckUntypedDefs},
	{Code: "no-untyped-def", Message: "Function is missing a type annotation for one or more arguments", Rule: DisallowIncompleteDefs},
	{Code: "no-untyped-def", Message: "Function is missing a type annotation", Rule: DisallowUntypedDefs},
	{Code: "no-untyped-def", Message: "", Rule: DisallowIncompleteDefs},
	{Code: "no-untyped-call", Message: "", Rule: DisallowUntypedCalls},
	{Code: "", Message: "unused 'type: ignore' comment", Rule: WarnUnusedIgnores},
	{Code: "unused-ignore", Message: "", Rule: WarnUnusedIgnores},
	{Code: "redundant-cast", Message: "", Rule: WarnRedundantCasts},
	{Code: "assignment", Message: "Incompatible default for argument", Rule: NoImplicitOptional},
}
