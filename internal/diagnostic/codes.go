// Package diagnostic implements the diagnostic gateway — the single
// funnel every assignability-family check routes through — plus the
// closed set of TSnnnn codes the engine emits.
package diagnostic

// Code is one of the TSnnnn codes this engine emits.
type Code string

const (
	// Assignability family.
	TS2322 Code = "TS2322" // Type X is not assignable to type Y.
	TS2345 Code = "TS2345" // Argument of type X is not assignable to parameter of type Y.
	TS2353 Code = "TS2353" // Object literal may only specify known properties.
	TS2416 Code = "TS2416" // Property X in type A is not assignable to the same property in base type B.
	TS2403 Code = "TS2403" // Subsequent variable declarations must have the same type.
	TS2559 Code = "TS2559" // Type X has no properties in common with type Y.
	TS2740 Code = "TS2740" // Type X is missing the following properties from type Y.

	// Resolution family.
	TS2304 Code = "TS2304" // Cannot find name X.
	TS2339 Code = "TS2339" // Property X does not exist on type Y.
	TS2693 Code = "TS2693" // X only refers to a type, but is being used as a value here.

	// Call family.
	TS2554 Code = "TS2554" // Expected N arguments, but got M.

	// Operator family.
	TS2362 Code = "TS2362" // Left-hand side of an arithmetic operation is not a valid operand.
	TS2363 Code = "TS2363" // Right-hand side of an arithmetic operation is not a valid operand.

	// Iterator family.
	TS2488 Code = "TS2488" // Type must have a '[Symbol.iterator]()' method that returns an iterator.
	TS2504 Code = "TS2504" // Type must have a '[Symbol.asyncIterator]()' method.

	// Strictness family.
	TS2454  Code = "TS2454"  // Variable X is used before being assigned.
	TS18048 Code = "TS18048" // X is possibly undefined.
	TS2448  Code = "TS2448"  // Block-scoped variable X used before its declaration.
	TS2449  Code = "TS2449"  // Class X used before its declaration.
	TS2450  Code = "TS2450"  // Enum X used before its declaration.

	// Complexity and recursion.
	TS2589 Code = "TS2589" // Type instantiation is excessively deep and possibly infinite.
	TS2506 Code = "TS2506" // Class X is referenced directly or indirectly in its own base expression.
)

// Severity mirrors the reference compiler's diagnostic categories.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeveritySuggestion
)

// registryEntry is a code's fixed message template and default severity.
type registryEntry struct {
	severity Severity
	template string
}

var registry = map[Code]registryEntry{
	TS2322:  {SeverityError, "Type '%s' is not assignable to type '%s'."},
	TS2345:  {SeverityError, "Argument of type '%s' is not assignable to parameter of type '%s'."},
	TS2353:  {SeverityError, "Object literal may only specify known properties, and '%s' does not exist in type '%s'."},
	TS2416:  {SeverityError, "Property '%s' in type '%s' is not assignable to the same property in base type '%s'."},
	TS2403:  {SeverityError, "Subsequent variable declarations must have the same type. Variable must be of type '%s', but here has type '%s'."},
	TS2559:  {SeverityError, "Type '%s' has no properties in common with type '%s'."},
	TS2740:  {SeverityError, "Type '%s' is missing the following properties from type '%s': %s."},
	TS2304:  {SeverityError, "Cannot find name '%s'."},
	TS2339:  {SeverityError, "Property '%s' does not exist on type '%s'."},
	TS2693:  {SeverityError, "'%s' only refers to a type, but is being used as a value here."},
	TS2554:  {SeverityError, "Expected %d arguments, but got %d."},
	TS2362:  {SeverityError, "The left-hand side of an arithmetic operation must be of type 'any', 'number', 'bigint' or an enum type."},
	TS2363:  {SeverityError, "The right-hand side of an arithmetic operation must be of type 'any', 'number', 'bigint' or an enum type."},
	TS2488:  {SeverityError, "Type '%s' must have a '[Symbol.iterator]()' method that returns an iterator."},
	TS2504:  {SeverityError, "Type '%s' must have a '[Symbol.asyncIterator]()' method that returns an async iterator."},
	TS2454:  {SeverityError, "Variable '%s' is used before being assigned."},
	TS18048: {SeverityError, "'%s' is possibly 'undefined'."},
	TS2448:  {SeverityError, "Block-scoped variable '%s' used before its declaration."},
	TS2449:  {SeverityError, "Class '%s' used before its declaration."},
	TS2450:  {SeverityError, "Enum '%s' used before its declaration."},
	TS2589:  {SeverityError, "Type instantiation is excessively deep and possibly infinite."},
	TS2506:  {SeverityError, "'%s' is referenced directly or indirectly in its own base expression."},
}

// Template returns a code's default message format string, for codes
// that need one beyond what the reason tree already derived.
func Template(code Code) string {
	return registry[code].template
}

// DefaultSeverity returns a code's severity absent any override.
func DefaultSeverity(code Code) Severity {
	return registry[code].severity
}
