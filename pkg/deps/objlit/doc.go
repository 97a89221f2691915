// Package objlit parses a restricted, literal-only subset of JavaScript
// object notation without executing anything.
//
// # Grammar
//
// Accepted values:
//
//   - objects with identifier, string or number keys, trailing commas allowed
//   - arrays
//   - single-, double- and backtick-quoted strings (a template with ${...}
//     placeholders is not a literal and is kept as an [Expr])
//   - numbers, kept verbatim as json.Number so "1.10" is not mangled
//   - true, false, null and undefined
//   - line and block comments anywhere whitespace is allowed
//
// Anything else in a value position (identifiers, calls, functions,
// operators) is captured as an opaque [Expr] holding its source text. The
// text is skipped with bracket matching and is never evaluated. Spread
// elements, computed keys and method shorthand inside objects are skipped
// the same way.
//
// # Usage
//
//	v, err := objlit.Parse(`{versions: {react: "18.2.0"}, base: "//cdn"}`)
//	obj := v.(*objlit.Object)
//	versions, _ := obj.Object("versions")
//
// [FindKey] locates every "key: value" or "key = value" occurrence in
// arbitrary source text and parses the value, which is how embedded
// configuration objects are pulled out of bundled scripts.
package objlit
