// Package lang implements the statement language of template control lines.
//
// Each statement occupies one line and is classified by [Parse]:
//
//	for x in EXPR          for k, v in EXPR        while EXPR
//	if EXPR                elif EXPR               else            end
//	let NAME = EXPR        NAME = EXPR             NAME += EXPR
//	def NAME(a, b)         return [EXPR]           break           continue
//	# comment              EXPR
//
// Expressions are expr-lang source. A [Cache] compiles each distinct
// expression once and evaluates it against a flat environment built from a
// [Scope] chain over [Builtins]. Hyphenated data keys such as max-size,
// which expr-lang would read as subtraction, are patched into member access
// when the key is known.
//
// Iteration and truthiness follow [Iterate] and [Truthy].
package lang
