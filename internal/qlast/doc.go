// Package qlast declares the surface syntax tree handed to the elaborator.
//
// The tree is produced by a front end (the text parser in internal/qlparse,
// or a kind-tagged document decoded with Decode) and is never mutated after
// construction. Every node carries a Context used only for diagnostics.
//
// SEALED INTERFACES:
//
// Node, TypeExpr and the alias declarations are sealed with unexported marker
// methods. Only types in this package implement them, which lets the
// elaborator switch exhaustively over node kinds:
//
//	switch n := node.(type) {
//	case *Path:
//	    // ...
//	case *SelectQuery:
//	    // ...
//	default:
//	    // unsupported construct
//	}
//
// Optional children are nil when absent. Lists are nil or empty when absent;
// the elaborator treats both the same way.
package qlast
