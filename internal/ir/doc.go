// Package ir defines the core intermediate representation produced by the
// elaborator.
//
// Core expressions are a closed sum type (Expr) built from value structs.
// Variables use de Bruijn indices: BoundVarExpr{Index: 1} refers to the
// nearest enclosing BindingExpr. Names are turned into indices only through
// AbstractOver and substituted back through Instantiate.
//
// This package imports nothing internal. Every other internal package may
// import ir.
//
// Key design constraints:
//   - Expr values are immutable; every rewrite returns a new tree
//   - ShapeExpr and ObjectExpr keep fields in source order
//   - The reserved HeadName never appears free in an elaborated query
//   - Canonical encoding (Encode, MarshalCanonical) is the only input to ExprHash
package ir
