// Package queryir provides a storage plan for the plannable subset of the
// core IR.
//
// The plan is the boundary between elaborated queries and a relational
// backend:
//
//	[core IR] → Lower → [Select plan] → querysql → [SQLite SQL]
//
// PLANNABLE SUBSET:
//
// Lower accepts the shapes the elaborator produces for simple reads over a
// single object type:
//
//   - A free variable naming the object type, optionally shaped with fields
//     that each read one property of the subject
//   - filter_order over it, where the filter is a comparison of a property
//     with a literal or a free variable, combined with and / or
//   - An order tuple of (key, ()) / ((), key) pairs over properties
//   - offset_limit with integer literals
//   - with-bindings of literals or type names, substituted before planning
//
// Anything else is reported with ErrNotPlannable. The plan never changes
// query semantics: a query either lowers exactly or not at all.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case BoundCompare:
//	case And:
//	case Or:
//	default:
//	    // unreachable
//	}
//
// Literal values use ir.IRValue (strings, integers, booleans only), so
// plans have a canonical encoding and deterministic parameters.
package queryir
