package qlast

import "github.com/kr/pretty"

// Dump renders a node and its children for developer diagnostics.
func Dump(n Node) string {
	return pretty.Sprint(n)
}
