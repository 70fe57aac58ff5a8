package qlast

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Context is the source location of a node.
// The zero value means "unknown".
type Context struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// IsValid reports whether the context points at a real position.
func (c Context) IsValid() bool {
	return c.Line > 0
}

func (c Context) String() string {
	if !c.IsValid() {
		return "-"
	}
	if c.Filename == "" {
		return fmt.Sprintf("%d:%d", c.Line, c.Column)
	}
	return fmt.Sprintf("%s:%d:%d", c.Filename, c.Line, c.Column)
}

// ContextFromPos converts a CUE position into a Context.
func ContextFromPos(pos token.Pos) Context {
	if !pos.IsValid() {
		return Context{}
	}
	return Context{
		Filename: pos.Filename(),
		Line:     pos.Line(),
		Column:   pos.Column(),
		Offset:   pos.Offset(),
	}
}

// Loc is embedded in every node to carry its Context.
type Loc struct {
	Context Context `json:"context"`
}

// Ctx returns the node's source location.
func (l Loc) Ctx() Context { return l.Context }
