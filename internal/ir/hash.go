package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future change of encoding.
const (
	DomainSource      = "elabql/source/v1"
	DomainCore        = "elabql/core/v1"
	DomainElaboration = "elabql/elaboration/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SourceHash identifies a query by its source text.
func SourceHash(source string) string {
	return hashWithDomain(DomainSource, []byte(source))
}

// ElaborationID identifies the elaboration of one source within a run.
// Recording the same source twice in a run yields the same ID.
func ElaborationID(runID, sourceHash string) string {
	data := make([]byte, 0, len(runID)+1+len(sourceHash))
	data = append(data, runID...)
	data = append(data, 0x00)
	data = append(data, sourceHash...)
	return hashWithDomain(DomainElaboration, data)
}

// ExprHash identifies a core expression by its canonical encoding.
// Structurally equal expressions always hash the same.
func ExprHash(e Expr) (string, error) {
	canonical, err := MarshalCanonical(Encode(e))
	if err != nil {
		return "", fmt.Errorf("ExprHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCore, canonical), nil
}

// MustExprHash is like ExprHash but panics on error.
// Use only in tests.
func MustExprHash(e Expr) string {
	h, err := ExprHash(e)
	if err != nil {
		panic(err)
	}
	return h
}
