package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/elabql/internal/ir"
)

// marshalCore converts a core expression to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalCore(e ir.Expr) (string, error) {
	data, err := ir.MarshalCanonical(ir.Encode(e))
	if err != nil {
		return "", fmt.Errorf("marshal core: %w", err)
	}
	return string(data), nil
}

// deriveCore fills the stored forms of el.Core. A record without Core keeps
// whatever derived fields the caller set.
func deriveCore(el *Elaboration) error {
	if el.Core == nil {
		return nil
	}
	coreJSON, err := marshalCore(el.Core)
	if err != nil {
		return err
	}
	hash, err := ir.ExprHash(el.Core)
	if err != nil {
		return fmt.Errorf("hash core: %w", err)
	}
	el.CoreJSON = coreJSON
	el.CoreText = ir.Format(el.Core)
	el.CoreHash = hash
	return nil
}

// DecodeCore parses a stored core JSON document into generic JSON values.
// Numbers decode as json.Number so that 64-bit integers survive.
func DecodeCore(data string) (any, error) {
	if data == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unmarshal core: %w", err)
	}
	return v, nil
}
