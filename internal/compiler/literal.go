package compiler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// elaborateInteger applies the sign before range checking, so the smallest
// int64 is representable.
func elaborateInteger(c *qlast.IntegerConstant) (ir.Expr, error) {
	text := numericText(c.Value)
	if c.IsNegative {
		text = "-" + text
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, queryError(ErrIntegerOutOfRange, c.Ctx(), "integer literal %s is out of range", text)
		}
		return nil, queryError(ErrInvalidNumericLiteral, c.Ctx(), "invalid integer literal %q", c.Value)
	}
	return ir.IntVal{Val: n}, nil
}

func elaborateFloat(c *qlast.FloatConstant) (ir.Expr, error) {
	f, err := strconv.ParseFloat(numericText(c.Value), 64)
	if err != nil {
		return nil, queryError(ErrInvalidNumericLiteral, c.Ctx(), "invalid float literal %q", c.Value)
	}
	if c.IsNegative {
		f = -f
	}
	return ir.FloatVal{Val: f}, nil
}

func elaborateDecimal(c *qlast.DecimalConstant) (ir.Expr, error) {
	d, _, err := apd.NewFromString(numericText(strings.TrimSuffix(c.Value, "n")))
	if err != nil {
		return nil, queryError(ErrInvalidNumericLiteral, c.Ctx(), "invalid decimal literal %q", c.Value)
	}
	if c.IsNegative {
		d.Neg(d)
	}
	return ir.DecimalVal{Val: d}, nil
}

func elaborateBigint(c *qlast.BigintConstant) (ir.Expr, error) {
	b, ok := new(apd.BigInt).SetString(numericText(strings.TrimSuffix(c.Value, "n")), 10)
	if !ok {
		return nil, queryError(ErrInvalidNumericLiteral, c.Ctx(), "invalid bigint literal %q", c.Value)
	}
	if c.IsNegative {
		b.Neg(b)
	}
	return ir.BigIntVal{Val: b}, nil
}

// numericText drops digit separators (`1_000`).
func numericText(s string) string {
	return strings.ReplaceAll(s, "_", "")
}
