package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Wei is an amount in the platform's smallest currency unit. It serialises
// as a decimal string so no precision is lost in JSON.
type Wei struct {
	v *big.Int
}

// NewWei wraps a small integer amount.
func NewWei(n int64) Wei {
	return Wei{v: big.NewInt(n)}
}

// ParseWei parses a non-negative base-10 amount.
func ParseWei(s string) (Wei, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Wei{}, fmt.Errorf("invalid amount %q", s)
	}
	if n.Sign() < 0 {
		return Wei{}, fmt.Errorf("negative amount %q", s)
	}
	return Wei{v: n}, nil
}

// BigInt returns a copy of the underlying integer.
func (w Wei) BigInt() *big.Int {
	if w.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(w.v)
}

// Add returns w + o without mutating either operand.
func (w Wei) Add(o Wei) Wei {
	return Wei{v: new(big.Int).Add(w.BigInt(), o.BigInt())}
}

// Cmp compares w and o like big.Int.Cmp.
func (w Wei) Cmp(o Wei) int {
	return w.BigInt().Cmp(o.BigInt())
}

// IsZero reports whether the amount is zero.
func (w Wei) IsZero() bool {
	return w.v == nil || w.v.Sign() == 0
}

func (w Wei) String() string {
	return w.BigInt().String()
}

func (w Wei) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number.
func (w *Wei) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*w = Wei{}
		return nil
	}
	parsed, err := ParseWei(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
