package payment

import (
    "fmt"
    "math/big"
    "strings"

    "github.com/ethereum/go-ethereum/common"
    "github.com/ethereum/go-ethereum/params"
)

// ParseWei parses a wei amount from the numeric string forms the indexer
// emits: plain decimal or 0x-prefixed hex.  Negative amounts are rejected.
func ParseWei(s string) (*big.Int, error) {
    s = strings.TrimSpace(s)
    base := 10
    if rest, ok := strings.CutPrefix(s, "0x"); ok {
        s, base = rest, 16
    }
    n, ok := new(big.Int).SetString(s, base)
    if !ok || n.Sign() < 0 {
        return nil, fmt.Errorf("invalid wei amount %q", s)
    }
    return n, nil
}

// WeiToEther converts a wei amount to ether as an exact rational.  Keeping
// the value rational defers all rounding to the comparison site, which
// performs none.
func WeiToEther(wei *big.Int) *big.Rat {
    return new(big.Rat).SetFrac(wei, big.NewInt(params.Ether))
}

// AmountMatchesWei reports whether a wei amount equals an expected ether
// amount given as a decimal string.  Both sides are compared as exact
// rationals, so formatting differences ("0.02" vs "0.020") can never
// produce a false mismatch while a single-wei difference always does.
// An unparseable expected amount never matches.
func AmountMatchesWei(expectedEth string, wei *big.Int) bool {
    expected, ok := new(big.Rat).SetString(strings.TrimSpace(expectedEth))
    if !ok {
        return false
    }
    return expected.Cmp(WeiToEther(wei)) == 0
}

// SameAddress compares two addresses case-insensitively.  Hex addresses
// are normalized through common.Address so mixed-case (checksummed) and
// lowercase forms of the same account compare equal; anything that is not
// a well-formed address falls back to a case-insensitive string compare.
func SameAddress(a, b string) bool {
    if common.IsHexAddress(a) && common.IsHexAddress(b) {
        return common.HexToAddress(a) == common.HexToAddress(b)
    }
    return strings.EqualFold(a, b)
}
