package chain

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

/**
 * Convert resolved string arguments to the Go values abi.Pack expects
 * @param {abi.Arguments} inputs - Initializer inputs from the ABI
 * @param {[]string} values - Resolved initializer arguments
 * @returns {[]interface{}} Typed values in input order
 * @returns {error} Arity mismatch or a value that does not fit its input type
 */
func CoerceArgs(inputs abi.Arguments, values []string) ([]interface{}, error) {
	if len(inputs) != len(values) {
		return nil, fmt.Errorf("initializer takes %d arguments, got %d", len(inputs), len(values))
	}
	out := make([]interface{}, len(values))
	for i, in := range inputs {
		v, err := coerce(in.Type, values[i])
		if err != nil {
			name := in.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, in.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t abi.Type, v string) (interface{}, error) {
	v = strings.TrimSpace(v)
	switch t.T {
	case abi.AddressTy:
		return ParseAddress(v)
	case abi.BoolTy:
		return strconv.ParseBool(v)
	case abi.StringTy:
		return v, nil
	case abi.UintTy, abi.IntTy:
		return coerceInt(t, v)
	case abi.BytesTy:
		return hexutil.Decode(v)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("want %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported initializer argument type")
	}
}

func coerceInt(t abi.Type, v string) (interface{}, error) {
	n, ok := new(big.Int).SetString(v, 0)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", v)
	}
	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s", v)
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("value %s overflows uint%d", v, t.Size)
		}
		switch t.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("value %s overflows int%d", v, t.Size)
	}
	switch t.Size {
	case 8:
		return int8(n.Int64()), nil
	case 16:
		return int16(n.Int64()), nil
	case 32:
		return int32(n.Int64()), nil
	case 64:
		return n.Int64(), nil
	}
	return n, nil
}
