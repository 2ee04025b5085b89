package prim

import (
	"encoding/binary"
	"fmt"
	"math"
)

// fixedCodec implements get/set for one fixed-width [Kind]. Values cross the
// boundary as int64 (signed integer kinds), uint64 (unsigned integer kinds),
// float64 (all float kinds, regardless of storage width), or bool.
type fixedCodec struct {
	width int
	get   func(buf []byte, offset int) any
	set   func(buf []byte, offset int, v any) error
}

var fixedCodecs = map[Kind]*fixedCodec{
	KindInt8: {
		width: 1,
		get:   func(buf []byte, off int) any { return int64(int8(buf[off])) },
		set: func(buf []byte, off int, v any) error {
			n, err := toInt64(v, -1<<7, 1<<7-1)
			if err != nil {
				return err
			}
			buf[off] = byte(int8(n))
			return nil
		},
	},
	KindInt16: {
		width: 2,
		get:   func(buf []byte, off int) any { return int64(int16(binary.LittleEndian.Uint16(buf[off:]))) },
		set: func(buf []byte, off int, v any) error {
			n, err := toInt64(v, -1<<15, 1<<15-1)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint16(buf[off:], uint16(int16(n)))
			return nil
		},
	},
	KindInt32: {
		width: 4,
		get:   func(buf []byte, off int) any { return int64(int32(binary.LittleEndian.Uint32(buf[off:]))) },
		set: func(buf []byte, off int, v any) error {
			n, err := toInt64(v, -1<<31, 1<<31-1)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint32(buf[off:], uint32(int32(n)))
			return nil
		},
	},
	KindUint8: {
		width: 1,
		get:   func(buf []byte, off int) any { return uint64(buf[off]) },
		set: func(buf []byte, off int, v any) error {
			n, err := toUint64(v, 1<<8-1)
			if err != nil {
				return err
			}
			buf[off] = byte(n)
			return nil
		},
	},
	KindUint16: {
		width: 2,
		get:   func(buf []byte, off int) any { return uint64(binary.LittleEndian.Uint16(buf[off:])) },
		set: func(buf []byte, off int, v any) error {
			n, err := toUint64(v, 1<<16-1)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint16(buf[off:], uint16(n))
			return nil
		},
	},
	KindUint32: {
		width: 4,
		get:   func(buf []byte, off int) any { return uint64(binary.LittleEndian.Uint32(buf[off:])) },
		set: func(buf []byte, off int, v any) error {
			n, err := toUint64(v, 1<<32-1)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint32(buf[off:], uint32(n))
			return nil
		},
	},
	KindInt64: {
		width: 8,
		get:   func(buf []byte, off int) any { return int64(binary.LittleEndian.Uint64(buf[off:])) },
		set: func(buf []byte, off int, v any) error {
			n, err := toInt64(v, math.MinInt64, math.MaxInt64)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(buf[off:], uint64(n))
			return nil
		},
	},
	KindUint64: {
		width: 8,
		get:   func(buf []byte, off int) any { return binary.LittleEndian.Uint64(buf[off:]) },
		set: func(buf []byte, off int, v any) error {
			n, err := toUint64(v, math.MaxUint64)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(buf[off:], n)
			return nil
		},
	},
	KindFloat8: {
		width: 1,
		get:   func(buf []byte, off int) any { return float8ToFloat64(buf[off]) },
		set: func(buf []byte, off int, v any) error {
			f, err := toFloat64(v)
			if err != nil {
				return err
			}
			buf[off] = float64ToFloat8(f)
			return nil
		},
	},
	KindFloat16: {
		width: 2,
		get: func(buf []byte, off int) any {
			return float16ToFloat64(binary.LittleEndian.Uint16(buf[off:]))
		},
		set: func(buf []byte, off int, v any) error {
			f, err := toFloat64(v)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint16(buf[off:], float64ToFloat16(f))
			return nil
		},
	},
	KindFloat32: {
		width: 4,
		get: func(buf []byte, off int) any {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
		},
		set: func(buf []byte, off int, v any) error {
			f, err := toFloat64(v)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(f)))
			return nil
		},
	},
	KindFloat64: {
		width: 8,
		get: func(buf []byte, off int) any {
			return math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
		},
		set: func(buf []byte, off int, v any) error {
			f, err := toFloat64(v)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(f))
			return nil
		},
	},
	KindBool: {
		width: 1,
		get:   func(buf []byte, off int) any { return buf[off] != 0 },
		set: func(buf []byte, off int, v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("prim: Boolean.setValue: %w: got %T", ErrTypeMismatch, v)
			}
			if b {
				buf[off] = 1
			} else {
				buf[off] = 0
			}
			return nil
		},
	},
}

// GetValue reads the value of kind k from buf at offset. Panics if k is
// variable-width; use [Decode] for those.
func GetValue(k Kind, buf []byte, offset int) any {
	c, ok := fixedCodecs[k]
	if !ok {
		panic(fmt.Sprintf("prim: GetValue: %s is not fixed-width", k))
	}

	return c.get(buf, offset)
}

// SetValue writes v, interpreted as kind k, into buf at offset. Panics if k
// is variable-width; use [Encode] for those.
func SetValue(k Kind, buf []byte, offset int, v any) error {
	c, ok := fixedCodecs[k]
	if !ok {
		panic(fmt.Sprintf("prim: SetValue: %s is not fixed-width", k))
	}

	return c.set(buf, offset, v)
}

func toInt64(v any, lo, hi int64) (int64, error) {
	var n int64

	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		n = int64(x)
	case uint64:
		n = int64(x)
	default:
		return 0, fmt.Errorf("prim: %w: got %T", ErrTypeMismatch, v)
	}

	if n < lo || n > hi {
		return 0, fmt.Errorf("prim: %w: %d outside [%d,%d]", ErrOutOfRange, n, lo, hi)
	}

	return n, nil
}

func toUint64(v any, hi uint64) (uint64, error) {
	var n uint64

	switch x := v.(type) {
	case int:
		if x < 0 {
			return 0, fmt.Errorf("prim: %w: %d is negative", ErrOutOfRange, x)
		}
		n = uint64(x)
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("prim: %w: %d is negative", ErrOutOfRange, x)
		}
		n = uint64(x)
	case uint:
		n = uint64(x)
	case uint64:
		n = x
	default:
		return 0, fmt.Errorf("prim: %w: got %T", ErrTypeMismatch, v)
	}

	if n > hi {
		return 0, fmt.Errorf("prim: %w: %d exceeds %d", ErrOutOfRange, n, hi)
	}

	return n, nil
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("prim: %w: got %T", ErrTypeMismatch, v)
	}
}
