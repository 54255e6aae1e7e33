// Optional numeric values.
//
// Accounting input is full of fields that are absent or unparseable, and "absent" must never be
// conflated with a legitimate zero: a TotalCPU of 00:00:00 is zero seconds, while a TotalCPU of
// garbage is nothing at all.  The zero value of these types is the missing value.

package common

import "strconv"

type OptInt struct {
	Val int64
	Ok  bool
}

type OptFloat struct {
	Val float64
	Ok  bool
}

func SomeInt(v int64) OptInt {
	return OptInt{Val: v, Ok: true}
}

func SomeFloat(v float64) OptFloat {
	return OptFloat{Val: v, Ok: true}
}

func (v OptInt) Float() OptFloat {
	if !v.Ok {
		return OptFloat{}
	}
	return SomeFloat(float64(v.Val))
}

// Missing values serialize as JSON null, so consumers of the HTTP API can tell "no data" from
// zero, the same way we do.

func (v OptInt) MarshalJSON() ([]byte, error) {
	if !v.Ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(v.Val, 10)), nil
}

func (v OptFloat) MarshalJSON() ([]byte, error) {
	if !v.Ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.Val, 'g', -1, 64)), nil
}
