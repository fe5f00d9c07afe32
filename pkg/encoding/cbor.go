package encoding

import (
	"bytes"
	"fmt"
	"io"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	cbg "github.com/whyrusleeping/cbor-gen"
)

// Field helpers shared by the hand-maintained tuple codecs. They follow the
// layout cbor-gen's WriteTupleEncodersToFile produces, with two differences:
// the undefined address is encoded as an empty byte string instead of being
// rejected, and byte strings are length checked against MaxBytesLen.

// MaxBytesLen bounds every byte string read by the codecs.
const MaxBytesLen = cbg.ByteArrayMaxLen

// CborMarshaler is implemented by every type with a tuple codec.
type CborMarshaler interface {
	MarshalCBOR(io.Writer) error
}

// CborUnmarshaler is implemented by every type with a tuple codec.
type CborUnmarshaler interface {
	UnmarshalCBOR(io.Reader) error
}

// Encode returns the CBOR bytes of obj.
func Encode(obj CborMarshaler) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := obj.MarshalCBOR(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decodes data into obj and fails on trailing bytes.
func Decode(data []byte, obj CborUnmarshaler) error {
	br := bytes.NewReader(data)
	if err := obj.UnmarshalCBOR(br); err != nil {
		return err
	}
	if br.Len() != 0 {
		return fmt.Errorf("%d trailing bytes after cbor object", br.Len())
	}
	return nil
}

// WriteArrayHeader writes a tuple header with n fields.
func WriteArrayHeader(w io.Writer, n uint64) error {
	return cbg.CborWriteHeader(w, cbg.MajArray, n)
}

// ReadArrayHeader reads a tuple header and checks its field count.
func ReadArrayHeader(br io.Reader, n uint64) error {
	maj, extra, err := cbg.CborReadHeader(br)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray {
		return fmt.Errorf("cbor input should be of type array")
	}
	if extra != n {
		return fmt.Errorf("cbor input had wrong number of fields: %d, expected %d", extra, n)
	}
	return nil
}

// WriteUint64 writes an unsigned integer.
func WriteUint64(w io.Writer, v uint64) error {
	return cbg.CborWriteHeader(w, cbg.MajUnsignedInt, v)
}

// ReadUint64 reads an unsigned integer.
func ReadUint64(br io.Reader) (uint64, error) {
	maj, extra, err := cbg.CborReadHeader(br)
	if err != nil {
		return 0, err
	}
	if maj != cbg.MajUnsignedInt {
		return 0, fmt.Errorf("wrong type for uint64 field")
	}
	return extra, nil
}

// WriteBool writes a boolean.
func WriteBool(w io.Writer, v bool) error {
	return cbg.WriteBool(w, v)
}

// ReadBool reads a boolean.
func ReadBool(br io.Reader) (bool, error) {
	maj, extra, err := cbg.CborReadHeader(br)
	if err != nil {
		return false, err
	}
	if maj != cbg.MajOther {
		return false, fmt.Errorf("booleans must be major type 7")
	}
	switch extra {
	case 20:
		return false, nil
	case 21:
		return true, nil
	default:
		return false, fmt.Errorf("booleans are either major type 7, value 20 or 21 (got %d)", extra)
	}
}

// WriteBytes writes a byte string.
func WriteBytes(w io.Writer, b []byte) error {
	if uint64(len(b)) > MaxBytesLen {
		return fmt.Errorf("byte array too large (%d)", len(b))
	}
	if err := cbg.CborWriteHeader(w, cbg.MajByteString, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a byte string of at most maxLen bytes.
func ReadBytes(br io.Reader, maxLen uint64) ([]byte, error) {
	maj, extra, err := cbg.CborReadHeader(br)
	if err != nil {
		return nil, err
	}
	if maj != cbg.MajByteString {
		return nil, fmt.Errorf("expected byte array")
	}
	if extra > maxLen {
		return nil, fmt.Errorf("byte array too large (%d)", extra)
	}
	buf := make([]byte, extra)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteAddress writes an address as its byte form; address.Undef is empty.
func WriteAddress(w io.Writer, a address.Address) error {
	return WriteBytes(w, a.Bytes())
}

// ReadAddress reads an address written by WriteAddress.
func ReadAddress(br io.Reader) (address.Address, error) {
	b, err := ReadBytes(br, MaxBytesLen)
	if err != nil {
		return address.Undef, err
	}
	if len(b) == 0 {
		return address.Undef, nil
	}
	return address.NewFromBytes(b)
}

// WriteBigInt writes a big integer using the go-state-types encoding.
func WriteBigInt(w io.Writer, v big.Int) error {
	return v.MarshalCBOR(w)
}

// ReadBigInt reads a big integer written by WriteBigInt.
func ReadBigInt(br io.Reader) (big.Int, error) {
	var v big.Int
	if err := v.UnmarshalCBOR(br); err != nil {
		return big.Zero(), err
	}
	if v.Int == nil {
		return big.Zero(), nil
	}
	return v, nil
}
