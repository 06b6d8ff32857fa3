package txn

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/big"

	clierr "github.com/ggonzalez94/neartx/internal/errors"
	"github.com/ggonzalez94/neartx/internal/keys"
)

// Borsh enum discriminants.
const (
	actionCreateAccount uint8 = 0
	actionTransfer      uint8 = 3
	actionAddKey        uint8 = 5
	actionDeleteKey     uint8 = 6
	actionDeleteAccount uint8 = 7

	permissionFunctionCall uint8 = 0
	permissionFullAccess   uint8 = 1
)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) u8(v uint8) { e.buf.WriteByte(v) }

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) u128(v *big.Int) {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 || v.Cmp(maxU128) > 0 {
		e.fail(fmt.Errorf("value %s out of u128 range", v))
		return
	}
	be := v.FillBytes(make([]byte, 16))
	for i := len(be) - 1; i >= 0; i-- {
		e.buf.WriteByte(be[i])
	}
}

func (e *encoder) str(v string) {
	e.u32(uint32(len(v)))
	e.buf.WriteString(v)
}

func (e *encoder) fixed(v []byte) { e.buf.Write(v) }

func (e *encoder) publicKey(pk keys.PublicKey) {
	e.u8(uint8(pk.Type))
	e.fixed(pk.Data)
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (CreateAccount) encode(e *encoder) { e.u8(actionCreateAccount) }

func (a Transfer) encode(e *encoder) {
	e.u8(actionTransfer)
	e.u128(a.Deposit)
}

func (a AddKey) encode(e *encoder) {
	e.u8(actionAddKey)
	e.publicKey(a.PublicKey)
	e.u64(a.AccessKey.Nonce)
	switch p := a.AccessKey.Permission.(type) {
	case FunctionCall:
		e.u8(permissionFunctionCall)
		if p.Allowance == nil {
			e.u8(0)
		} else {
			e.u8(1)
			e.u128(p.Allowance)
		}
		e.str(p.ReceiverID)
		e.u32(uint32(len(p.MethodNames)))
		for _, m := range p.MethodNames {
			e.str(m)
		}
	case FullAccess, nil:
		e.u8(permissionFullAccess)
	default:
		e.fail(fmt.Errorf("unsupported permission %T", p))
	}
}

func (a DeleteKey) encode(e *encoder) {
	e.u8(actionDeleteKey)
	e.publicKey(a.PublicKey)
}

func (a DeleteAccount) encode(e *encoder) {
	e.u8(actionDeleteAccount)
	e.str(a.BeneficiaryID)
}

func (t Transaction) encode(e *encoder) {
	e.str(t.SignerID)
	e.publicKey(t.PublicKey)
	e.u64(t.Nonce)
	e.str(t.ReceiverID)
	e.fixed(t.BlockHash[:])
	e.u32(uint32(len(t.Actions)))
	for _, a := range t.Actions {
		a.encode(e)
	}
}

// Encode returns the Borsh encoding of an unsigned transaction.
func Encode(t Transaction) ([]byte, error) {
	var e encoder
	t.encode(&e)
	if e.err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode transaction", e.err)
	}
	return e.buf.Bytes(), nil
}

// EncodeSigned returns the Borsh encoding of a signed transaction.
func EncodeSigned(st SignedTransaction) ([]byte, error) {
	var e encoder
	st.Transaction.encode(&e)
	e.u8(uint8(st.Signature.Type))
	e.fixed(st.Signature.Data)
	if e.err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode signed transaction", e.err)
	}
	return e.buf.Bytes(), nil
}

// Hash returns sha256 of the Borsh-encoded transaction along with the encoding.
func Hash(t Transaction) ([32]byte, []byte, error) {
	encoded, err := Encode(t)
	if err != nil {
		return [32]byte{}, nil, err
	}
	return sha256.Sum256(encoded), encoded, nil
}

// Sign hashes t and signs the digest with sk.
func Sign(t Transaction, sk keys.SecretKey) (SignedTransaction, [32]byte, error) {
	digest, _, err := Hash(t)
	if err != nil {
		return SignedTransaction{}, [32]byte{}, err
	}
	sig, err := sk.Sign(digest[:])
	if err != nil {
		return SignedTransaction{}, [32]byte{}, err
	}
	return SignedTransaction{Transaction: t, Signature: sig}, digest, nil
}

func Base64(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}
