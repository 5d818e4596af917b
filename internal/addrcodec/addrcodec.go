// Package addrcodec decodes and derives chain-native address encodings
// so the validator can cross-check declared hashes against the strings
// that actually ship in the dataset.
package addrcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/decred/dcrd/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/oritwoen/boha/lib/puzzle"
)

var (
	ErrUnsupportedChain = errors.New("addrcodec: unsupported chain")
	ErrBadAddress       = errors.New("addrcodec: malformed address")
	ErrBadKey           = errors.New("addrcodec: malformed private key")
	ErrBadWIF           = errors.New("addrcodec: malformed WIF")
)

// Base58 version bytes per chain.
const (
	btcP2PKH   = 0x00
	btcP2SH    = 0x05
	ltcP2PKH   = 0x30
	ltcP2SH    = 0x32
	wifVersion = 0x80
)

// Decred mainnet P2PKH version (two bytes, blake256 checksum).
var dcrP2PKH = [2]byte{0x07, 0x3f}

// Decoded is the structural content of an address string.
type Decoded struct {
	Kind puzzle.AddressKind
	// Hash160 is set for p2pkh/p2sh/p2wpkh style targets.
	Hash160 []byte
	// WitnessProgram is set for p2wsh/p2tr targets.
	WitnessProgram []byte
}

// Hash160 is RIPEMD160(SHA256(data)).
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}

// Decode parses an address string under the rules of the given chain.
func Decode(chain puzzle.Chain, value string) (*Decoded, error) {
	switch chain {
	case puzzle.Bitcoin:
		return decodeBitcoinLike(value, "bc", btcP2PKH, btcP2SH)
	case puzzle.Litecoin:
		return decodeBitcoinLike(value, "ltc", ltcP2PKH, ltcP2SH)
	case puzzle.Ethereum:
		return decodeEthereum(value)
	case puzzle.Decred:
		return decodeDecred(value)
	case puzzle.Monero:
		return decodeMonero(value)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedChain, chain)
}

func decodeBitcoinLike(value, hrp string, p2pkhVer, p2shVer byte) (*Decoded, error) {
	if strings.HasPrefix(strings.ToLower(value), hrp+"1") {
		return decodeSegwit(value, hrp)
	}

	payload, version, err := base58.CheckDecode(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAddress, value, err)
	}
	if len(payload) != 20 {
		return nil, fmt.Errorf("%w: %q: payload is %d bytes, want 20", ErrBadAddress, value, len(payload))
	}

	switch version {
	case p2pkhVer:
		return &Decoded{Kind: puzzle.P2PKH, Hash160: payload}, nil
	case p2shVer:
		return &Decoded{Kind: puzzle.P2SH, Hash160: payload}, nil
	}
	return nil, fmt.Errorf("%w: %q: unknown version byte 0x%02x", ErrBadAddress, value, version)
}

func decodeSegwit(value, hrp string) (*Decoded, error) {
	gotHRP, data, version, err := bech32.DecodeGeneric(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAddress, value, err)
	}
	if gotHRP != hrp {
		return nil, fmt.Errorf("%w: %q: hrp %q, want %q", ErrBadAddress, value, gotHRP, hrp)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: %q: empty data part", ErrBadAddress, value)
	}

	witver := data[0]
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAddress, value, err)
	}

	switch {
	case witver == 0 && len(program) == 20:
		if version != bech32.Version0 {
			return nil, fmt.Errorf("%w: %q: segwit v0 must use bech32", ErrBadAddress, value)
		}
		return &Decoded{Kind: puzzle.P2WPKH, Hash160: program}, nil
	case witver == 0 && len(program) == 32:
		if version != bech32.Version0 {
			return nil, fmt.Errorf("%w: %q: segwit v0 must use bech32", ErrBadAddress, value)
		}
		return &Decoded{Kind: puzzle.P2WSH, WitnessProgram: program}, nil
	case witver == 1 && len(program) == 32:
		if version != bech32.VersionM {
			return nil, fmt.Errorf("%w: %q: segwit v1 must use bech32m", ErrBadAddress, value)
		}
		return &Decoded{Kind: puzzle.P2TR, WitnessProgram: program}, nil
	}
	return nil, fmt.Errorf("%w: %q: witness v%d with %d byte program", ErrBadAddress, value, witver, len(program))
}

func decodeEthereum(value string) (*Decoded, error) {
	if !strings.HasPrefix(value, "0x") || len(value) != 42 {
		return nil, fmt.Errorf("%w: %q: want 0x + 40 hex chars", ErrBadAddress, value)
	}
	if _, err := hex.DecodeString(value[2:]); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadAddress, value, err)
	}
	return &Decoded{Kind: puzzle.KindStandard}, nil
}

func decodeDecred(value string) (*Decoded, error) {
	raw := base58.Decode(value)
	if len(raw) != 26 {
		return nil, fmt.Errorf("%w: %q: decoded to %d bytes, want 26", ErrBadAddress, value, len(raw))
	}
	if raw[0] != dcrP2PKH[0] || raw[1] != dcrP2PKH[1] {
		return nil, fmt.Errorf("%w: %q: unknown version bytes 0x%02x%02x", ErrBadAddress, value, raw[0], raw[1])
	}

	payload, ck := raw[:22], raw[22:]
	first := blake256.Sum256(payload)
	second := blake256.Sum256(first[:])
	if string(second[:4]) != string(ck) {
		return nil, fmt.Errorf("%w: %q: bad blake256 checksum", ErrBadAddress, value)
	}
	return &Decoded{Kind: puzzle.KindStandard, Hash160: payload[2:]}, nil
}

// Monero addresses carry an embedded checksum over a keccak variant the
// catalog has no other use for; validation here is structural only.
func decodeMonero(value string) (*Decoded, error) {
	if len(value) < 95 || (value[0] != '4' && value[0] != '8') {
		return nil, fmt.Errorf("%w: %q: want 95+ chars starting with 4 or 8", ErrBadAddress, value)
	}
	return &Decoded{Kind: puzzle.KindStandard}, nil
}

// EncodeP2PKH renders a hash160 as a legacy base58check address.
func EncodeP2PKH(chain puzzle.Chain, hash160 []byte) (string, error) {
	switch chain {
	case puzzle.Bitcoin:
		return base58.CheckEncode(hash160, btcP2PKH), nil
	case puzzle.Litecoin:
		return base58.CheckEncode(hash160, ltcP2PKH), nil
	}
	return "", fmt.Errorf("%w: %v has no base58 p2pkh form", ErrUnsupportedChain, chain)
}

// EncodeP2SH renders a script hash as a base58check address.
func EncodeP2SH(chain puzzle.Chain, scriptHash []byte) (string, error) {
	switch chain {
	case puzzle.Bitcoin:
		return base58.CheckEncode(scriptHash, btcP2SH), nil
	case puzzle.Litecoin:
		return base58.CheckEncode(scriptHash, ltcP2SH), nil
	}
	return "", fmt.Errorf("%w: %v has no base58 p2sh form", ErrUnsupportedChain, chain)
}

// EncodeSegwit renders a witness program as a bech32 (v0) or bech32m
// (v1+) address.
func EncodeSegwit(chain puzzle.Chain, witver byte, program []byte) (string, error) {
	var hrp string
	switch chain {
	case puzzle.Bitcoin:
		hrp = "bc"
	case puzzle.Litecoin:
		hrp = "ltc"
	default:
		return "", fmt.Errorf("%w: %v has no segwit form", ErrUnsupportedChain, chain)
	}

	converted, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	data := append([]byte{witver}, converted...)
	if witver == 0 {
		return bech32.Encode(hrp, data)
	}
	return bech32.EncodeM(hrp, data)
}

// PubkeyBytes derives the serialized public key for a raw private key.
func PubkeyBytes(keyHex string, format puzzle.PubkeyFormat) ([]byte, error) {
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: key is %d bytes, want 32", ErrBadKey, len(raw))
	}

	_, pub := btcec.PrivKeyFromBytes(raw)
	if format == puzzle.Uncompressed {
		return pub.SerializeUncompressed(), nil
	}
	return pub.SerializeCompressed(), nil
}

// DeriveAddress computes the address a raw private key controls.
// Supported: bitcoin/litecoin p2pkh and p2wpkh, ethereum accounts.
func DeriveAddress(chain puzzle.Chain, keyHex string, kind puzzle.AddressKind, format puzzle.PubkeyFormat) (string, error) {
	switch chain {
	case puzzle.Bitcoin, puzzle.Litecoin:
		pub, err := PubkeyBytes(keyHex, format)
		if err != nil {
			return "", err
		}
		h := Hash160(pub)
		if kind == puzzle.P2WPKH {
			return EncodeSegwit(chain, 0, h)
		}
		return EncodeP2PKH(chain, h)
	case puzzle.Ethereum:
		pub, err := PubkeyBytes(keyHex, puzzle.Uncompressed)
		if err != nil {
			return "", err
		}
		keccak := sha3.NewLegacyKeccak256()
		keccak.Write(pub[1:])
		sum := keccak.Sum(nil)
		return "0x" + hex.EncodeToString(sum[12:]), nil
	}
	return "", fmt.Errorf("%w: cannot derive %v addresses", ErrUnsupportedChain, chain)
}

// EncodeWIF renders a raw private key in Wallet Import Format.
func EncodeWIF(keyHex string, compressed bool) (string, error) {
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: key is %d bytes, want 32", ErrBadKey, len(raw))
	}
	if compressed {
		raw = append(raw, 0x01)
	}
	return base58.CheckEncode(raw, wifVersion), nil
}

// DecodeWIF recovers the raw key hex and compression flag from a
// standard WIF string, verifying its checksum.
func DecodeWIF(wif string) (keyHex string, compressed bool, err error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrBadWIF, err)
	}
	if version != wifVersion {
		return "", false, fmt.Errorf("%w: version byte 0x%02x, want 0x80", ErrBadWIF, version)
	}

	switch len(payload) {
	case 32:
		return hex.EncodeToString(payload), false, nil
	case 33:
		if payload[32] != 0x01 {
			return "", false, fmt.Errorf("%w: compression flag 0x%02x, want 0x01", ErrBadWIF, payload[32])
		}
		return hex.EncodeToString(payload[:32]), true, nil
	}
	return "", false, fmt.Errorf("%w: payload is %d bytes", ErrBadWIF, len(payload))
}

// CheckEncryptedWIF verifies the base58check structure of a BIP38
// encrypted key (6P prefix, 39 byte payload). Decryption needs the
// passphrase and is out of scope here.
func CheckEncryptedWIF(value string) error {
	if !strings.HasPrefix(value, "6P") {
		return fmt.Errorf("%w: encrypted WIF must start with 6P", ErrBadWIF)
	}
	raw := base58.Decode(value)
	if len(raw) != 43 {
		return fmt.Errorf("%w: encrypted WIF decodes to %d bytes, want 43", ErrBadWIF, len(raw))
	}
	if raw[0] != 0x01 || (raw[1] != 0x42 && raw[1] != 0x43) {
		return fmt.Errorf("%w: prefix 0x%02x%02x is not a BIP38 type", ErrBadWIF, raw[0], raw[1])
	}
	payload, ck := raw[:39], raw[39:]
	if string(checksum(payload)) != string(ck) {
		return fmt.Errorf("%w: bad checksum", ErrBadWIF)
	}
	return nil
}
