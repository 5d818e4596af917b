package addrcodec

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/oritwoen/boha/lib/puzzle"
)

const (
	keyOneHex     = "0000000000000000000000000000000000000000000000000000000000000001"
	keyOneHash160 = "751e76e8199196d454941c45d1b3a323f1433bd6"
)

func TestDecodeBitcoin(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		kind    puzzle.AddressKind
		hash160 string
	}{
		{
			name:    "p2pkh",
			value:   "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
			kind:    puzzle.P2PKH,
			hash160: keyOneHash160,
		},
		{
			name:    "p2sh",
			value:   "37k7toV1Nv4DfmQbmZ8KuZDQCYK9x5KpzP",
			kind:    puzzle.P2SH,
			hash160: "4266fc6f2c2861d7fe229b279a79803afca7ba34",
		},
		{
			name:    "p2wpkh",
			value:   "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
			kind:    puzzle.P2WPKH,
			hash160: keyOneHash160,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(puzzle.Bitcoin, tt.value)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", got.Kind, tt.kind)
			}
			if hex.EncodeToString(got.Hash160) != tt.hash160 {
				t.Errorf("hash160 = %x, want %s", got.Hash160, tt.hash160)
			}
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		chain puzzle.Chain
		value string
	}{
		{name: "corrupt base58 checksum", chain: puzzle.Bitcoin, value: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMI"},
		{name: "wrong version byte", chain: puzzle.Bitcoin, value: "LM2WMpR1Rp6j3Sa59cMXMs1SPzj9eXpGc1"},
		{name: "bech32 hrp mismatch", chain: puzzle.Litecoin, value: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"},
		{name: "short ethereum", chain: puzzle.Ethereum, value: "0x1234"},
		{name: "non-hex ethereum", chain: puzzle.Ethereum, value: "0xZZ5F4552091A69125d5DfCb7b8C2659029395Bdf"},
		{name: "short monero", chain: puzzle.Monero, value: "4short"},
		{name: "short decred", chain: puzzle.Decred, value: "Dsabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.chain, tt.value); !errors.Is(err, ErrBadAddress) {
				t.Errorf("Decode(%q) err = %v, want ErrBadAddress", tt.value, err)
			}
		})
	}
}

func TestSegwitRoundTrip(t *testing.T) {
	program := make([]byte, 32)
	for i := range program {
		program[i] = byte(i)
	}

	t.Run("p2wsh", func(t *testing.T) {
		addr, err := EncodeSegwit(puzzle.Bitcoin, 0, program)
		if err != nil {
			t.Fatalf("EncodeSegwit: %v", err)
		}
		got, err := Decode(puzzle.Bitcoin, addr)
		if err != nil {
			t.Fatalf("Decode(%q): %v", addr, err)
		}
		if got.Kind != puzzle.P2WSH || string(got.WitnessProgram) != string(program) {
			t.Errorf("decoded %+v", got)
		}
	})

	t.Run("p2tr", func(t *testing.T) {
		addr, err := EncodeSegwit(puzzle.Bitcoin, 1, program)
		if err != nil {
			t.Fatalf("EncodeSegwit: %v", err)
		}
		got, err := Decode(puzzle.Bitcoin, addr)
		if err != nil {
			t.Fatalf("Decode(%q): %v", addr, err)
		}
		if got.Kind != puzzle.P2TR || string(got.WitnessProgram) != string(program) {
			t.Errorf("decoded %+v", got)
		}
	})
}

func TestEncodeP2PKH(t *testing.T) {
	raw, _ := hex.DecodeString(keyOneHash160)

	btc, err := EncodeP2PKH(puzzle.Bitcoin, raw)
	if err != nil {
		t.Fatalf("EncodeP2PKH: %v", err)
	}
	if btc != "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH" {
		t.Errorf("bitcoin = %q", btc)
	}

	ltc, err := EncodeP2PKH(puzzle.Litecoin, raw)
	if err != nil {
		t.Fatalf("EncodeP2PKH litecoin: %v", err)
	}
	got, err := Decode(puzzle.Litecoin, ltc)
	if err != nil || got.Kind != puzzle.P2PKH || hex.EncodeToString(got.Hash160) != keyOneHash160 {
		t.Errorf("litecoin round trip: %q, %+v, %v", ltc, got, err)
	}

	if _, err := EncodeP2PKH(puzzle.Ethereum, raw); !errors.Is(err, ErrUnsupportedChain) {
		t.Errorf("ethereum err = %v, want ErrUnsupportedChain", err)
	}
}

func TestDeriveAddress(t *testing.T) {
	tests := []struct {
		name   string
		chain  puzzle.Chain
		kind   puzzle.AddressKind
		format puzzle.PubkeyFormat
		want   string
	}{
		{
			name: "bitcoin compressed p2pkh", chain: puzzle.Bitcoin,
			kind: puzzle.P2PKH, format: puzzle.Compressed,
			want: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
		},
		{
			name: "bitcoin uncompressed p2pkh", chain: puzzle.Bitcoin,
			kind: puzzle.P2PKH, format: puzzle.Uncompressed,
			want: "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm",
		},
		{
			name: "bitcoin p2wpkh", chain: puzzle.Bitcoin,
			kind: puzzle.P2WPKH, format: puzzle.Compressed,
			want: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		},
		{
			name: "ethereum", chain: puzzle.Ethereum,
			kind: puzzle.KindStandard, format: puzzle.Uncompressed,
			want: "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveAddress(tt.chain, keyOneHex, tt.kind, tt.format)
			if err != nil {
				t.Fatalf("DeriveAddress: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWIFRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		compressed bool
		want       string
	}{
		{name: "compressed", compressed: true, want: "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"},
		{name: "uncompressed", compressed: false, want: "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wif, err := EncodeWIF(keyOneHex, tt.compressed)
			if err != nil {
				t.Fatalf("EncodeWIF: %v", err)
			}
			if wif != tt.want {
				t.Errorf("EncodeWIF = %q, want %q", wif, tt.want)
			}

			hexKey, compressed, err := DecodeWIF(wif)
			if err != nil {
				t.Fatalf("DecodeWIF: %v", err)
			}
			if hexKey != keyOneHex || compressed != tt.compressed {
				t.Errorf("DecodeWIF = %q compressed=%v", hexKey, compressed)
			}
		})
	}

	if _, _, err := DecodeWIF("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWm"); !errors.Is(err, ErrBadWIF) {
		t.Errorf("corrupt WIF err = %v, want ErrBadWIF", err)
	}
}

func TestCheckEncryptedWIF(t *testing.T) {
	// BIP38 test vector, passphrase TestingOneTwoThree.
	valid := "6PRVWUbkzzsbcVac2qwfssoUJAN1Xhrg6bNk8J7Nzm5H7kxEbn2Nh2ZoGg"
	if err := CheckEncryptedWIF(valid); err != nil {
		t.Errorf("CheckEncryptedWIF(%q): %v", valid, err)
	}

	tests := []struct {
		name  string
		value string
	}{
		{name: "wrong prefix", value: "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"},
		{name: "corrupt checksum", value: "6PRVWUbkzzsbcVac2qwfssoUJAN1Xhrg6bNk8J7Nzm5H7kxEbn2Nh2ZoGh"},
		{name: "too short", value: "6Pshort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckEncryptedWIF(tt.value); !errors.Is(err, ErrBadWIF) {
				t.Errorf("err = %v, want ErrBadWIF", err)
			}
		})
	}
}

func TestPubkeyBytes(t *testing.T) {
	pub, err := PubkeyBytes(keyOneHex, puzzle.Compressed)
	if err != nil {
		t.Fatalf("PubkeyBytes: %v", err)
	}
	want := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	if hex.EncodeToString(pub) != want {
		t.Errorf("compressed pubkey = %x, want %s", pub, want)
	}
	if hex.EncodeToString(Hash160(pub)) != keyOneHash160 {
		t.Errorf("Hash160 = %x, want %s", Hash160(pub), keyOneHash160)
	}

	if _, err := PubkeyBytes("zz", puzzle.Compressed); !errors.Is(err, ErrBadKey) {
		t.Errorf("bad hex err = %v, want ErrBadKey", err)
	}
	if _, err := PubkeyBytes("0102", puzzle.Compressed); !errors.Is(err, ErrBadKey) {
		t.Errorf("short key err = %v, want ErrBadKey", err)
	}
}
