package puzzle

import "math/big"

// Wif holds Wallet Import Format encodings of a private key.
type Wif struct {
	// Encrypted is a BIP38 encrypted WIF (starts with 6P).
	Encrypted *string `json:"encrypted,omitempty"`
	// Decrypted is a standard WIF (starts with 5, K or L).
	Decrypted *string `json:"decrypted,omitempty"`
	// Passphrase decrypts Encrypted when known.
	Passphrase *string `json:"passphrase,omitempty"`
}

// EntropySource points at the material a deterministic seed was built
// from (an image, a file).
type EntropySource struct {
	URL         *string `json:"url,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Passphrase is the BIP39 passphrase state for an entropy-based seed:
// either known, or known to be required but not public.
type Passphrase struct {
	Required bool    `json:"required"`
	Known    *string `json:"known,omitempty"`
}

// Entropy is external entropy used to derive a seed.
type Entropy struct {
	// Hash is the SHA256 of the entropy data, hex encoded.
	Hash       string         `json:"hash"`
	Source     *EntropySource `json:"source,omitempty"`
	Passphrase *Passphrase    `json:"passphrase,omitempty"`
}

// Seed is BIP39 mnemonic material with optional derivation metadata.
type Seed struct {
	Phrase  *string  `json:"phrase,omitempty"`
	Path    *string  `json:"path,omitempty"`
	Xpub    *string  `json:"xpub,omitempty"`
	Entropy *Entropy `json:"entropy,omitempty"`
}

// Share is a single fragment from a secret sharing scheme.
type Share struct {
	Index uint8  `json:"index"`
	Data  string `json:"data"`
}

// Shares is a threshold secret sharing configuration (Shamir, SLIP-39).
type Shares struct {
	Threshold uint8   `json:"threshold"`
	Total     uint8   `json:"total"`
	Shares    []Share `json:"shares"`
}

// Key is a private key in whatever representations are public.
type Key struct {
	// Hex is the raw key, 64 hex characters.
	Hex *string `json:"hex,omitempty"`
	Wif *Wif    `json:"wif,omitempty"`
	Seed *Seed  `json:"seed,omitempty"`
	// Mini is a mini private key (starts with 'S').
	Mini *string `json:"mini,omitempty"`
	// Bits constrains the key to [2^(bits-1), 2^bits - 1].
	Bits   *uint16 `json:"bits,omitempty"`
	Shares *Shares `json:"shares,omitempty"`
}

// IsKnown reports whether any spendable key material is public. A seed
// with only derivation metadata (path, xpub) does not count; the
// phrase itself must be out.
func (k *Key) IsKnown() bool {
	if k == nil {
		return false
	}
	return k.Hex != nil || k.Wif != nil || k.Mini != nil ||
		(k.Seed != nil && k.Seed.Phrase != nil)
}

// Range returns the inclusive numeric range [2^(bits-1), 2^bits - 1]
// declared by Bits, or nil when no bit width is declared or the width
// is out of the 1..256 domain.
func (k *Key) Range() (lo, hi *big.Int) {
	if k == nil || k.Bits == nil {
		return nil, nil
	}
	bits := int(*k.Bits)
	if bits < 1 || bits > 256 {
		return nil, nil
	}
	lo = new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	hi = new(big.Int).Lsh(big.NewInt(1), uint(bits))
	hi.Sub(hi, big.NewInt(1))
	return lo, hi
}
