package puzzle

import (
	"encoding/json"
	"math/big"
	"testing"
)

func strp(s string) *string { return &s }
func u16p(v uint16) *uint16 { return &v }
func u64p(v uint64) *uint64 { return &v }

func TestParseChain(t *testing.T) {
	tests := []struct {
		in   string
		want Chain
		ok   bool
	}{
		{in: "bitcoin", want: Bitcoin, ok: true},
		{in: "ethereum", want: Ethereum, ok: true},
		{in: "litecoin", want: Litecoin, ok: true},
		{in: "monero", want: Monero, ok: true},
		{in: "decred", want: Decred, ok: true},
		{in: "Bitcoin", ok: false},
		{in: "dogecoin", ok: false},
	}

	for _, tt := range tests {
		got, err := ParseChain(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseChain(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseChain(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestChainJSON(t *testing.T) {
	raw, err := json.Marshal(Litecoin)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) != `"litecoin"` {
		t.Errorf("Marshal = %s", raw)
	}

	var c Chain
	if err := json.Unmarshal([]byte(`"monero"`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c != Monero {
		t.Errorf("Unmarshal = %v, want monero", c)
	}
}

func TestTxExplorerURL(t *testing.T) {
	tests := []struct {
		chain Chain
		want  string
	}{
		{chain: Bitcoin, want: "https://mempool.space/tx/abc"},
		{chain: Ethereum, want: "https://etherscan.io/tx/abc"},
		{chain: Litecoin, want: "https://blockchair.com/litecoin/transaction/abc"},
		{chain: Monero, want: "https://xmrchain.net/tx/abc"},
		{chain: Decred, want: "https://dcrdata.decred.org/tx/abc"},
	}
	for _, tt := range tests {
		if got := tt.chain.TxExplorerURL("abc"); got != tt.want {
			t.Errorf("%v.TxExplorerURL = %q, want %q", tt.chain, got, tt.want)
		}
	}
}

func TestKeyRange(t *testing.T) {
	tests := []struct {
		name string
		bits uint16
		lo   string
		hi   string
	}{
		{name: "one bit", bits: 1, lo: "1", hi: "1"},
		{name: "two bits", bits: 2, lo: "2", hi: "3"},
		{name: "sixty-six bits", bits: 66, lo: "36893488147419103232", hi: "73786976294838206463"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &Key{Bits: u16p(tt.bits)}
			lo, hi := k.Range()
			if lo == nil || hi == nil {
				t.Fatal("Range returned nil")
			}
			wantLo, _ := new(big.Int).SetString(tt.lo, 10)
			wantHi, _ := new(big.Int).SetString(tt.hi, 10)
			if lo.Cmp(wantLo) != 0 || hi.Cmp(wantHi) != 0 {
				t.Errorf("Range = [%v, %v], want [%v, %v]", lo, hi, wantLo, wantHi)
			}
		})
	}

	t.Run("no bits", func(t *testing.T) {
		if lo, hi := (&Key{}).Range(); lo != nil || hi != nil {
			t.Error("Range without bits returned a range")
		}
	})
	t.Run("out of domain", func(t *testing.T) {
		if lo, _ := (&Key{Bits: u16p(257)}).Range(); lo != nil {
			t.Error("Range accepted 257 bits")
		}
	})
}

func TestKeyIsKnown(t *testing.T) {
	var nilKey *Key
	if nilKey.IsKnown() {
		t.Error("nil key is known")
	}
	if (&Key{Bits: u16p(66)}).IsKnown() {
		t.Error("bits-only key is known")
	}
	if !(&Key{Hex: strp("01")}).IsKnown() {
		t.Error("hex key is not known")
	}
	if !(&Key{Seed: &Seed{Phrase: strp("...")}}).IsKnown() {
		t.Error("seed key is not known")
	}
}

func TestIdentifierSegments(t *testing.T) {
	p := &Puzzle{ID: "b1000/66"}
	if p.Collection() != "b1000" || p.Name() != "66" {
		t.Errorf("segments = %q/%q", p.Collection(), p.Name())
	}

	bare := &Puzzle{ID: "gsmg"}
	if bare.Collection() != "gsmg" || bare.Name() != "" {
		t.Errorf("bare segments = %q/%q", bare.Collection(), bare.Name())
	}
}

func TestFindTransactions(t *testing.T) {
	p := &Puzzle{
		Transactions: []Transaction{
			{Type: TxFunding, Txid: strp("aa")},
			{Type: TxDecrease, Txid: strp("bb")},
			{Type: TxClaim, Txid: strp("cc")},
		},
	}

	if tx := p.FundingTx(); tx == nil || *tx.Txid != "aa" {
		t.Errorf("FundingTx = %+v", tx)
	}
	if tx := p.ClaimTx(); tx == nil || *tx.Txid != "cc" {
		t.Errorf("ClaimTx = %+v", tx)
	}
	if tx := (&Puzzle{}).FundingTx(); tx != nil {
		t.Errorf("empty FundingTx = %+v", tx)
	}
}

func TestSolveTimeString(t *testing.T) {
	tests := []struct {
		name    string
		seconds uint64
		want    string
	}{
		{name: "seconds only", seconds: 42, want: "42s"},
		{name: "minutes", seconds: 150, want: "2m"},
		{name: "one day", seconds: 86400, want: "1d"},
		{name: "mixed", seconds: 90061, want: "1d 1h 1m"},
		{name: "years", seconds: 3*365*86400 + 40*86400, want: "3y 1mo 10d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Puzzle{SolveTime: u64p(tt.seconds)}
			if got := p.SolveTimeString(); got != tt.want {
				t.Errorf("SolveTimeString = %q, want %q", got, tt.want)
			}
		})
	}

	if got := (&Puzzle{}).SolveTimeString(); got != "" {
		t.Errorf("unknown solve time = %q, want empty", got)
	}
}

func TestAssetPaths(t *testing.T) {
	p := &Puzzle{
		ID:     "zden/level_1",
		Assets: &Assets{Puzzle: strp("level_1.png")},
	}
	if got := p.AssetPath(); got != "assets/zden/level_1.png" {
		t.Errorf("AssetPath = %q", got)
	}
	if got := p.AssetURL(); got != "https://raw.githubusercontent.com/oritwoen/boha/main/assets/zden/level_1.png" {
		t.Errorf("AssetURL = %q", got)
	}

	if got := (&Puzzle{ID: "x"}).AssetPath(); got != "" {
		t.Errorf("assetless AssetPath = %q", got)
	}
}

func TestStatusSemantics(t *testing.T) {
	if !Unsolved.IsActive() || Unsolved.IsTerminal() {
		t.Error("unsolved misclassified")
	}
	for _, s := range []Status{Solved, Claimed, Swept} {
		if s.IsActive() || !s.IsTerminal() {
			t.Errorf("%v misclassified", s)
		}
	}
}

func TestEnumJSONNames(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{value: Solved, want: `"solved"`},
		{value: Swept, want: `"swept"`},
		{value: P2WPKH, want: `"p2wpkh"`},
		{value: KindStandard, want: `"standard"`},
		{value: SourceScript, want: `"script"`},
		{value: TxPubkeyReveal, want: `"pubkey_reveal"`},
		{value: Uncompressed, want: `"uncompressed"`},
	}

	for _, tt := range tests {
		raw, err := json.Marshal(tt.value)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.value, err)
		}
		if string(raw) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.value, raw, tt.want)
		}
	}
}
