package puzzle

import (
	"encoding/json"
	"fmt"
)

// Chain is the blockchain network a puzzle lives on.
type Chain int

const (
	Bitcoin Chain = iota
	Ethereum
	Litecoin
	Monero
	Decred
)

var chainNames = map[Chain]string{
	Bitcoin:  "bitcoin",
	Ethereum: "ethereum",
	Litecoin: "litecoin",
	Monero:   "monero",
	Decred:   "decred",
}

// ParseChain maps a lowercase chain name from a description document to
// its Chain value.
func ParseChain(s string) (Chain, error) {
	for c, name := range chainNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("puzzle: unknown chain %q", s)
}

func (c Chain) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Chain(%d)", int(c))
}

// Symbol returns the currency ticker, e.g. "BTC".
func (c Chain) Symbol() string {
	switch c {
	case Bitcoin:
		return "BTC"
	case Ethereum:
		return "ETH"
	case Litecoin:
		return "LTC"
	case Monero:
		return "XMR"
	case Decred:
		return "DCR"
	}
	return "?"
}

// Name returns the capitalized chain name, e.g. "Bitcoin". This is the
// value the search engine matches under the "chain" label.
func (c Chain) Name() string {
	switch c {
	case Bitcoin:
		return "Bitcoin"
	case Ethereum:
		return "Ethereum"
	case Litecoin:
		return "Litecoin"
	case Monero:
		return "Monero"
	case Decred:
		return "Decred"
	}
	return "Unknown"
}

// TxExplorerURL formats a block explorer link for a transaction id.
// Pure formatting, nothing is fetched.
func (c Chain) TxExplorerURL(txid string) string {
	switch c {
	case Bitcoin:
		return "https://mempool.space/tx/" + txid
	case Ethereum:
		return "https://etherscan.io/tx/" + txid
	case Litecoin:
		return "https://blockchair.com/litecoin/transaction/" + txid
	case Monero:
		return "https://xmrchain.net/tx/" + txid
	case Decred:
		return "https://dcrdata.decred.org/tx/" + txid
	}
	return ""
}

func (c Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Chain) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseChain(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
