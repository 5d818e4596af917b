package puzzle

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a puzzle.
type Status int

const (
	// Solved means the key was recovered by solving the challenge.
	Solved Status = iota
	// Unsolved means the funds are still waiting for a solution.
	Unsolved
	// Claimed means the prize was paid out to a solver.
	Claimed
	// Swept means the funds were taken without a published solution.
	Swept
)

var statusNames = map[Status]string{
	Solved:   "solved",
	Unsolved: "unsolved",
	Claimed:  "claimed",
	Swept:    "swept",
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("puzzle: unknown status %q", s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsActive reports whether the puzzle can still be solved.
func (s Status) IsActive() bool { return s == Unsolved }

// IsTerminal reports whether the key material has left the puzzle,
// whichever way that happened.
func (s Status) IsTerminal() bool { return s != Unsolved }

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// KeySource describes how a revealed key relates to the address.
type KeySource int

const (
	// SourceUnknown is used while no key material is public.
	SourceUnknown KeySource = iota
	// SourceDirect means the raw key (hex, WIF or mini) was published.
	SourceDirect
	// SourceDerived means the key derives from a seed phrase or xpub.
	SourceDerived
	// SourceScript means the secret is a redeem script preimage.
	SourceScript
)

var keySourceNames = map[KeySource]string{
	SourceUnknown: "unknown",
	SourceDirect:  "direct",
	SourceDerived: "derived",
	SourceScript:  "script",
}

func (k KeySource) String() string {
	if name, ok := keySourceNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KeySource(%d)", int(k))
}

func (k KeySource) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// TransactionType classifies an entry in a puzzle's on-chain history.
type TransactionType int

const (
	TxFunding TransactionType = iota
	TxIncrease
	TxDecrease
	TxSweep
	TxClaim
	TxPubkeyReveal
)

var txTypeNames = map[TransactionType]string{
	TxFunding:      "funding",
	TxIncrease:     "increase",
	TxDecrease:     "decrease",
	TxSweep:        "sweep",
	TxClaim:        "claim",
	TxPubkeyReveal: "pubkey_reveal",
}

func ParseTransactionType(s string) (TransactionType, error) {
	for tt, name := range txTypeNames {
		if name == s {
			return tt, nil
		}
	}
	return 0, fmt.Errorf("puzzle: unknown transaction type %q", s)
}

func (t TransactionType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TransactionType(%d)", int(t))
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
