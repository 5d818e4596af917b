package registry

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/oritwoen/boha/lib/puzzle"
)

func fixtureFS() fstest.MapFS {
	files := map[string]string{
		"manifest.yaml": "collections:\n  - trial\n  - lone\n  - solo\n",
		"solvers.yaml":  "{}\n",
		"trial.yaml": `metadata:
  aliases:
    - classic
puzzles:
  - name: "1"
    address:
      value: 1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH
      kind: p2pkh
      hash160: 751e76e8199196d454941c45d1b3a323f1433bd6
    status: solved
    prize: 0.001
    key:
      hex: "0000000000000000000000000000000000000000000000000000000000000001"
  - name: "67"
    address:
      value: 1BY8GQbnueYofwSuFAT3USAhGjPrkxDdW9
      kind: p2pkh
      hash160: 739437bb3dd6d1983e66629c5f08c70e52769371
    status: unsolved
    prize: 6.7
    key:
      bits: 67
`,
		"lone.yaml": `puzzle:
  address:
    value: "0x0aE1Cd947a8Db056c9E77777EC5BdEa43f5b0Ce8"
    kind: standard
  chain: ethereum
  status: unsolved
  prize: 1.0
`,
		"solo.yaml": `puzzles:
  - name: only
    address:
      value: 1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm
      kind: p2pkh
      hash160: 91b24bf9f5288532960ac687abb035127b1d28a5
    status: unsolved
`,
	}

	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func loadFixture(t *testing.T) *Registry {
	t.Helper()
	reg, err := Load(fixtureFS())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func TestGet(t *testing.T) {
	reg := loadFixture(t)

	tests := []struct {
		name    string
		id      string
		want    string
		segment string
	}{
		{name: "full id", id: "trial/1", want: "trial/1"},
		{name: "bare single member", id: "lone", want: "lone"},
		{name: "bare single member of a list", id: "solo", want: "solo/only"},
		{name: "alias", id: "classic/1", want: "trial/1"},
		{name: "unknown collection", id: "ghost/1", segment: "collection"},
		{name: "unknown puzzle", id: "trial/999", segment: "puzzle"},
		{name: "bare multi member", id: "trial", segment: "puzzle"},
		{name: "case sensitive", id: "Trial/1", segment: "collection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Get(tt.id)
			if tt.segment == "" {
				if err != nil {
					t.Fatalf("Get(%q): %v", tt.id, err)
				}
				if p.ID != tt.want {
					t.Errorf("Get(%q).ID = %q, want %q", tt.id, p.ID, tt.want)
				}
				return
			}

			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("Get(%q) err = %v, want *NotFoundError", tt.id, err)
			}
			if nf.Segment != tt.segment {
				t.Errorf("segment = %q, want %q", nf.Segment, tt.segment)
			}
		})
	}
}

func TestIterationOrder(t *testing.T) {
	reg := loadFixture(t)

	var ids []string
	for p := range reg.All() {
		ids = append(ids, p.ID)
	}
	want := []string{"trial/1", "trial/67", "lone", "solo/only"}
	if len(ids) != len(want) {
		t.Fatalf("All() yielded %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("All() yielded %v, want %v", ids, want)
		}
	}

	ids = ids[:0]
	for p := range reg.Collection("trial") {
		ids = append(ids, p.ID)
	}
	if len(ids) != 2 || ids[0] != "trial/1" || ids[1] != "trial/67" {
		t.Errorf("Collection(trial) yielded %v", ids)
	}

	for range reg.Collection("ghost") {
		t.Fatal("Collection(ghost) yielded a puzzle")
	}
}

func TestCollections(t *testing.T) {
	reg := loadFixture(t)

	names := reg.Collections()
	if len(names) != 3 || names[0] != "trial" || names[1] != "lone" || names[2] != "solo" {
		t.Errorf("Collections() = %v, want [trial lone solo]", names)
	}
	if !reg.HasCollection("trial") || reg.HasCollection("ghost") {
		t.Error("HasCollection misreports")
	}
	if reg.Len() != 4 {
		t.Errorf("Len() = %d, want 4", reg.Len())
	}
	if len(reg.Version()) != 8 {
		t.Errorf("Version() = %q, want 8 hex chars", reg.Version())
	}
}

func TestStats(t *testing.T) {
	reg := loadFixture(t)

	st, err := reg.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 4 {
		t.Errorf("Total = %d, want 4", st.Total)
	}
	if st.ByStatus["solved"] != 1 || st.ByStatus["unsolved"] != 3 {
		t.Errorf("ByStatus = %v", st.ByStatus)
	}
	btc := st.Chains["bitcoin"]
	if btc.Total != 3 || btc.UnsolvedPrize != 6.7 {
		t.Errorf("bitcoin stats = %+v", btc)
	}
	if st.Chains["ethereum"].UnsolvedPrize != 1.0 {
		t.Errorf("ethereum stats = %+v", st.Chains["ethereum"])
	}

	if _, err := reg.Stats("ghost"); err == nil {
		t.Error("Stats(ghost) succeeded")
	}

	scoped, err := reg.Stats("trial")
	if err != nil {
		t.Fatalf("Stats(trial): %v", err)
	}
	if scoped.Total != 2 {
		t.Errorf("Stats(trial).Total = %d, want 2", scoped.Total)
	}
}

// TestAliases covers lookups through a declared collection alias. The
// alias resolves everywhere a collection name does, but never appears
// as a name itself.
func TestAliases(t *testing.T) {
	reg := loadFixture(t)

	if !reg.HasCollection("classic") {
		t.Error("HasCollection(classic) = false")
	}
	for _, name := range reg.Collections() {
		if name == "classic" {
			t.Error("Collections() lists the alias")
		}
	}

	var ids []string
	for p := range reg.Collection("classic") {
		ids = append(ids, p.ID)
	}
	if len(ids) != 2 || ids[0] != "trial/1" || ids[1] != "trial/67" {
		t.Errorf("Collection(classic) yielded %v", ids)
	}

	st, err := reg.Stats("classic")
	if err != nil {
		t.Fatalf("Stats(classic): %v", err)
	}
	if st.Total != 2 {
		t.Errorf("Stats(classic).Total = %d, want 2", st.Total)
	}

	// Resolved puzzles keep their canonical IDs.
	p, err := reg.Get("classic/67")
	if err != nil {
		t.Fatalf("Get(classic/67): %v", err)
	}
	if p.ID != "trial/67" {
		t.Errorf("Get(classic/67).ID = %q, want trial/67", p.ID)
	}
}

// TestDefault compiles and validates the embedded catalog end to end.
func TestDefault(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if reg.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}

	again, err := Default()
	if err != nil || again != reg {
		t.Error("Default is not a singleton")
	}

	for _, name := range []string{"b1000", "gsmg", "hash_collision", "zden", "bitaps"} {
		if !reg.HasCollection(name) {
			t.Errorf("embedded catalog missing collection %q", name)
		}
	}

	p, err := reg.Get("b1000/1")
	if err != nil {
		t.Fatalf("Get(b1000/1): %v", err)
	}
	if p.Status != puzzle.Solved || !p.HasPrivateKey() {
		t.Errorf("b1000/1 = %+v", p)
	}

	if _, err := reg.Get("gsmg"); err != nil {
		t.Errorf("Get(gsmg): %v", err)
	}

	// hash_collision is also addressable by its bounty author.
	if p, err := reg.Get("peter_todd/sha1"); err != nil {
		t.Errorf("Get(peter_todd/sha1): %v", err)
	} else if p.ID != "hash_collision/sha1" {
		t.Errorf("Get(peter_todd/sha1).ID = %q", p.ID)
	}
}
