// Command boha queries the embedded crypto puzzle catalog.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oritwoen/boha/data"
	"github.com/oritwoen/boha/lib/balance"
	"github.com/oritwoen/boha/lib/ingest"
	"github.com/oritwoen/boha/lib/puzzle"
	"github.com/oritwoen/boha/lib/registry"
	"github.com/oritwoen/boha/lib/search"
	"github.com/oritwoen/boha/lib/validate"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [options]

Commands:
  get <id>        show one puzzle ("<collection>/<name>" or bare collection)
  list            list puzzle identifiers
  stats           aggregate catalog statistics
  search <query>  rank puzzles against a query
  balance <id>    fetch the live balance of a puzzle address
  check           compile and validate the embedded catalog
  version         print the dataset version
`, os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "get":
		err = runGet(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "balance":
		err = runBalance(os.Args[2:])
	case "check":
		err = runCheck()
	case "version":
		err = runVersion()
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}

func defaultRegistry() (*registry.Registry, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, fmt.Errorf("loading embedded catalog: %w", err)
	}
	return reg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("get takes exactly one identifier")
	}

	reg, err := defaultRegistry()
	if err != nil {
		return err
	}
	p, err := reg.Get(fs.Arg(0))
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(p)
	}
	printPuzzle(p)
	return nil
}

func printPuzzle(p *puzzle.Puzzle) {
	fmt.Printf("id:       %s\n", p.ID)
	fmt.Printf("chain:    %s\n", p.Chain.Name())
	fmt.Printf("status:   %s\n", p.Status)
	fmt.Printf("address:  %s (%s)\n", p.Address.Value, p.Address.Kind)
	if p.Prize != nil {
		fmt.Printf("prize:    %g %s\n", *p.Prize, p.Chain.Symbol())
	}
	if p.Key != nil && p.Key.Bits != nil {
		fmt.Printf("key bits: %d\n", *p.Key.Bits)
	}
	if p.Key != nil && p.Key.Hex != nil {
		fmt.Printf("key hex:  %s\n", *p.Key.Hex)
	}
	if p.Pubkey != nil {
		fmt.Printf("pubkey:   %s\n", p.Pubkey.Value)
	}
	if p.Solver != nil && p.Solver.Name != nil {
		fmt.Printf("solver:   %s\n", *p.Solver.Name)
	}
	if p.SolveDate != nil {
		fmt.Printf("solved:   %s", *p.SolveDate)
		if d := p.SolveTimeString(); d != "" {
			fmt.Printf(" (after %s)", d)
		}
		fmt.Println()
	}
	if tx := p.FundingTx(); tx != nil && tx.ExplorerURL != nil {
		fmt.Printf("funding:  %s\n", *tx.ExplorerURL)
	}
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	collection := fs.String("collection", "", "restrict to one collection")
	status := fs.String("status", "", "restrict to one status (solved, unsolved, claimed, swept)")
	fs.Parse(args)

	reg, err := defaultRegistry()
	if err != nil {
		return err
	}

	var filter *puzzle.Status
	if *status != "" {
		parsed, err := puzzle.ParseStatus(*status)
		if err != nil {
			return err
		}
		filter = &parsed
	}

	scan := reg.All()
	if *collection != "" {
		if !reg.HasCollection(*collection) {
			return fmt.Errorf("no collection %q", *collection)
		}
		scan = reg.Collection(*collection)
	}

	var listed []*puzzle.Puzzle
	for p := range scan {
		if filter != nil && p.Status != *filter {
			continue
		}
		listed = append(listed, p)
	}

	if *jsonOut {
		return printJSON(listed)
	}
	for _, p := range listed {
		fmt.Printf("%-28s %-10s %s\n", p.ID, p.Status, p.Address.Value)
	}
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	fs.Parse(args)

	reg, err := defaultRegistry()
	if err != nil {
		return err
	}
	st, err := reg.Stats(fs.Args()...)
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(st)
	}
	fmt.Printf("puzzles:      %d\n", st.Total)
	fmt.Printf("with pubkey:  %d\n", st.WithPubkey)
	for status, n := range st.ByStatus {
		fmt.Printf("%-13s %d\n", status+":", n)
	}
	for chain, cs := range st.Chains {
		fmt.Printf("%s: %d puzzles, %g unsolved prize\n", chain, cs.Total, cs.UnsolvedPrize)
	}
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	exact := fs.Bool("exact", false, "require whole-field equality")
	caseSensitive := fs.Bool("case-sensitive", false, "match case exactly")
	limit := fs.Int("limit", 0, "maximum number of results (0 = all)")
	collection := fs.String("collection", "", "restrict to one collection")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("search takes exactly one query")
	}

	reg, err := defaultRegistry()
	if err != nil {
		return err
	}
	results, err := search.Search(reg, fs.Arg(0), search.Options{
		Exact:         *exact,
		CaseSensitive: *caseSensitive,
		Limit:         *limit,
		Collection:    *collection,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		fmt.Printf("%-28s score %-4d matched %s\n", r.Puzzle.ID, r.Score, strings.Join(r.MatchedFields, ","))
	}
	return nil
}

func runBalance(args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON instead of text")
	baseURL := fs.String("base-url", balance.DefaultBaseURL, "explorer API root")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("balance takes exactly one identifier")
	}

	reg, err := defaultRegistry()
	if err != nil {
		return err
	}
	p, err := reg.Get(fs.Arg(0))
	if err != nil {
		return err
	}
	if p.Chain != puzzle.Bitcoin {
		return fmt.Errorf("balance lookups support bitcoin addresses, %s is on %s", p.ID, p.Chain.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := balance.NewClient(balance.WithBaseURL(*baseURL), balance.WithTimeout(*timeout))
	bal, err := client.Fetch(ctx, p.Address.Value)
	if err != nil {
		var te *balance.TransientError
		if errors.As(err, &te) {
			slog.Warn("explorer unavailable, retry later", "address", p.Address.Value, "err", te.Err)
		}
		return err
	}

	if *jsonOut {
		return printJSON(bal)
	}
	fmt.Printf("%s: %.8f %s", p.ID, bal.BTC(), p.Chain.Symbol())
	if bal.Mempool != 0 {
		fmt.Printf(" (%+d sat unconfirmed)", bal.Mempool)
	}
	fmt.Println()
	return nil
}

// runCheck is the compilation boundary: it rebuilds the catalog from
// the embedded documents and reports every violation at once.
func runCheck() error {
	ds, err := ingest.Compile(data.Collections)
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}

	if err := validate.Validate(ds); err != nil {
		for _, v := range validate.Violations(err) {
			fmt.Fprintf(os.Stderr, "%s\n", v)
		}
		return fmt.Errorf("%d validation violations", len(validate.Violations(err)))
	}

	fmt.Printf("ok: %d puzzles in %d collections, dataset %s\n",
		ds.Len(), len(ds.Collections), ds.Version)
	return nil
}

func runVersion() error {
	reg, err := defaultRegistry()
	if err != nil {
		return err
	}
	fmt.Println(reg.Version())
	return nil
}
