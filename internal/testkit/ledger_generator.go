package testkit

import (
	"fmt"
	"math/rand"
)

// LedgerHeader is the header row of generated ledgers. The first three
// columns form the row key.
var LedgerHeader = []any{"Department", "Contract", "Product", "Qty", "Unit Price", "Amount", "Region"}

// LedgerGeneratorConfig configures the ledger pair generator
type LedgerGeneratorConfig struct {
	Rows    int
	Edits   int // value changes in non-key numeric columns
	Adds    int // rows only in the candidate
	Deletes int // rows only in the baseline
	Seed    int64
}

// DefaultLedgerConfig returns a small, fully-keyed scenario
func DefaultLedgerConfig() LedgerGeneratorConfig {
	return LedgerGeneratorConfig{Rows: 200, Edits: 15, Adds: 6, Deletes: 4, Seed: 42}
}

// LedgerPair is a generated baseline/candidate pair with known differences
type LedgerPair struct {
	Baseline  [][]any
	Candidate [][]any

	ChangedCells int
	AddedRows    int
	RemovedRows  int
	// AddedAfter maps each added contract to the contract preceding it in the candidate
	AddedAfter map[string]string
}

// LedgerGenerator produces deterministic ledger pairs
type LedgerGenerator struct {
	config LedgerGeneratorConfig
	rng    *rand.Rand
}

// NewLedgerGenerator creates a generator seeded from config
func NewLedgerGenerator(config LedgerGeneratorConfig) *LedgerGenerator {
	return &LedgerGenerator{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

var departments = []string{"North", "South", "East", "West"}

// Generate builds the pair. Rows are laid out under two title rows so the
// header sits on row 3.
func (g *LedgerGenerator) Generate() *LedgerPair {
	cfg := g.config
	base := make([][]any, cfg.Rows)
	for i := range base {
		base[i] = g.row(i + 1)
	}

	deleted := make(map[int]bool, cfg.Deletes)
	for _, i := range g.rng.Perm(cfg.Rows)[:min(cfg.Deletes, cfg.Rows)] {
		deleted[i] = true
	}

	cand := make([][]any, 0, cfg.Rows+cfg.Adds)
	for i, row := range base {
		if deleted[i] {
			continue
		}
		cand = append(cand, append([]any(nil), row...))
	}

	edited := 0
	for _, i := range g.rng.Perm(len(cand)) {
		if edited == cfg.Edits {
			break
		}
		qty := cand[i][3].(int)
		cand[i][3] = qty + 1 + g.rng.Intn(9)
		edited++
	}

	pair := &LedgerPair{
		ChangedCells: edited,
		RemovedRows:  len(deleted),
		AddedAfter:   make(map[string]string),
	}
	for a := 0; a < cfg.Adds; a++ {
		row := g.row(cfg.Rows + a + 1)
		at := 1 + g.rng.Intn(len(cand))
		cand = append(cand[:at], append([][]any{row}, cand[at:]...)...)
		pair.AddedRows++
	}
	for i := 1; i < len(cand); i++ {
		contract := cand[i][1].(string)
		if contractNumber(contract) > cfg.Rows {
			pair.AddedAfter[contract] = cand[i-1][1].(string)
		}
	}

	pair.Baseline = Titled(LedgerHeader, base...)
	pair.Candidate = Titled(LedgerHeader, cand...)
	return pair
}

func (g *LedgerGenerator) row(n int) []any {
	qty := 1 + g.rng.Intn(500)
	price := float64(100+g.rng.Intn(9900)) / 100
	return []any{
		departments[n%len(departments)],
		fmt.Sprintf("C%05d", n),
		fmt.Sprintf("P%03d", 1+g.rng.Intn(120)),
		qty,
		price,
		float64(qty) * price,
		[]string{"EU", "US", "APAC"}[g.rng.Intn(3)],
	}
}

func contractNumber(contract string) int {
	var n int
	fmt.Sscanf(contract, "C%d", &n)
	return n
}
