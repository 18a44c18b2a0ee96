// Package split assigns documents to train, dev and test datasets.
package split

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
)

// Dataset names.
const (
	Train = "train"
	Dev   = "dev"
	Test  = "test"
)

// Names lists datasets in output order.
var Names = []string{Train, Dev, Test}

// Weights are relative dataset sizes.
type Weights struct {
	Train int
	Dev   int
	Test  int
}

// DefaultWeights is the 8/1/1 split used for lang-uk NER training.
var DefaultWeights = Weights{Train: 8, Dev: 1, Test: 1}

// Total returns the sum of the weights.
func (w Weights) Total() int {
	return w.Train + w.Dev + w.Test
}

func (w Weights) String() string {
	return fmt.Sprintf("%d,%d,%d", w.Train, w.Dev, w.Test)
}

// Validate rejects negative weights and a zero total.
func (w Weights) Validate() error {
	if w.Train < 0 || w.Dev < 0 || w.Test < 0 {
		return errors.NewValidation("weights", "negative weight in "+w.String())
	}
	if w.Total() == 0 {
		return errors.NewValidation("weights", "weights sum to zero")
	}
	return nil
}

// pick maps n in [0, Total) to a dataset name.
func (w Weights) pick(n int) string {
	switch {
	case n < w.Train:
		return Train
	case n < w.Train+w.Dev:
		return Dev
	default:
		return Test
	}
}

// ParseWeights parses "train,dev,test", e.g. "8,1,1".
func ParseWeights(s string) (Weights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Weights{}, errors.NewValidation("weights", fmt.Sprintf("want three comma-separated values, got %q", s))
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Weights{}, &errors.ValidationError{Field: "weights", Message: fmt.Sprintf("bad value %q", p), Err: err}
		}
		vals[i] = v
	}
	w := Weights{Train: vals[0], Dev: vals[1], Test: vals[2]}
	return w, w.Validate()
}

// Strategy selects how documents are assigned.
type Strategy string

const (
	// StrategyHash assigns by a keyed blake3 hash of the document name.
	// Assignments are stable across runs and corpus growth.
	StrategyHash Strategy = "hash"
	// StrategyRandom draws from a seeded generator in document order, like
	// a weighted random choice per document.
	StrategyRandom Strategy = "random"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyHash, StrategyRandom:
		return Strategy(s), nil
	case "":
		return StrategyHash, nil
	}
	return "", errors.NewUnsupported("split strategy", s)
}

// Splitter assigns dataset names to documents. It is not safe for
// concurrent use with StrategyRandom.
type Splitter struct {
	weights  Weights
	strategy Strategy
	seed     uint64
	rng      *rand.Rand
}

// New returns a Splitter.
func New(w Weights, strategy Strategy, seed uint64) (*Splitter, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	s := &Splitter{weights: w, strategy: strategy, seed: seed}
	switch strategy {
	case StrategyHash:
	case StrategyRandom:
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	default:
		return nil, errors.NewUnsupported("split strategy", string(strategy))
	}
	return s, nil
}

// Assign returns the dataset for the named document.
func (s *Splitter) Assign(name string) string {
	total := s.weights.Total()
	if s.strategy == StrategyRandom {
		return s.weights.pick(s.rng.IntN(total))
	}

	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], s.seed)
	h := blake3.New()
	h.Write(key[:])
	h.Write([]byte(name))
	sum := h.Sum(nil)
	return s.weights.pick(int(binary.LittleEndian.Uint64(sum[:8]) % uint64(total)))
}
