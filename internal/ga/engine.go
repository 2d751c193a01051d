package ga

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Config holds the evolutionary hyperparameters.
type Config struct {
	MaxGenerations int
	MutationRate   float64
	ElitismSize    int
}

// Validate rejects degenerate parameters against a given population size.
func (c Config) Validate(popSize int) error {
	if c.MaxGenerations < 0 {
		return fmt.Errorf("maxGenerations must be >= 0, got %d", c.MaxGenerations)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutationRate must be in [0,1], got %f", c.MutationRate)
	}
	if c.ElitismSize < 0 || c.ElitismSize > popSize {
		return fmt.Errorf("elitismSize must be in [0,%d], got %d", popSize, c.ElitismSize)
	}
	return nil
}

// DefaultConfig mirrors the stock solver parameters.
func DefaultConfig() Config {
	return Config{MaxGenerations: 1000, MutationRate: 0.01, ElitismSize: 2}
}

// NewRNG returns a seeded random source. Seed 0 draws from the wall clock.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Engine drives generational evolution over a population. All randomness
// comes from the single injected source; runs are reproducible given the same
// seed and inputs. Not safe for concurrent use.
type Engine struct {
	cfg Config
	pop *Population
	rng *rand.Rand

	generation  int
	best        *Chromosome
	bestHistory []float64
	avgHistory  []float64

	// OnGeneration, when set, is called after each completed generation with
	// the current population best and average fitness.
	OnGeneration func(generation int, best, avg float64)
}

// NewEngine validates the configuration and records the generation-0 history
// entry from the population as constructed.
func NewEngine(pop *Population, cfg Config, rng *rand.Rand) (*Engine, error) {
	if pop == nil {
		return nil, fmt.Errorf("population must not be nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("rng must not be nil")
	}
	if err := cfg.Validate(pop.Size()); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, pop: pop, rng: rng}
	best := pop.Best()
	e.best = best.Clone()
	e.bestHistory = append(e.bestHistory, best.Fitness())
	e.avgHistory = append(e.avgHistory, pop.AverageFitness())
	return e, nil
}

// Generation returns the number of completed generations.
func (e *Engine) Generation() int { return e.generation }

// Best returns a copy of the best chromosome observed so far.
func (e *Engine) Best() *Chromosome { return e.best.Clone() }

// History returns copies of the best and average fitness trajectories. Both
// have one entry per generation including generation 0.
func (e *Engine) History() (best, avg []float64) {
	best = make([]float64, len(e.bestHistory))
	copy(best, e.bestHistory)
	avg = make([]float64, len(e.avgHistory))
	copy(avg, e.avgHistory)
	return best, avg
}

// Run evolves the population for exactly MaxGenerations generations and
// returns the best chromosome ever observed. There is no convergence-based
// early stop; a cancelled context ends the run between generations and the
// incumbent is returned alongside the context error.
func (e *Engine) Run(ctx context.Context) (*Chromosome, error) {
	for gen := 0; gen < e.cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return e.best.Clone(), err
		}
		e.nextGeneration()
	}
	return e.best.Clone(), nil
}

// tournament draws two distinct chromosomes uniformly and keeps the one with
// lower-or-equal fitness.
func (e *Engine) tournament() *Chromosome {
	n := len(e.pop.chromosomes)
	i := e.rng.Intn(n)
	j := e.rng.Intn(n - 1)
	if j >= i {
		j++
	}
	a, b := e.pop.chromosomes[i], e.pop.chromosomes[j]
	if a.fitness <= b.fitness {
		return a
	}
	return b
}

// selectParents runs two binary tournaments, yielding one parent pair.
func (e *Engine) selectParents() (*Chromosome, *Chromosome, bool) {
	if len(e.pop.chromosomes) < 2 {
		return nil, nil, false
	}
	return e.tournament(), e.tournament(), true
}

// crossover applies two-point order-preserving crossover with duplicate
// repair. Cut points are drawn uniformly; the construction keeps both
// offspring valid permutations of the parents' value set.
func (e *Engine) crossover(p1, p2 *Chromosome) (*Chromosome, *Chromosome) {
	n := p1.Len()
	a := e.rng.Intn(n)
	b := e.rng.Intn(n - 1)
	if b >= a {
		b++
	}
	if a > b {
		a, b = b, a
	}
	return crossoverAt(p1, p2, a, b)
}

// crossoverAt performs the crossover with explicit cut points a < b.
// Offspring 1 takes p2's middle segment and fills the rest, in order, with
// p1's unused values; offspring 2 mirrors the roles.
func crossoverAt(p1, p2 *Chromosome, a, b int) (*Chromosome, *Chromosome) {
	g1 := fillAround(p2.genes, p1.genes, a, b)
	g2 := fillAround(p1.genes, p2.genes, a, b)
	c1 := newChromosome(p1.numLocations, p1.numVehicles, g1)
	c2 := newChromosome(p1.numLocations, p1.numVehicles, g2)
	return c1, c2
}

// fillAround copies donor[a:b] into the child's middle segment, then fills the
// remaining positions left to right with filler values not already used.
func fillAround(donor, filler []int, a, b int) []int {
	n := len(donor)
	child := make([]int, n)
	used := make([]bool, n)
	for i := a; i < b; i++ {
		child[i] = donor[i]
		used[donor[i]] = true
	}
	fi := 0
	for i := 0; i < n; i++ {
		if i >= a && i < b {
			continue
		}
		for used[filler[fi]] {
			fi++
		}
		child[i] = filler[fi]
		used[filler[fi]] = true
	}
	return child
}

// mutate swaps two distinct gene positions, producing a new chromosome.
func (e *Engine) mutate(c *Chromosome) *Chromosome {
	genes := c.Genes()
	n := len(genes)
	i := e.rng.Intn(n)
	j := e.rng.Intn(n - 1)
	if j >= i {
		j++
	}
	genes[i], genes[j] = genes[j], genes[i]
	return newChromosome(c.numLocations, c.numVehicles, genes)
}

// nextGeneration builds a full replacement chromosome set: elites first, then
// tournament-selected offspring pairs until the population size is reached.
func (e *Engine) nextGeneration() {
	popSize := e.pop.Size()
	matrix := e.pop.Matrix()

	ranked := make([]*Chromosome, len(e.pop.chromosomes))
	copy(ranked, e.pop.chromosomes)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].fitness < ranked[j].fitness })

	next := make([]*Chromosome, 0, popSize)
	for i := 0; i < e.cfg.ElitismSize; i++ {
		next = append(next, ranked[i].Clone())
	}

	for len(next) < popSize {
		p1, p2, ok := e.selectParents()
		if !ok {
			break
		}
		child1, child2 := e.crossover(p1, p2)

		if e.rng.Float64() < e.cfg.MutationRate {
			child1 = e.mutate(child1)
		}
		child1.EvaluateFitness(matrix)
		next = append(next, child1)

		if len(next) < popSize {
			if e.rng.Float64() < e.cfg.MutationRate {
				child2 = e.mutate(child2)
			}
			child2.EvaluateFitness(matrix)
			next = append(next, child2)
		}
	}

	e.pop.replace(next)
	e.generation++

	current := e.pop.Best()
	if current.fitness < e.best.fitness {
		e.best = current.Clone()
	}
	avg := e.pop.AverageFitness()
	e.bestHistory = append(e.bestHistory, current.fitness)
	e.avgHistory = append(e.avgHistory, avg)

	if e.OnGeneration != nil {
		e.OnGeneration(e.generation, current.fitness, avg)
	}
}
