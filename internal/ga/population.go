package ga

import (
	"fmt"
	"math"
	"math/rand"
)

// Population owns a fixed-size set of chromosomes sharing one distance matrix.
// The matrix is referenced read-only; it must not be mutated after construction.
type Population struct {
	popSize      int
	numLocations int
	numVehicles  int
	matrix       Matrix
	chromosomes  []*Chromosome
}

// FitnessStats summarizes population fitness for reporting.
type FitnessStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	Std float64 `json:"std"`
}

// NewPopulation validates the configuration, then builds popSize chromosomes
// with independently randomized genes. Every chromosome is fitness-evaluated
// immediately; a population never holds unevaluated members.
func NewPopulation(popSize, numLocations, numVehicles int, m Matrix, rng *rand.Rand) (*Population, error) {
	if popSize < 2 {
		return nil, fmt.Errorf("population size must be >= 2, got %d", popSize)
	}
	if numLocations < 2 {
		return nil, fmt.Errorf("numLocations must be >= 2, got %d", numLocations)
	}
	if numVehicles < 1 {
		return nil, fmt.Errorf("numVehicles must be >= 1, got %d", numVehicles)
	}
	if rng == nil {
		return nil, fmt.Errorf("rng must not be nil")
	}
	if err := m.Validate(numLocations); err != nil {
		return nil, err
	}
	p := &Population{
		popSize:      popSize,
		numLocations: numLocations,
		numVehicles:  numVehicles,
		matrix:       m,
		chromosomes:  make([]*Chromosome, popSize),
	}
	for i := 0; i < popSize; i++ {
		c := NewRandomChromosome(numLocations, numVehicles, rng)
		c.EvaluateFitness(m)
		p.chromosomes[i] = c
	}
	return p, nil
}

// Size returns the configured population size.
func (p *Population) Size() int { return p.popSize }

// NumLocations returns the customer count, excluding the depot.
func (p *Population) NumLocations() int { return p.numLocations }

// NumVehicles returns the fleet size.
func (p *Population) NumVehicles() int { return p.numVehicles }

// Matrix returns the shared distance matrix.
func (p *Population) Matrix() Matrix { return p.matrix }

// Best returns the chromosome with minimum fitness. Ties go to the earliest in
// the current ordering.
func (p *Population) Best() *Chromosome {
	best := p.chromosomes[0]
	for _, c := range p.chromosomes[1:] {
		if c.fitness < best.fitness {
			best = c
		}
	}
	return best
}

// AverageFitness returns the arithmetic mean of all fitness values.
func (p *Population) AverageFitness() float64 {
	total := 0.0
	for _, c := range p.chromosomes {
		total += c.fitness
	}
	return total / float64(len(p.chromosomes))
}

// Stats returns min, max, mean and sample standard deviation of fitness.
func (p *Population) Stats() FitnessStats {
	s := FitnessStats{Min: math.MaxFloat64, Max: -math.MaxFloat64}
	for _, c := range p.chromosomes {
		if c.fitness < s.Min {
			s.Min = c.fitness
		}
		if c.fitness > s.Max {
			s.Max = c.fitness
		}
		s.Avg += c.fitness
	}
	n := float64(len(p.chromosomes))
	s.Avg /= n
	if len(p.chromosomes) > 1 {
		ss := 0.0
		for _, c := range p.chromosomes {
			d := c.fitness - s.Avg
			ss += d * d
		}
		s.Std = math.Sqrt(ss / (n - 1))
	}
	return s
}

// replace swaps in a freshly built generation. The engine is the only caller.
func (p *Population) replace(next []*Chromosome) {
	p.chromosomes = next
}
