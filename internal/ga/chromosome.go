package ga

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// DepotSentinel brackets every decoded route and maps to distance-matrix index 0.
const DepotSentinel = -1

// Matrix is a symmetric non-negative distance matrix. Index 0 is the depot;
// customer location v maps to index v+1.
type Matrix [][]float64

// Validate checks the matrix covers numLocations customers plus the depot.
func (m Matrix) Validate(numLocations int) error {
	want := numLocations + 1
	if len(m) != want {
		return fmt.Errorf("distance matrix must have dimension %d, got %d", want, len(m))
	}
	for i, row := range m {
		if len(row) != want {
			return fmt.Errorf("distance matrix row %d must have length %d, got %d", i, want, len(row))
		}
		for j, d := range row {
			if d < 0 {
				return fmt.Errorf("distance matrix entry [%d][%d] is negative: %f", i, j, d)
			}
		}
	}
	return nil
}

// Chromosome encodes one candidate solution as a permutation of
// [0, numLocations+numVehicles-2]. Values below numLocations are customer
// locations; the remaining numVehicles-1 values are route delimiters.
// Genetic operators always construct a new chromosome, so a chromosome never
// changes after its fitness has been evaluated.
type Chromosome struct {
	numLocations int
	numVehicles  int
	genes        []int
	fitness      float64
	evaluated    bool
}

// NewRandomChromosome builds a chromosome with a uniformly shuffled gene
// permutation. Fitness is unset until EvaluateFitness is called.
func NewRandomChromosome(numLocations, numVehicles int, rng *rand.Rand) *Chromosome {
	n := numLocations + numVehicles - 1
	genes := make([]int, n)
	for i := range genes {
		genes[i] = i
	}
	rng.Shuffle(n, func(i, j int) { genes[i], genes[j] = genes[j], genes[i] })
	return &Chromosome{numLocations: numLocations, numVehicles: numVehicles, genes: genes}
}

// newChromosome wraps explicit gene values produced by crossover or mutation.
// The slice is owned by the chromosome afterwards.
func newChromosome(numLocations, numVehicles int, genes []int) *Chromosome {
	return &Chromosome{numLocations: numLocations, numVehicles: numVehicles, genes: genes}
}

// Len returns the gene sequence length.
func (c *Chromosome) Len() int { return len(c.genes) }

// Genes returns a copy of the gene sequence.
func (c *Chromosome) Genes() []int {
	out := make([]int, len(c.genes))
	copy(out, c.genes)
	return out
}

// Fitness returns the cached total distance. Valid only after EvaluateFitness.
func (c *Chromosome) Fitness() float64 { return c.fitness }

// Evaluated reports whether fitness has been computed.
func (c *Chromosome) Evaluated() bool { return c.evaluated }

// Clone returns a defensive copy, fitness included.
func (c *Chromosome) Clone() *Chromosome {
	return &Chromosome{
		numLocations: c.numLocations,
		numVehicles:  c.numVehicles,
		genes:        c.Genes(),
		fitness:      c.fitness,
		evaluated:    c.evaluated,
	}
}

// Routes decodes the gene sequence into vehicle routes. Delimiter positions
// split the sequence into contiguous segments; empty segments are dropped, so
// fewer than numVehicles routes may come back. Every returned route starts and
// ends with DepotSentinel. The genes are not modified.
func (c *Chromosome) Routes() [][]int {
	delimStart := c.numLocations
	delimEnd := c.numLocations + c.numVehicles - 1

	delimPos := []int{}
	for i, g := range c.genes {
		if g >= delimStart && g < delimEnd {
			delimPos = append(delimPos, i)
		}
	}
	sort.Ints(delimPos)

	segments := [][]int{}
	start := 0
	for _, pos := range delimPos {
		segments = append(segments, c.genes[start:pos])
		start = pos + 1
	}
	segments = append(segments, c.genes[start:])

	routes := [][]int{}
	for _, seg := range segments {
		stops := []int{}
		for _, g := range seg {
			if g < c.numLocations {
				stops = append(stops, g)
			}
		}
		if len(stops) == 0 {
			continue
		}
		route := make([]int, 0, len(stops)+2)
		route = append(route, DepotSentinel)
		route = append(route, stops...)
		route = append(route, DepotSentinel)
		routes = append(routes, route)
	}
	return routes
}

// EvaluateFitness computes and caches the total distance across all decoded
// routes. The caller must have validated the matrix against numLocations.
func (c *Chromosome) EvaluateFitness(m Matrix) float64 {
	total := 0.0
	for _, route := range c.Routes() {
		for i := 0; i < len(route)-1; i++ {
			from := matrixIndex(route[i])
			to := matrixIndex(route[i+1])
			total += m[from][to]
		}
	}
	c.fitness = total
	c.evaluated = true
	return total
}

func matrixIndex(stop int) int {
	if stop == DepotSentinel {
		return 0
	}
	return stop + 1
}

// String renders the decoded routes with D marking the depot.
func (c *Chromosome) String() string {
	var b strings.Builder
	for i, route := range c.Routes() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Route %d: ", i+1)
		for j, stop := range route {
			if j > 0 {
				b.WriteString(" -> ")
			}
			if stop == DepotSentinel {
				b.WriteByte('D')
			} else {
				fmt.Fprintf(&b, "%d", stop)
			}
		}
	}
	return b.String()
}
