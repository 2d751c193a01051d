package ga

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, popSize int, cfg Config, seed int64) *Engine {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	pop, err := NewPopulation(popSize, 5, 2, testMatrix6(), rng)
	require.NoError(t, err)
	eng, err := NewEngine(pop, cfg, rng)
	require.NoError(t, err)
	return eng
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate(10))
	assert.Error(t, Config{MaxGenerations: -1}.Validate(10))
	assert.Error(t, Config{MutationRate: 1.5}.Validate(10))
	assert.Error(t, Config{MutationRate: -0.1}.Validate(10))
	assert.Error(t, Config{ElitismSize: 11}.Validate(10))
	assert.Error(t, Config{ElitismSize: -1}.Validate(10))
}

func TestCrossoverAtFixedCutPoints(t *testing.T) {
	p1 := newChromosome(5, 2, []int{0, 1, 2, 3, 4, 5})
	p2 := newChromosome(5, 2, []int{5, 4, 3, 2, 1, 0})

	c1, c2 := crossoverAt(p1, p2, 1, 4)

	// Middle segment positions 1..3 come from the donor.
	assert.Equal(t, []int{4, 3, 2}, c1.Genes()[1:4])
	assert.Equal(t, []int{1, 2, 3}, c2.Genes()[1:4])
	assertPermutation(t, c1)
	assertPermutation(t, c2)
}

func TestCrossoverAtRepairsDuplicates(t *testing.T) {
	p1 := newChromosome(5, 2, []int{2, 0, 5, 1, 4, 3})
	p2 := newChromosome(5, 2, []int{3, 5, 1, 0, 2, 4})

	c1, c2 := crossoverAt(p1, p2, 2, 5)
	assert.Equal(t, []int{1, 0, 2}, c1.Genes()[2:5])
	assert.Equal(t, []int{5, 1, 4}, c2.Genes()[2:5])
	assertPermutation(t, c1)
	assertPermutation(t, c2)
}

func TestOperatorsPreservePermutation(t *testing.T) {
	eng := newTestEngine(t, 20, Config{MaxGenerations: 5, MutationRate: 1.0, ElitismSize: 2}, 11)
	for i := 0; i < 100; i++ {
		p1, p2, ok := eng.selectParents()
		require.True(t, ok)
		c1, c2 := eng.crossover(p1, p2)
		assertPermutation(t, c1)
		assertPermutation(t, c2)
		assertPermutation(t, eng.mutate(c1))
		assertPermutation(t, eng.mutate(c2))
	}
}

func TestMutateProducesNewChromosome(t *testing.T) {
	eng := newTestEngine(t, 10, DefaultConfig(), 13)
	c := newChromosome(5, 2, []int{0, 1, 2, 3, 4, 5})
	m := eng.mutate(c)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, c.Genes(), "original must be untouched")
	assert.NotEqual(t, c.Genes(), m.Genes(), "swap changes exactly two positions")
	assertPermutation(t, m)
}

func TestTournamentPrefersLowerFitness(t *testing.T) {
	eng := newTestEngine(t, 10, DefaultConfig(), 17)
	for i := 0; i < 200; i++ {
		w := eng.tournament()
		require.NotNil(t, w)
		require.True(t, w.Evaluated())
	}
}

func TestRunHistoryLength(t *testing.T) {
	const gens = 25
	eng := newTestEngine(t, 30, Config{MaxGenerations: gens, MutationRate: 0.05, ElitismSize: 2}, 19)
	best, err := eng.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, best)

	bestHist, avgHist := eng.History()
	assert.Len(t, bestHist, gens+1)
	assert.Len(t, avgHist, gens+1)
	assert.Equal(t, gens, eng.Generation())
}

func TestRunZeroGenerations(t *testing.T) {
	eng := newTestEngine(t, 10, Config{MaxGenerations: 0, MutationRate: 0.01, ElitismSize: 1}, 23)
	best, err := eng.Run(context.Background())
	require.NoError(t, err)

	bestHist, avgHist := eng.History()
	assert.Len(t, bestHist, 1)
	assert.Len(t, avgHist, 1)
	assert.Equal(t, bestHist[0], best.Fitness())
}

func TestRunMonotonicIncumbent(t *testing.T) {
	eng := newTestEngine(t, 30, Config{MaxGenerations: 40, MutationRate: 0.1, ElitismSize: 2}, 29)

	prev := eng.Best().Fitness()
	eng.OnGeneration = func(gen int, best, avg float64) {
		cur := eng.Best().Fitness()
		assert.LessOrEqual(t, cur, prev, "incumbent regressed at generation %d", gen)
		prev = cur
	}
	final, err := eng.Run(context.Background())
	require.NoError(t, err)

	bestHist, _ := eng.History()
	for _, b := range bestHist {
		assert.LessOrEqual(t, final.Fitness(), b, "incumbent must be at least as good as every recorded generation best")
	}
}

func TestElitismPreservation(t *testing.T) {
	eng := newTestEngine(t, 20, Config{MaxGenerations: 1, MutationRate: 0.5, ElitismSize: 3}, 31)

	ranked := make([]*Chromosome, len(eng.pop.chromosomes))
	copy(ranked, eng.pop.chromosomes)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Fitness() < ranked[j].Fitness() })

	eng.nextGeneration()

	for i := 0; i < 3; i++ {
		assert.Equal(t, ranked[i].Genes(), eng.pop.chromosomes[i].Genes())
		assert.Equal(t, ranked[i].Fitness(), eng.pop.chromosomes[i].Fitness())
	}
}

func TestNextGenerationKeepsPopSize(t *testing.T) {
	// Odd remaining slot after elites forces the single-offspring path.
	eng := newTestEngine(t, 11, Config{MaxGenerations: 1, MutationRate: 0.2, ElitismSize: 2}, 37)
	for i := 0; i < 5; i++ {
		eng.nextGeneration()
		require.Len(t, eng.pop.chromosomes, 11)
		for _, c := range eng.pop.chromosomes {
			require.True(t, c.Evaluated())
			assertPermutation(t, c)
		}
	}
}

func TestRunDeterministicWithSeed(t *testing.T) {
	run := func() (float64, []float64) {
		eng := newTestEngine(t, 25, Config{MaxGenerations: 15, MutationRate: 0.05, ElitismSize: 2}, 41)
		best, err := eng.Run(context.Background())
		require.NoError(t, err)
		hist, _ := eng.History()
		return best.Fitness(), hist
	}
	f1, h1 := run()
	f2, h2 := run()
	assert.Equal(t, f1, f2)
	assert.Equal(t, h1, h2)
}

func TestRunCancelledContext(t *testing.T) {
	eng := newTestEngine(t, 20, Config{MaxGenerations: 1000, MutationRate: 0.05, ElitismSize: 2}, 43)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := eng.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, best, "incumbent comes back even on cancellation")
	assert.Equal(t, 0, eng.Generation())
}
