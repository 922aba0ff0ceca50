package evo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tetrisga/internal/agent"
	"tetrisga/internal/heuristics"
	"tetrisga/internal/tetris"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NEntities = 6
	cfg.MaxDrops = 15
	cfg.MaxPopulations = 3
	cfg.MutationRate = 0.5
	cfg.Workers = 2
	cfg.Seed = 7
	return cfg
}

func scoredWith(fitness ...float64) []ScoredAgent {
	set := heuristics.Default()
	out := make([]ScoredAgent, len(fitness))
	for i, f := range fitness {
		weights := make([]float64, set.Len())
		weights[0] = float64(i)
		a, _ := agent.FromWeights(weights, set)
		out[i] = ScoredAgent{Agent: a, Fitness: f}
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero entities", mutate: func(c *Config) { c.NEntities = 0 }},
		{name: "odd entities", mutate: func(c *Config) { c.NEntities = 1 }},
		{name: "negative entities", mutate: func(c *Config) { c.NEntities = -2 }},
		{name: "empty heuristics", mutate: func(c *Config) { c.Heuristics = nil }},
		{name: "unknown heuristic", mutate: func(c *Config) { c.Heuristics = []string{"wells"} }},
		{name: "mutation rate", mutate: func(c *Config) { c.MutationRate = 1.5 }},
		{name: "crossover rate", mutate: func(c *Config) { c.CrossoverRate = -0.1 }},
		{name: "elite count", mutate: func(c *Config) { c.EliteCount = c.NEntities }},
		{name: "weight range", mutate: func(c *Config) { c.WeightMin, c.WeightMax = 1, -1 }},
		{name: "non-progress", mutate: func(c *Config) { c.MaxNonProgressPopulations = IntPtr(-1) }},
		{name: "selection", mutate: func(c *Config) { c.Selection = "rank" }},
		{name: "crossover", mutate: func(c *Config) { c.Crossover = "uniform" }},
		{name: "mutation", mutate: func(c *Config) { c.Mutation = "swap" }},
		{name: "fitness", mutate: func(c *Config) { c.Fitness = "height" }},
		{name: "branching", mutate: func(c *Config) { c.Branching = "deep" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", tc.name, err)
		}
		if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: New should reject config, got %v", tc.name, err)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestRouletteFavoursFitterAgents(t *testing.T) {
	scored := scoredWith(0, 0, 100)
	picked, err := RouletteSelector{}.Select(rand.New(rand.NewSource(1)), scored, 50)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(picked) != 50 {
		t.Fatalf("expected 50 survivors, got %d", len(picked))
	}
	for _, a := range picked {
		if a.Weights[0] != 2 {
			t.Fatalf("agents at the minimum must never be drawn, got %v", a.Weights)
		}
	}
	picked[0].Weights[0] = -1
	if scored[2].Agent.Weights[0] != 2 {
		t.Fatal("survivors must not alias the scored agents")
	}
}

func TestRouletteUniformWhenFitnessFlat(t *testing.T) {
	scored := scoredWith(5, 5, 5, 5)
	picked, err := RouletteSelector{}.Select(rand.New(rand.NewSource(2)), scored, 200)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	seen := map[float64]int{}
	for _, a := range picked {
		seen[a.Weights[0]]++
	}
	if len(seen) != 4 {
		t.Fatalf("expected every agent to be drawn at least once, got %v", seen)
	}
}

func TestTournamentSelectorPicksWinners(t *testing.T) {
	scored := scoredWith(1, 2, 3)
	picked, err := TournamentSelector{TournamentSize: 3}.Select(rand.New(rand.NewSource(3)), scored, 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	wins := 0
	for _, a := range picked {
		if a.Weights[0] == 2 {
			wins++
		}
	}
	if wins == 0 {
		t.Fatal("expected the fittest agent to win some tournaments")
	}
	if _, err := (TournamentSelector{}).Select(rand.New(rand.NewSource(3)), nil, 1); err == nil {
		t.Fatal("expected error on empty population")
	}
}

func TestBlendCrossoverStaysBetweenParents(t *testing.T) {
	a := []float64{0, 1, -1}
	b := []float64{1, 0, 1}
	x, y := BlendCrossover{}.Cross(rand.New(rand.NewSource(4)), a, b)
	for i := range a {
		lo, hi := min(a[i], b[i]), max(a[i], b[i])
		if x[i] < lo || x[i] > hi || y[i] < lo || y[i] > hi {
			t.Fatalf("child gene %d outside parents: x=%v y=%v", i, x, y)
		}
		if got := x[i] + y[i]; got-(a[i]+b[i]) > 1e-12 || (a[i]+b[i])-got > 1e-12 {
			t.Fatalf("blend should conserve the gene sum at %d", i)
		}
	}
	if diff := cmp.Diff([]float64{0, 1, -1}, a); diff != "" {
		t.Fatalf("parent modified:\n%s", diff)
	}
}

func TestSplitCrossoverSwapsSuffix(t *testing.T) {
	a := []float64{1, 1, 1, 1}
	b := []float64{2, 2, 2, 2}
	x, y := SplitCrossover{}.Cross(rand.New(rand.NewSource(5)), a, b)
	if x[0] != 1 || y[0] != 2 {
		t.Fatalf("cut must keep at least one leading gene: x=%v y=%v", x, y)
	}
	if x[3] != 2 || y[3] != 1 {
		t.Fatalf("cut must swap at least the last gene: x=%v y=%v", x, y)
	}
	for i := range x {
		if x[i]+y[i] != 3 {
			t.Fatalf("children are not complementary: x=%v y=%v", x, y)
		}
	}
}

func TestMutatorsChangeOneWeight(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for _, m := range []Mutator{ReplaceMutation{Min: 5, Max: 6}, PerturbMutation{Strength: 0.5}} {
		weights := []float64{0, 0, 0, 0}
		m.Mutate(rng, weights)
		changed := 0
		for _, w := range weights {
			if w != 0 {
				changed++
			}
		}
		if changed != 1 {
			t.Fatalf("%s: expected exactly one changed weight, got %v", m.Name(), weights)
		}
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize(4, scoredWith(3, 9, 1, 9))
	want := GenerationStats{
		Generation:  4,
		Biggest:     9,
		Lowest:      1,
		Mean:        5.5,
		Median:      6,
		BestWeights: []float64{1, 0, 0, 0, 0},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestPopulationNextKeepsSizeAndElites(t *testing.T) {
	cfg := smallConfig()
	cfg.EliteCount = 2
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	pop := spawnPopulation(g.ops, rand.New(rand.NewSource(1)))
	scored := make([]ScoredAgent, len(pop.Agents))
	for i, a := range pop.Agents {
		scored[i] = ScoredAgent{Agent: a, Fitness: float64(i)}
	}

	next, err := pop.Next(scored)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if len(next.Agents) != cfg.NEntities {
		t.Fatalf("population size changed: %d", len(next.Agents))
	}
	if next.Generation != 2 {
		t.Fatalf("unexpected generation %d", next.Generation)
	}
	for i, want := range []int{5, 4} {
		if diff := cmp.Diff(pop.Agents[want].Weights, next.Agents[i].Weights); diff != "" {
			t.Fatalf("elite %d not carried over:\n%s", i, diff)
		}
	}
}

func TestEvaluateIsIndependentOfWorkers(t *testing.T) {
	run := func(workers int) []tetris.Score {
		cfg := smallConfig()
		cfg.Workers = workers
		g, err := New(cfg)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		pop := spawnPopulation(g.ops, rand.New(rand.NewSource(11)))
		scored, err := pop.Evaluate(context.Background())
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		out := make([]tetris.Score, len(scored))
		for i, s := range scored {
			out[i] = s.Score
		}
		return out
	}
	if diff := cmp.Diff(run(1), run(4)); diff != "" {
		t.Fatalf("scores depend on worker count:\n%s", diff)
	}
}

func TestEvaluateStopsOnCancelledContext(t *testing.T) {
	g, err := New(smallConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	pop := spawnPopulation(g.ops, rand.New(rand.NewSource(3)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scored, err := pop.Evaluate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if scored != nil {
		t.Fatalf("expected no scores, got %d", len(scored))
	}
}

func TestTrainBestFitnessNeverDecreases(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxPopulations = 4
	var observed []GenerationStats
	g, err := New(cfg, WithObserver(func(s GenerationStats) { observed = append(observed, s) }))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := g.Train(context.Background())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Reason != StopMaxPopulations {
		t.Fatalf("unexpected stop reason %q", res.Reason)
	}
	if len(observed) != 4 || len(res.Generations) != 4 {
		t.Fatalf("expected 4 generations, observed=%d result=%d", len(observed), len(res.Generations))
	}

	best := observed[0].Biggest
	for _, s := range observed {
		best = max(best, s.Biggest)
		if s.Improved && s.NonProgress != 0 {
			t.Fatalf("generation %d improved but counter is %d", s.Generation, s.NonProgress)
		}
	}
	if res.Best.Fitness != best {
		t.Fatalf("best fitness %f does not match best generation %f", res.Best.Fitness, best)
	}
	if len(res.Best.Agent.Weights) != g.Heuristics().Len() {
		t.Fatalf("best agent has %d weights", len(res.Best.Agent.Weights))
	}
}

func TestTrainStopsOnNonProgress(t *testing.T) {
	cfg := smallConfig()
	cfg.MaxPopulations = 0
	cfg.MaxNonProgressPopulations = IntPtr(0)
	cfg.MaxDrops = 5
	// Every agent places exactly five pieces, so fitness cannot improve after
	// the first generation.
	cfg.Fitness = "dropped_pieces"
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := g.Train(context.Background())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Reason != StopNonProgress {
		t.Fatalf("unexpected stop reason %q", res.Reason)
	}
	if len(res.Generations) != 2 {
		t.Fatalf("expected to stop after the second generation, got %d", len(res.Generations))
	}
}

func TestTrainHonoursCancelledContext(t *testing.T) {
	g, err := New(smallConfig())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := g.Train(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if res.Reason != StopCanceled {
		t.Fatalf("unexpected stop reason %q", res.Reason)
	}
}
