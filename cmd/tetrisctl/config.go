package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"tetrisga/internal/evo"
)

// loadTrainConfig reads a JSON run config over the defaults. Unknown keys
// are ignored; a max_non_progress_populations of null or a negative number
// disables the stagnation stop.
func loadTrainConfig(path string) (evo.Config, error) {
	cfg := evo.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, err
	}

	if v, ok := asInt(raw["n_entities"]); ok {
		cfg.NEntities = v
	}
	if v, ok := asFloat64(raw["mutation_rate"]); ok {
		cfg.MutationRate = v
	}
	if v, ok := asInt(raw["max_drops"]); ok {
		cfg.MaxDrops = v
	}
	if v, ok := asInt(raw["max_populations"]); ok {
		cfg.MaxPopulations = v
	}
	if v, ok := asInt(raw["max_non_progress_populations"]); ok {
		cfg.MaxNonProgressPopulations = nonProgressLimit(v)
	}
	if v, ok := asStringList(raw["heuristics"]); ok {
		cfg.Heuristics = v
	}
	if v, ok := asString(raw["branching"]); ok {
		cfg.Branching = v
	}
	if v, ok := asString(raw["selection"]); ok {
		cfg.Selection = v
	}
	if v, ok := asInt(raw["tournament_size"]); ok {
		cfg.TournamentSize = v
	}
	if v, ok := asString(raw["crossover"]); ok {
		cfg.Crossover = v
	}
	if v, ok := asFloat64(raw["crossover_rate"]); ok {
		cfg.CrossoverRate = v
	}
	if v, ok := asString(raw["mutation"]); ok {
		cfg.Mutation = v
	}
	if v, ok := asFloat64(raw["mutation_strength"]); ok {
		cfg.MutationStrength = v
	}
	if v, ok := asString(raw["fitness"]); ok {
		cfg.Fitness = v
	}
	if v, ok := asInt(raw["elite_count"]); ok {
		cfg.EliteCount = v
	}
	if v, ok := asFloat64(raw["weight_min"]); ok {
		cfg.WeightMin = v
	}
	if v, ok := asFloat64(raw["weight_max"]); ok {
		cfg.WeightMax = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		cfg.Workers = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	return cfg, nil
}

func nonProgressLimit(v int) *int {
	if v < 0 {
		return nil
	}
	return evo.IntPtr(v)
}

// trainFlags holds the train subcommand flags bound to their config fields.
type trainFlags struct {
	nEntities        *int
	mutationRate     *float64
	maxDrops         *int
	maxPopulations   *int
	maxNonProgress   *int
	heuristics       *string
	branching        *string
	selection        *string
	tournamentSize   *int
	crossover        *string
	crossoverRate    *float64
	mutation         *string
	mutationStrength *float64
	fitness          *string
	elite            *int
	weightMin        *float64
	weightMax        *float64
	workers          *int
	seed             *int64
}

func bindTrainFlags(fs *flag.FlagSet) *trainFlags {
	d := evo.DefaultConfig()
	return &trainFlags{
		nEntities:        fs.Int("n", d.NEntities, "population size (even)"),
		mutationRate:     fs.Float64("mutation-rate", d.MutationRate, "per-agent mutation probability"),
		maxDrops:         fs.Int("max-drops", d.MaxDrops, "pieces per evaluation game (0 is unbounded)"),
		maxPopulations:   fs.Int("max-populations", d.MaxPopulations, "generation limit (0 is unbounded)"),
		maxNonProgress:   fs.Int("max-non-progress", -1, "stop after this many generations without improvement (<0 disables)"),
		heuristics:       fs.String("heuristics", strings.Join(d.Heuristics, ","), "comma separated heuristic names"),
		branching:        fs.String("branching", d.Branching, "search depth: current|current_and_next"),
		selection:        fs.String("selection", d.Selection, "parent selection: roulette|tournament"),
		tournamentSize:   fs.Int("tournament-size", d.TournamentSize, "tournament size for selection=tournament"),
		crossover:        fs.String("crossover", d.Crossover, "crossover: blend|split"),
		crossoverRate:    fs.Float64("crossover-rate", d.CrossoverRate, "per-pair crossover probability"),
		mutation:         fs.String("mutation", d.Mutation, "mutation: replace|perturb"),
		mutationStrength: fs.Float64("mutation-strength", d.MutationStrength, "perturbation size for mutation=perturb"),
		fitness:          fs.String("fitness", d.Fitness, "fitness: score|dropped_pieces"),
		elite:            fs.Int("elite", d.EliteCount, "agents copied unchanged into the next generation"),
		weightMin:        fs.Float64("weight-min", d.WeightMin, "lower bound for random weights"),
		weightMax:        fs.Float64("weight-max", d.WeightMax, "upper bound for random weights"),
		workers:          fs.Int("workers", d.Workers, "evaluation workers (0 uses every CPU)"),
		seed:             fs.Int64("seed", d.Seed, "rng seed"),
	}
}

// apply copies every flag named in set onto cfg.
func (f *trainFlags) apply(cfg *evo.Config, set map[string]bool) error {
	for name := range set {
		switch name {
		case "n":
			cfg.NEntities = *f.nEntities
		case "mutation-rate":
			cfg.MutationRate = *f.mutationRate
		case "max-drops":
			cfg.MaxDrops = *f.maxDrops
		case "max-populations":
			cfg.MaxPopulations = *f.maxPopulations
		case "max-non-progress":
			cfg.MaxNonProgressPopulations = nonProgressLimit(*f.maxNonProgress)
		case "heuristics":
			names, err := splitList(*f.heuristics)
			if err != nil {
				return err
			}
			cfg.Heuristics = names
		case "branching":
			cfg.Branching = *f.branching
		case "selection":
			cfg.Selection = *f.selection
		case "tournament-size":
			cfg.TournamentSize = *f.tournamentSize
		case "crossover":
			cfg.Crossover = *f.crossover
		case "crossover-rate":
			cfg.CrossoverRate = *f.crossoverRate
		case "mutation":
			cfg.Mutation = *f.mutation
		case "mutation-strength":
			cfg.MutationStrength = *f.mutationStrength
		case "fitness":
			cfg.Fitness = *f.fitness
		case "elite":
			cfg.EliteCount = *f.elite
		case "weight-min":
			cfg.WeightMin = *f.weightMin
		case "weight-max":
			cfg.WeightMax = *f.weightMax
		case "workers":
			cfg.Workers = *f.workers
		case "seed":
			cfg.Seed = *f.seed
		}
	}
	return nil
}

func splitList(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("heuristic list cannot be empty")
	}
	return out, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asStringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
