package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"tetrisga/internal/agent"
	"tetrisga/internal/evo"
	"tetrisga/internal/heuristics"
	"tetrisga/internal/stats"
	"tetrisga/internal/storage"
	"tetrisga/internal/tetris"
	"tetrisga/internal/viewer"
	"tetrisga/pkg/tetrisga"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
	defaultDBPath = "tetrisga.db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "watch":
		return runWatch(ctx, args[1:])
	case "play":
		return runPlay(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "landscape":
		return runLandscape(ctx, args[1:])
	case "heuristics":
		return runHeuristics(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind     *string
	dbPath   *string
	logLevel *string
}

func bindStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:     fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:   fs.String("db-path", defaultDBPath, "sqlite database path"),
		logLevel: fs.String("log-level", "info", "log level: debug|info|warn|error|disabled"),
	}
}

func (f storeFlags) client() (*tetrisga.Client, zerolog.Logger, error) {
	logger, err := newLogger(*f.logLevel, os.Stderr)
	if err != nil {
		return nil, logger, err
	}
	client, err := tetrisga.New(tetrisga.Options{
		StoreKind:     *f.kind,
		DBPath:        *f.dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
		Logger:        logger,
	})
	return client, logger, err
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path; flags given explicitly override it")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	quiet := fs.Bool("quiet", false, "do not print one line per generation")
	store := bindStoreFlags(fs)
	tf := bindTrainFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	cfg := evo.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadTrainConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := tf.apply(&cfg, setFlags); err != nil {
		return err
	}

	client, _, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var observer func(tetrisga.GenerationStats)
	if !*quiet && !*jsonOut {
		observer = func(s tetrisga.GenerationStats) {
			marker := ""
			if s.Improved {
				marker = " *"
			}
			fmt.Printf("gen=%d biggest=%s mean=%s median=%s lowest=%s non_progress=%d%s\n",
				s.Generation,
				humanize.Commaf(s.Biggest),
				humanize.FormatFloat("#,###.##", s.Mean),
				humanize.Commaf(s.Median),
				humanize.Commaf(s.Lowest),
				s.NonProgress,
				marker,
			)
		}
	}

	summary, trainErr := client.Train(ctx, tetrisga.TrainRequest{RunID: *runID, Config: cfg, Observer: observer})
	if trainErr != nil && summary.RunID == "" {
		return trainErr
	}

	if *jsonOut {
		type trainOut struct {
			RunID            string    `json:"run_id"`
			ArtifactsDir     string    `json:"artifacts_dir"`
			Generations      int       `json:"generations"`
			FinalBestFitness float64   `json:"final_best_fitness"`
			BestByGeneration []float64 `json:"best_by_generation"`
			Heuristics       []string  `json:"heuristics"`
			BestWeights      []float64 `json:"best_weights"`
			StopReason       string    `json:"stop_reason"`
			DurationMS       int64     `json:"duration_ms"`
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(trainOut{
			RunID:            summary.RunID,
			ArtifactsDir:     summary.ArtifactsDir,
			Generations:      len(summary.BestByGeneration),
			FinalBestFitness: summary.FinalBestFitness,
			BestByGeneration: summary.BestByGeneration,
			Heuristics:       summary.Heuristics,
			BestWeights:      summary.BestWeights,
			StopReason:       summary.StopReason,
			DurationMS:       summary.Duration.Milliseconds(),
		}); err != nil {
			return err
		}
		return ignoreCanceled(trainErr)
	}

	fmt.Printf("run_id=%s generations=%d final_best_fitness=%s stop_reason=%s took=%s artifacts=%s\n",
		summary.RunID,
		len(summary.BestByGeneration),
		humanize.Commaf(summary.FinalBestFitness),
		summary.StopReason,
		summary.Duration.Round(time.Millisecond),
		summary.ArtifactsDir,
	)
	fmt.Printf("best_weights=%s\n", stats.FormatWeights(summary.BestWeights))
	return ignoreCanceled(trainErr)
}

// ignoreCanceled treats an interrupted run that was still recorded as a
// normal exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, _, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, tetrisga.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string   `json:"run_id"`
			CreatedAtUTC     string   `json:"created_at_utc"`
			Seed             int64    `json:"seed"`
			PopulationSize   int      `json:"population_size"`
			Generations      int      `json:"generations"`
			Heuristics       []string `json:"heuristics"`
			FinalBestFitness float64  `json:"final_best_fitness"`
			StopReason       string   `json:"stop_reason"`
		}
		items := make([]runsItem, 0, len(runs))
		for _, r := range runs {
			items = append(items, runsItem{
				RunID:            r.RunID,
				CreatedAtUTC:     r.CreatedAtUTC,
				Seed:             r.Seed,
				PopulationSize:   r.Population,
				Generations:      r.Generations,
				Heuristics:       r.Heuristics,
				FinalBestFitness: r.FinalBestFitness,
				StopReason:       r.StopReason,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		created := r.CreatedAtUTC
		if ts, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			created = humanize.Time(ts)
		}
		fmt.Printf("run_id=%s created=%s seed=%d pop=%d gens=%d final_best_fitness=%s stop_reason=%s\n",
			r.RunID,
			strings.ReplaceAll(created, " ", "_"),
			r.Seed,
			r.Population,
			r.Generations,
			humanize.Commaf(r.FinalBestFitness),
			r.StopReason,
		)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run from run index")
	limit := fs.Int("limit", 0, "max generations to show (0 shows all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, _, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Diagnostics(ctx, tetrisga.DiagnosticsRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type diagnosticsItem struct {
			Generation        int     `json:"generation"`
			BestFitness       float64 `json:"best_fitness"`
			MeanFitness       float64 `json:"mean_fitness"`
			MedianFitness     float64 `json:"median_fitness"`
			MinFitness        float64 `json:"min_fitness"`
			BestScore         int     `json:"best_score"`
			BestDroppedPieces int     `json:"best_dropped_pieces"`
			Improved          bool    `json:"improved"`
			NonProgress       int     `json:"non_progress"`
		}
		out := make([]diagnosticsItem, 0, len(items))
		for _, d := range items {
			out = append(out, diagnosticsItem(d))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, d := range items {
		fmt.Printf("generation=%d best=%s mean=%s median=%s min=%s best_score=%s best_pieces=%s improved=%t non_progress=%d\n",
			d.Generation,
			humanize.Commaf(d.BestFitness),
			humanize.FormatFloat("#,###.##", d.MeanFitness),
			humanize.Commaf(d.MedianFitness),
			humanize.Commaf(d.MinFitness),
			humanize.Comma(int64(d.BestScore)),
			humanize.Comma(int64(d.BestDroppedPieces)),
			d.Improved,
			d.NonProgress,
		)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run from run index")
	outPath := fs.String("out", "", "also write the weights to this file")
	jsonOut := fs.Bool("json", false, "emit best weights as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, _, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	best, err := client.BestWeights(ctx, tetrisga.BestWeightsRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *outPath != "" {
		if err := stats.WriteWeights(*outPath, best.Weights); err != nil {
			return err
		}
	}
	if *jsonOut {
		type bestOut struct {
			RunID      string    `json:"run_id"`
			Heuristics []string  `json:"heuristics"`
			Weights    []float64 `json:"weights"`
			Fitness    float64   `json:"fitness"`
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bestOut(best))
	}

	fmt.Printf("run_id=%s fitness=%s\n", best.RunID, humanize.Commaf(best.Fitness))
	for i, w := range best.Weights {
		name := "?"
		if i < len(best.Heuristics) {
			name = best.Heuristics[i]
		}
		fmt.Printf("  %-20s %g\n", name, w)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := tetrisga.New(tetrisga.Options{StoreKind: "memory", BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, tetrisga.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", summary.RunID, summary.Directory)
	return nil
}

// agentFlags select the weights an agent plays with: a weights file, or the
// best weights of a recorded run.
type agentFlags struct {
	weightsPath *string
	runID       *string
	latest      *bool
	heuristics  *string
	branching   *string
}

func bindAgentFlags(fs *flag.FlagSet) agentFlags {
	return agentFlags{
		weightsPath: fs.String("weights", "", "weights file (one line of space separated floats)"),
		runID:       fs.String("run-id", "", "play the best weights of this run"),
		latest:      fs.Bool("latest", false, "play the best weights of the most recent run"),
		heuristics:  fs.String("heuristics", strings.Join(heuristics.DefaultNames(), ","), "heuristics the weights file was trained with"),
		branching:   fs.String("branching", agent.Current.String(), "search depth: current|current_and_next"),
	}
}

func (f agentFlags) load(ctx context.Context, store storeFlags) (agent.Agent, error) {
	var (
		weights []float64
		names   []string
		err     error
	)
	switch {
	case *f.weightsPath != "":
		if *f.runID != "" || *f.latest {
			return agent.Agent{}, errors.New("use either --weights or a run, not both")
		}
		weights, err = stats.ReadWeights(*f.weightsPath)
		if err != nil {
			return agent.Agent{}, err
		}
		names, err = splitList(*f.heuristics)
		if err != nil {
			return agent.Agent{}, err
		}
	case *f.runID != "" || *f.latest:
		client, _, err := store.client()
		if err != nil {
			return agent.Agent{}, err
		}
		defer func() {
			_ = client.Close()
		}()
		best, err := client.BestWeights(ctx, tetrisga.BestWeightsRequest{RunID: *f.runID, Latest: *f.latest})
		if err != nil {
			return agent.Agent{}, err
		}
		weights, names = best.Weights, best.Heuristics
		if len(names) == 0 {
			names = heuristics.DefaultNames()
		}
	default:
		return agent.Agent{}, errors.New("requires --weights, --run-id or --latest")
	}

	set, err := heuristics.FromNames(names)
	if err != nil {
		return agent.Agent{}, err
	}
	a, err := agent.FromWeights(weights, set)
	if err != nil {
		return agent.Agent{}, err
	}
	a.Branching, err = agent.ParseBranchingMode(*f.branching)
	if err != nil {
		return agent.Agent{}, err
	}
	return a, nil
}

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	seed := fs.Int64("seed", time.Now().UnixNano(), "piece sequence seed")
	interval := fs.Duration("interval", 150*time.Millisecond, "delay between agent moves")
	maxDrops := fs.Int("max-drops", 0, "stop after this many pieces (0 is unbounded)")
	af := bindAgentFlags(fs)
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := af.load(ctx, store)
	if err != nil {
		return err
	}
	final, err := viewer.Run(viewer.Config{
		Source:    tetris.NewRandomSource(rand.New(rand.NewSource(*seed))),
		Autopilot: &a,
		Interval:  *interval,
		MaxDrops:  *maxDrops,
	})
	if err != nil {
		return err
	}
	printScore(final.Score)
	return nil
}

func runPlay(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	seed := fs.Int64("seed", time.Now().UnixNano(), "piece sequence seed")
	interval := fs.Duration("interval", 500*time.Millisecond, "gravity interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	final, err := viewer.Run(viewer.Config{
		Source:   tetris.NewRandomSource(rand.New(rand.NewSource(*seed))),
		Interval: *interval,
	})
	if err != nil {
		return err
	}
	printScore(final.Score)
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	seed := fs.Int64("seed", 1, "piece sequence seed")
	maxDrops := fs.Int("max-drops", 50, "pieces to play before rendering (0 plays until lost)")
	af := bindAgentFlags(fs)
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := af.load(ctx, store)
	if err != nil {
		return err
	}
	score, err := a.Play(tetris.NewRandomSource(rand.New(rand.NewSource(*seed))), *maxDrops)
	if err != nil {
		return err
	}
	border := strings.Repeat("-", tetris.Width*3)
	fmt.Println(border)
	fmt.Print(a.Game.Board.String())
	fmt.Println(border)
	printScore(score)
	return nil
}

func printScore(s tetris.Score) {
	fmt.Printf("score=%s lines=%s pieces=%s tetrises=%d\n",
		humanize.Comma(int64(s.Score)),
		humanize.Comma(int64(s.ClearedRows)),
		humanize.Comma(int64(s.DroppedPieces)),
		s.Fours,
	)
}

func runLandscape(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("landscape", flag.ContinueOnError)
	x := fs.String("x", heuristics.NameHoles, "heuristic on the x axis")
	y := fs.String("y", heuristics.NameBumpiness, "heuristic on the y axis")
	from := fs.Float64("from", -1, "lowest weight on both axes")
	to := fs.Float64("to", 1, "highest weight on both axes")
	samples := fs.Int("samples", 10, "grid points per axis")
	tries := fs.Int("tries", 20, "games averaged per grid point")
	maxDrops := fs.Int("max-drops", 200, "pieces per game (0 is unbounded)")
	fitness := fs.String("fitness", "score", "fitness: score|dropped_pieces")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 0, "parallel grid points (0 uses every CPU)")
	outPath := fs.String("out", "landscape.csv", "CSV output path")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error|disabled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger, err := newLogger(*logLevel, os.Stderr)
	if err != nil {
		return err
	}

	started := time.Now()
	points, err := stats.Landscape(ctx, stats.LandscapeConfig{
		XHeuristic: *x,
		YHeuristic: *y,
		From:       *from,
		To:         *to,
		Samples:    *samples,
		Tries:      *tries,
		MaxDrops:   *maxDrops,
		Fitness:    *fitness,
		Seed:       *seed,
		Workers:    *workers,
	})
	if err != nil {
		return err
	}
	if err := stats.WriteLandscapeCSV(*outPath, *x, *y, points); err != nil {
		return err
	}
	logger.Info().
		Int("points", len(points)).
		Dur("took", time.Since(started)).
		Str("out", *outPath).
		Msg("landscape written")

	best := points[0]
	for _, p := range points[1:] {
		if p.Fitness > best.Fitness {
			best = p
		}
	}
	fmt.Printf("points=%d best %s=%g %s=%g fitness=%s out=%s\n",
		len(points), *x, best.X, *y, best.Y, humanize.Commaf(best.Fitness), *outPath)
	return nil
}

func runHeuristics(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("heuristics", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	defaults := make(map[string]bool)
	for _, name := range heuristics.DefaultNames() {
		defaults[name] = true
	}
	for _, name := range heuristics.Available() {
		marker := ""
		if defaults[name] {
			marker = " (default)"
		}
		fmt.Printf("%s%s\n", name, marker)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tetrisctl <train|runs|diagnostics|best|export|watch|play|render|landscape|heuristics> [flags]", msg)
}
