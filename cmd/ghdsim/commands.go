package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ghdsim/internal/config"
	"github.com/san-kum/ghdsim/internal/correlator"
	"github.com/san-kum/ghdsim/internal/departure"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/metrics"
	"github.com/san-kum/ghdsim/internal/models"
	"github.com/san-kum/ghdsim/internal/propagate"
	"github.com/san-kum/ghdsim/internal/storage"
	"github.com/san-kum/ghdsim/internal/tensor"
	"github.com/san-kum/ghdsim/internal/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// session is the set of solvers built from one configuration.
type session struct {
	cfg     *config.Config
	grid    *grid.Grid
	model   *models.LiebLiniger
	dresser *ghd.Dresser
	eff     *ghd.EffectiveComputer
	theta0  *tensor.Field
}

func newSession(cfg *config.Config) (*session, error) {
	g, err := cfg.BuildGrid()
	if err != nil {
		return nil, err
	}
	m, err := cfg.BuildModel(g)
	if err != nil {
		return nil, err
	}
	theta0, err := models.InitialFilling(g, cfg.Initial)
	if err != nil {
		return nil, err
	}
	d := ghd.NewDresser(m, cfg.DressOptions())
	return &session{
		cfg:     cfg,
		grid:    g,
		model:   m,
		dresser: d,
		eff:     ghd.NewEffectiveComputer(m, d),
		theta0:  theta0,
	}, nil
}

func (s *session) propagator() (*propagate.Propagator, error) {
	solver, err := departure.New(s.eff, s.cfg.Departure)
	if err != nil {
		return nil, err
	}
	return propagate.New(solver, s.grid), nil
}

// loadConfig resolves defaults, preset, config file, environment and flags
// in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(env)

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("implicit") {
		cfg.Departure.Implicit = implicit
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func departureMode(cfg *config.Config) string {
	if cfg.Departure.Implicit {
		return "implicit"
	}
	return "explicit"
}

func runPropagation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runOrder > 0 {
		cfg.Correlator = config.CorrelatorConfig{Enabled: true, Order: runOrder}
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	prop, err := s.propagator()
	if err != nil {
		return err
	}
	prop.AddMetric(metrics.NewAtomNumber(s.dresser))
	prop.AddMetric(metrics.NewChargeDrift(s.dresser, 0))
	prop.AddMetric(metrics.NewChargeDrift(s.dresser, 2))
	prop.AddMetric(metrics.NewFillingBounds(1e-9))

	pcfg, err := cfg.PropagateConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logrus.WithFields(logrus.Fields{
		"model":     cfg.Model,
		"departure": departureMode(cfg),
		"grid":      fmt.Sprintf("%dx%dx%d", cfg.Grid.NR, cfg.Grid.Species, cfg.Grid.NX),
	})
	log.Info("propagating")
	start := time.Now()

	result, err := prop.Run(ctx, s.theta0, pcfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	density := storage.Profiles{Times: result.Times, Values: make([][]float64, len(result.Snapshots))}
	for i, theta := range result.Snapshots {
		q, err := s.dresser.Charges(theta, 0, result.Times[i])
		if err != nil {
			return fmt.Errorf("density at t=%.4f: %w", result.Times[i], err)
		}
		density.Values[i] = q
	}

	var corr *storage.Profiles
	corrOrderUsed := 0
	if cfg.Correlator.Enabled {
		corrOrderUsed = cfg.Correlator.Order
		engine := correlator.New(s.dresser)
		corr = &storage.Profiles{Times: result.Times, Values: make([][]float64, len(result.Snapshots))}
		for i, theta := range result.Snapshots {
			g, err := engine.LocalMasked(corrOrderUsed, theta, result.Times[i])
			if err != nil {
				return fmt.Errorf("correlator at t=%.4f: %w", result.Times[i], err)
			}
			corr.Values[i] = g
		}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(&storage.Run{
		Meta: storage.RunMetadata{
			Model:     cfg.Model,
			Preset:    preset,
			Dt:        cfg.Dt,
			Duration:  cfg.Duration,
			Departure: departureMode(cfg),
			Grid: storage.GridInfo{
				NX: s.grid.NX(), NR: s.grid.NR(), Species: s.grid.Species(),
				Positions: s.grid.Positions(),
			},
			Steps:           result.StepsTaken,
			Unconverged:     result.Unconverged,
			CorrelatorOrder: corrOrderUsed,
			Metrics:         result.Metrics,
		},
		Density:    density,
		Correlator: corr,
		Fillings:   result.Snapshots,
		Config:     cfg,
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (unconverged: %d)\n", result.StepsTaken, result.Unconverged)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func printEffective(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	x := position
	if x < 0 {
		x = s.grid.NX() / 2
	}
	if x >= s.grid.NX() {
		return fmt.Errorf("position index %d out of range [0, %d)", x, s.grid.NX())
	}

	fields, err := s.eff.Compute(s.theta0, evalTime)
	if err != nil {
		return err
	}

	fmt.Printf("x = %.4f, t = %.4f\n\n", s.grid.X(x), evalTime)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tRAPIDITY\tTHETA\tV_EFF\tA_EFF")
	for sp := 0; sp < s.grid.Species(); sp++ {
		for r := 0; r < s.grid.NR(); r++ {
			fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.6f\t%.6f\n",
				sp,
				s.grid.Rapidity(r),
				s.theta0.At(r, sp, x),
				fields.Velocity.At(r, sp, x),
				fields.Acceleration.At(r, sp, x),
			)
		}
	}
	return w.Flush()
}

func printCorrelator(cmd *cobra.Command, args []string) error {
	var (
		s      *session
		thetas []*tensor.Field
		times  []float64
	)
	if len(args) == 1 {
		st := storage.New(dataDir)
		cfg := config.DefaultConfig()
		if err := st.LoadConfig(args[0], cfg); err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		cfg.ApplyEnv(env)
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		var err error
		if s, err = newSession(cfg); err != nil {
			return err
		}
		if times, thetas, err = st.LoadFillings(args[0]); err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if s, err = newSession(cfg); err != nil {
			return err
		}
		thetas, times = []*tensor.Field{s.theta0}, []float64{0}
	}

	engine := correlator.New(s.dresser)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIME\tX\tDENSITY\tG%d\n", corrOrder)
	for i, theta := range thetas {
		density, err := s.dresser.Charges(theta, 0, times[i])
		if err != nil {
			return err
		}
		g, err := engine.LocalMasked(corrOrder, theta, times[i])
		if err != nil {
			return err
		}
		for x := range g {
			fmt.Fprintf(w, "%.4f\t%.4f\t%.6f\t%s\n", times[i], s.grid.X(x), density[x], formatValue(g[x]))
		}
	}
	return w.Flush()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6f", v)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tDEPARTURE\tSTEPS\tUNCONV\tG_N")
	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4f\t%s\t%d\t%d\t%d\n",
			run.ID,
			name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Departure,
			run.Steps,
			run.Unconverged,
			run.CorrelatorOrder,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if correlated && meta.CorrelatorOrder == 0 {
		return fmt.Errorf("run %s has no stored correlator", runID)
	}
	profiles, err := st.LoadProfiles(runID, correlated)
	if err != nil {
		return err
	}
	if len(profiles.Values) == 0 {
		return fmt.Errorf("no data to plot")
	}

	indices := []int{0, len(profiles.Values) - 1}
	if snapshot >= 0 {
		if snapshot >= len(profiles.Values) {
			return fmt.Errorf("snapshot %d out of range [0, %d)", snapshot, len(profiles.Values))
		}
		indices = []int{snapshot}
	} else if len(profiles.Values) == 1 {
		indices = indices[:1]
	}

	quantity := "density"
	if correlated {
		quantity = fmt.Sprintf("g%d", meta.CorrelatorOrder)
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("snapshots: %d\n\n", len(profiles.Values))

	for _, i := range indices {
		graph := asciigraph.Plot(profiles.Values[i],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs x at t=%.3f", quantity, profiles.Times[i])),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func listPresets(cmd *cobra.Command, args []string) error {
	model := config.DefaultConfig().Model
	fmt.Printf("presets for %s:\n", model)
	for _, name := range config.ListPresets(model) {
		p := config.GetPreset(model, name)
		fmt.Printf("  %-18s dt=%.3f time=%.1f departure=%s\n", name, p.Dt, p.Duration, departureMode(p))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	prop, err := s.propagator()
	if err != nil {
		return err
	}
	pcfg, err := cfg.PropagateConfig()
	if err != nil {
		return err
	}
	n := liveOrder
	if n == 0 && cfg.Correlator.Enabled {
		n = cfg.Correlator.Order
	}
	title := cfg.Model
	if preset != "" {
		title = preset
	}

	// warnings would corrupt the alternate screen
	logrus.SetLevel(logrus.ErrorLevel)
	return tui.Run(tui.NewModel(prop, s.dresser, s.theta0, tui.Options{
		Title:           title,
		Dt:              pcfg.Dt,
		Extrapolation:   pcfg.Extrapolation,
		CorrelatorOrder: n,
		FrameRate:       frameRate,
	}))
}
