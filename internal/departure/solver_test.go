package departure_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ghdsim/internal/departure"
	"github.com/san-kum/ghdsim/internal/ghd"
	"github.com/san-kum/ghdsim/internal/grid"
	"github.com/san-kum/ghdsim/internal/interp"
	"github.com/san-kum/ghdsim/internal/models"
	"github.com/san-kum/ghdsim/internal/tensor"
)

func trapComputer(g *grid.Grid) *ghd.EffectiveComputer {
	table, err := models.BuildCouplings(
		models.CouplingSpec{Kind: "harmonic", Value: 2, Omega: 1},
		models.CouplingSpec{Kind: "constant", Value: 1},
	)
	Expect(err).NotTo(HaveOccurred())
	m, err := models.NewLiebLiniger(g, table)
	Expect(err).NotTo(HaveOccurred())
	return ghd.NewEffectiveComputer(m, ghd.NewDresser(m, ghd.DefaultOptions()))
}

func gridFields(g *grid.Grid) (x, r *tensor.Field) {
	return tensor.FieldFromPosition(g.Positions(), g.NR(), g.Species()),
		tensor.FieldFromRapidity(g.Rapidities(), g.Species(), g.NX())
}

var _ = Describe("Solver", func() {
	var (
		g     *grid.Grid
		eff   *ghd.EffectiveComputer
		theta *tensor.Field
	)

	BeforeEach(func() {
		var err error
		g, err = grid.Uniform(-2, 2, 9, -3, 3, 12, 1)
		Expect(err).NotTo(HaveOccurred())
		eff = trapComputer(g)
		theta = tensor.FieldFromFunc(g.NR(), 1, g.NX(), func(r, _, x int) float64 {
			k, pos := g.Rapidity(r), g.X(x)
			return 1 / (1 + math.Exp(k*k-2+0.5*pos*pos))
		})
	})

	Describe("explicit mode", func() {
		It("returns the grid exactly when dt is zero", func() {
			s, err := departure.New(eff, departure.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Solve(theta, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			xg, rg := gridFields(g)
			Expect(res.X.Equal(xg)).To(BeTrue())
			Expect(res.R.Equal(rg)).To(BeTrue())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Err()).To(Succeed())
		})

		It("traces back along the effective fields", func() {
			s, err := departure.New(eff, departure.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			const dt = 0.01
			res, err := s.Solve(theta, 0, dt)
			Expect(err).NotTo(HaveOccurred())

			xg, rg := gridFields(g)
			for r := 0; r < g.NR(); r++ {
				for x := 0; x < g.NX(); x++ {
					Expect(res.X.At(r, 0, x)).To(BeNumerically("~", xg.At(r, 0, x)-dt*res.Velocity.At(r, 0, x), 1e-15))
					// harmonic trap: a = −ω²x
					Expect(res.R.At(r, 0, x)).To(BeNumerically("~", rg.At(r, 0, x)+dt*g.X(x), 1e-12))
				}
			}
		})
	})

	Describe("implicit mode", func() {
		var cfg departure.Config

		BeforeEach(func() {
			cfg = departure.DefaultConfig()
			cfg.Implicit = true
		})

		It("returns the grid exactly when dt is zero", func() {
			s, err := departure.New(eff, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Solve(theta, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			xg, rg := gridFields(g)
			Expect(res.X.Equal(xg)).To(BeTrue())
			Expect(res.R.Equal(rg)).To(BeTrue())
			Expect(res.Iterations).To(Equal(1))
		})

		DescribeTable("approaches the grid as dt shrinks",
			func(dt float64) {
				s, err := departure.New(eff, cfg)
				Expect(err).NotTo(HaveOccurred())

				res, err := s.Solve(theta, 0, dt)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Converged).To(BeTrue())

				xg, rg := gridFields(g)
				bound := 10 * dt * (1 + res.Velocity.MaxAbsDiff(tensor.NewField(res.Velocity.Dims())))
				Expect(res.X.MaxAbsDiff(xg)).To(BeNumerically("<=", bound))
				Expect(res.R.MaxAbsDiff(rg)).To(BeNumerically("<=", bound))
			},
			Entry("dt=1e-2", 1e-2),
			Entry("dt=1e-4", 1e-4),
			Entry("dt=1e-8", 1e-8),
		)

		It("agrees with explicit mode to first order", func() {
			s, err := departure.New(eff, cfg)
			Expect(err).NotTo(HaveOccurred())
			ex, err := departure.New(eff, departure.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			const dt = 1e-3
			ri, err := s.Solve(theta, 0, dt)
			Expect(err).NotTo(HaveOccurred())
			re, err := ex.Solve(theta, 0, dt)
			Expect(err).NotTo(HaveOccurred())

			Expect(ri.X.MaxAbsDiff(re.X)).To(BeNumerically("<", 1e-3))
			Expect(ri.Velocity.Equal(re.Velocity)).To(BeTrue())
		})

		It("converges to the midpoint fixed point", func() {
			cfg.Tolerance = 1e-20
			cfg.MaxIterations = 200
			s, err := departure.New(eff, cfg)
			Expect(err).NotTo(HaveOccurred())
			ex, err := departure.New(eff, departure.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			const dt = 0.05
			res, err := s.Solve(theta, 0, dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())

			xg, rg := gridFields(g)
			xMid := xg.Map(func(r, sp, x int, v float64) float64 { return (v + res.X.At(r, sp, x)) / 2 })
			rMid := rg.Map(func(r, sp, x int, v float64) float64 { return (v + res.R.At(r, sp, x)) / 2 })
			vMid := interp.PhaseSpace(res.Velocity, g, rMid, xMid, interp.Clamp)
			aMid := interp.PhaseSpace(res.Acceleration, g, rMid, xMid, interp.Clamp)
			for r := 0; r < g.NR(); r++ {
				for x := 0; x < g.NX(); x++ {
					Expect(res.X.At(r, 0, x)).To(BeNumerically("~", xg.At(r, 0, x)-dt*vMid.At(r, 0, x), 1e-8))
					Expect(res.R.At(r, 0, x)).To(BeNumerically("~", rg.At(r, 0, x)-dt*aMid.At(r, 0, x), 1e-8))
				}
			}

			explicit, err := ex.Solve(theta, 0, dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.R.MaxAbsDiff(explicit.R)).To(BeNumerically(">", 1e-4))
		})

		It("flags an exhausted iteration budget", func() {
			cfg.MaxIterations = 1
			cfg.Tolerance = 1e-300
			s, err := departure.New(eff, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Solve(theta, 0, 0.05)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.Iterations).To(Equal(1))
			Expect(errors.Is(res.Err(), departure.ErrNonConvergence)).To(BeTrue())

			var nce *departure.NonConvergenceError
			Expect(errors.As(res.Err(), &nce)).To(BeTrue())
			Expect(nce.Iterations).To(Equal(1))
		})
	})

	DescribeTable("rejects invalid configurations",
		func(cfg departure.Config) {
			_, err := departure.New(eff, cfg)
			Expect(err).To(MatchError(departure.ErrInvalidConfig))
		},
		Entry("zero tolerance", departure.Config{Implicit: true, Tolerance: 0, MaxIterations: 5}),
		Entry("no iterations", departure.Config{Implicit: true, Tolerance: 1e-8, MaxIterations: 0}),
		Entry("unknown extrapolation", departure.Config{Extrapolation: "spline"}),
	)
})
