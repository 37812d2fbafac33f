package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/integrators"
	"github.com/san-kum/bucketsim/internal/physics"
	"github.com/san-kum/bucketsim/internal/sim"
)

func finalLevel(tr *dynamo.Trajectory) float64 {
	_, x := tr.Final()
	return x[0]
}

func expectIncreasing(times []float64) {
	for i := 1; i < len(times); i++ {
		Expect(times[i]).To(BeNumerically(">", times[i-1]), "sample %d", i)
	}
}

var _ = Describe("Run", func() {
	Describe("the baseline scenario", func() {
		var tr *dynamo.Trajectory

		BeforeEach(func() {
			var err error
			tr, err = sim.Run(sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
		})

		It("completes over the whole span", func() {
			Expect(tr.Success).To(BeTrue(), tr.Message)
			Expect(tr.Status).To(Equal(dynamo.StatusCompleted))
			Expect(tr.Times[0]).To(Equal(0.0))
			Expect(tr.Times[tr.Len()-1]).To(Equal(20.0))
			expectIncreasing(tr.Times)
		})

		It("matches the reference level at t=20", func() {
			Expect(finalLevel(tr)).To(BeNumerically("~", 5.027, 5e-3))
			Expect(finalLevel(tr)).To(BeNumerically("<", physics.Equilibrium(10)))
		})

		It("reports evaluation counts", func() {
			Expect(tr.NFev).To(BeNumerically(">", 10000))
			Expect(tr.NJev).To(BeZero())
			Expect(tr.NLU).To(BeZero())
			Expect(tr.Solver).To(Equal("rk45"))
		})

		It("never goes below zero", func() {
			for _, x := range tr.States {
				Expect(x[0]).To(BeNumerically(">=", -1e-9))
			}
		})

		It("is deterministic", func() {
			again, err := sim.Run(sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Times).To(Equal(tr.Times))
			Expect(again.States).To(Equal(tr.States))
			Expect(again.NFev).To(Equal(tr.NFev))
		})
	})

	DescribeTable("converges to the equilibrium level",
		func(q0, area float64) {
			cfg := sim.DefaultConfig()
			cfg.Area = area
			cfg.Inflow = control.Constant(q0)
			cfg.Span = dynamo.Span{Start: 0, End: 100}
			cfg.MaxStep = 0.05

			tr, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Success).To(BeTrue(), tr.Message)
			Expect(finalLevel(tr)).To(BeNumerically("~", physics.Equilibrium(q0), 1e-2))

			for _, x := range tr.States {
				Expect(x[0]).To(BeNumerically("<=", physics.Equilibrium(q0)+1e-2))
			}
		},
		Entry("baseline tank", 10.0, 5.0),
		Entry("narrow tank", 5.0, 2.0),
		Entry("small inflow", 2.0, 1.0),
		Entry("wide tank", 3.0, 8.0),
	)

	DescribeTable("agrees across solvers",
		func(name string, tolerance float64) {
			solver, err := integrators.New(name)
			Expect(err).NotTo(HaveOccurred())

			cfg := sim.DefaultConfig()
			cfg.Solver = solver
			tr, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Success).To(BeTrue(), tr.Message)
			Expect(tr.Solver).To(Equal(name))
			Expect(tr.Times[tr.Len()-1]).To(Equal(20.0))
			Expect(finalLevel(tr)).To(BeNumerically("~", 5.027, tolerance))
		},
		Entry("rk45", "rk45", 5e-3),
		Entry("dopri", "dopri", 5e-3),
		Entry("rk4", "rk4", 5e-3),
		Entry("euler", "euler", 2e-2),
	)

	Describe("draining below empty", func() {
		var cfg sim.Config

		BeforeEach(func() {
			cfg = sim.DefaultConfig()
			cfg.InitialLevel = 4
			cfg.Inflow = control.Constant(0)
		})

		It("clamps at an empty tank by default", func() {
			tr, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Success).To(BeTrue(), tr.Message)
			Expect(tr.Times[tr.Len()-1]).To(Equal(20.0))
			for _, x := range tr.States {
				Expect(x[0]).To(BeNumerically(">=", -1e-3))
			}
			Expect(finalLevel(tr)).To(BeNumerically("~", 0, 1e-3))
		})

		It("reports a domain failure with the strict policy", func() {
			cfg.Policy = physics.Strict
			tr, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Success).To(BeFalse())
			Expect(tr.Status).To(Equal(dynamo.StatusFailed))
			Expect(tr.Err).To(MatchError(dynamo.ErrDomain))
			Expect(tr.Message).NotTo(BeEmpty())

			Expect(tr.Times[0]).To(Equal(0.0))
			expectIncreasing(tr.Times)
			drain := physics.DrainTime(cfg.Area, cfg.InitialLevel)
			Expect(tr.Times[tr.Len()-1]).To(BeNumerically("~", drain, 0.5))
		})
	})

	It("follows a step in the inflow", func() {
		cfg := sim.DefaultConfig()
		cfg.Inflow = control.Step{Before: 4, After: 10, At: 10}
		cfg.Span = dynamo.Span{Start: 0, End: 60}
		cfg.MaxStep = 0.05

		tr, err := sim.Run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Success).To(BeTrue(), tr.Message)

		var atSwitch float64
		for i, tm := range tr.Times {
			if tm <= 10 {
				atSwitch = tr.States[i][0]
			}
		}
		Expect(atSwitch).To(BeNumerically("~", physics.Equilibrium(4), 0.05))
		Expect(finalLevel(tr)).To(BeNumerically("~", physics.Equilibrium(10), 1e-2))
	})

	DescribeTable("rejects invalid configuration before integrating",
		func(mutate func(*sim.Config), field string) {
			cfg := sim.DefaultConfig()
			mutate(&cfg)

			tr, err := sim.Run(cfg)
			Expect(tr).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrConfiguration))

			var cfgErr *dynamo.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal(field))
		},
		Entry("zero area", func(c *sim.Config) { c.Area = 0 }, "area"),
		Entry("negative area", func(c *sim.Config) { c.Area = -1 }, "area"),
		Entry("empty span", func(c *sim.Config) { c.Span = dynamo.Span{Start: 5, End: 5} }, "time_span"),
		Entry("reversed span", func(c *sim.Config) { c.Span = dynamo.Span{Start: 10, End: 2} }, "time_span"),
		Entry("negative level", func(c *sim.Config) { c.InitialLevel = -0.5 }, "initial_level"),
		Entry("zero max step", func(c *sim.Config) { c.MaxStep = 0 }, "max_step"),
		Entry("negative max step", func(c *sim.Config) { c.MaxStep = -0.01 }, "max_step"),
		Entry("missing inflow", func(c *sim.Config) { c.Inflow = nil }, "inflow"),
		Entry("nan level", func(c *sim.Config) { c.InitialLevel = math.NaN() }, "initial_level"),
	)
})

var _ = Describe("Sweep", func() {
	areas := []float64{1, 2, 5, 10}

	configs := func() []sim.Config {
		cfgs := make([]sim.Config, len(areas))
		for i, a := range areas {
			cfgs[i] = sim.DefaultConfig()
			cfgs[i].Area = a
		}
		return cfgs
	}

	It("returns one trajectory per config in input order", func() {
		results, err := sim.Sweep(context.Background(), configs())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(areas)))

		for i, cfg := range configs() {
			serial, err := sim.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[i].Success).To(BeTrue())
			Expect(results[i].States).To(Equal(serial.States))
		}

		// A wider tank fills more slowly.
		for i := 1; i < len(results); i++ {
			Expect(finalLevel(results[i])).To(BeNumerically("<", finalLevel(results[i-1])))
		}
	})

	It("fails fast on an invalid member", func() {
		cfgs := configs()
		cfgs[2].Area = 0
		results, err := sim.Sweep(context.Background(), cfgs)
		Expect(results).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
		Expect(err.Error()).To(ContainSubstring("config 2"))
	})

	It("does not start runs after cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sim.Sweep(ctx, configs())
		Expect(err).To(MatchError(context.Canceled))
	})
})
