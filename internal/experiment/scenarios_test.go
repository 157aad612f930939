package experiment_test

import (
	"context"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/analysis"
	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/experiment"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func run(cfg *config.Config) (*dynamo.Result, *experiment.Experiment, error) {
	exp := experiment.New(cfg).WithLogger(quietLogger())
	if err := exp.Setup(); err != nil {
		return nil, exp, err
	}
	res, err := exp.Run(context.Background())
	return res, exp, err
}

var _ = Describe("Stirred-tank reactor", func() {
	Context("without control", func() {
		It("settles to a fixed point of the balance", func() {
			cfg := config.GetPreset(config.ModelCSTR, "arrhenius")
			cfg.TEnd, cfg.Samples = 200, 200

			res, exp, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Len()).To(Equal(200))

			final := res.Final()
			Expect(analysis.Residual(exp.System(), final, cfg.TEnd)).To(BeNumerically("<", 1e-5))
			Expect(final[0]).To(BeNumerically("~", 1.9998, 1e-3))
			Expect(final[1]).To(BeNumerically("~", 350, 1e-3))
			Expect(res.Metrics).To(HaveKeyWithValue("final_t", final[1]))
		})

		It("drifts away from 360 K under the heat disturbance", func() {
			cfg := config.GetPreset(config.ModelCSTR, "arrhenius")
			cfg.Reactor.RhoCp = 0
			cfg.TEnd, cfg.Samples = 100, 400
			cfg.Disturbance = config.DisturbanceConfig{At: 20, After: 1e6}

			res, _, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())

			final := res.Final()[1]
			Expect(final).To(BeNumerically(">", 350.1))
			Expect(math.Abs(final - 360)).To(BeNumerically(">", 5))
		})

		It("gives identical trajectories for combined and separate heat capacity", func() {
			combined := config.GetPreset(config.ModelCSTR, "arrhenius")
			combined.Reactor.RhoCp = 4.18e6

			separate := config.GetPreset(config.ModelCSTR, "arrhenius")
			separate.Reactor.RhoCp = 0
			separate.Reactor.Rho, separate.Reactor.Cp = 1000, 4180

			a, _, err := run(combined)
			Expect(err).NotTo(HaveOccurred())
			b, _, err := run(separate)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.States).To(Equal(b.States))
		})
	})

	Context("under PI temperature control", func() {
		DescribeTable("returns to the setpoint after the heat step",
			func(method string) {
				cfg := config.GetPreset(config.ModelCSTRPI, "step_heat")
				cfg.Method = method
				cfg.TEnd, cfg.Samples = 100, 400

				res, _, err := run(cfg)
				Expect(err).NotTo(HaveOccurred())

				temp := res.Column(1)
				Expect(math.Abs(temp[len(temp)-1] - 360)).To(BeNumerically("<", 0.05))
				for i, t := range res.Times {
					if t >= 25 {
						Expect(math.Abs(temp[i]-360)).To(BeNumerically("<", 0.5), "t=%g", t)
					}
				}

				Expect(res.Metrics["peak_deviation"]).To(BeNumerically("<", 0.6))
				Expect(res.Metrics["iae"]).To(BeNumerically(">", 0))
				Expect(res.Metrics["control_effort"]).To(BeNumerically(">", 0))
				Expect(res.Metrics["reacted"]).To(BeNumerically(">", 0))
			},
			Entry("bdf", "bdf"),
			Entry("rk45", "rk45"),
		)

		It("holds the integral while the heater is saturated", func() {
			cfg := config.GetPreset(config.ModelCSTRPI, "step_heat")

			res, exp, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())

			for i, t := range res.Times {
				if t > 3.5 {
					break
				}
				Expect(res.States[i][2]).To(BeZero(), "t=%g", t)
			}

			action := exp.System().(interface {
				ControlAction(dynamo.State, float64) float64
			})
			Expect(action.ControlAction(res.States[0], 0)).To(Equal(9e7))
			Expect(res.Metrics["saturated"]).To(BeNumerically(">", 0))
			Expect(res.Metrics["saturated"]).To(BeNumerically("<", 1))
		})

		It("rejects a controller with inverted limits at setup", func() {
			cfg := config.GetPreset(config.ModelCSTRPI, "step_heat")
			cfg.Controller.OutputMin, cfg.Controller.OutputMax = 1, -1

			_, _, err := run(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})
	})

	Context("with invalid inputs", func() {
		It("reports invalid parameters before integrating", func() {
			cfg := config.GetPreset(config.ModelCSTR, "arrhenius")
			cfg.Reactor.V = 0

			_, _, err := run(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})

		It("reports a non-finite initial derivative", func() {
			cfg := config.GetPreset(config.ModelCSTR, "arrhenius")
			cfg.InitState.T = -1

			res, _, err := run(cfg)
			Expect(err).To(MatchError(dynamo.ErrNonFiniteState))
			Expect(res.Len()).To(BeZero())
		})

		It("reports an exhausted step budget with the partial trajectory", func() {
			cfg := config.GetPreset(config.ModelCSTRPI, "step_heat")
			cfg.Solver.MaxSteps = 3
			cfg.Samples = 0

			res, _, err := run(cfg)
			Expect(err).To(MatchError(dynamo.ErrMaxSteps))
			Expect(err).To(MatchError(dynamo.ErrIntegrationFailure))
			Expect(res.Len()).To(Equal(4))
		})

		It("rejects an unknown method", func() {
			cfg := config.GetPreset(config.ModelCSTR, "arrhenius")
			cfg.Method = "lsoda"

			_, _, err := run(cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})
	})
})

var _ = Describe("Thermal tank", func() {
	DescribeTable("approaches its steady state monotonically",
		func(preset, method string) {
			cfg := config.GetPreset(config.ModelTank, preset)
			cfg.Method = method

			res, _, err := run(cfg)
			Expect(err).NotTo(HaveOccurred())

			temp := res.Column(0)
			Expect(analysis.Monotone(temp, 1e-9)).To(Equal(analysis.Increasing))

			final := temp[len(temp)-1]
			Expect(final).To(BeNumerically(">", cfg.Tank.TAmb))
			Expect(final).To(BeNumerically("<", cfg.Tank.TIn))
			Expect(final).To(BeNumerically(">", 349))
		},
		Entry("step heat, rk45", "step_heat", "rk45"),
		Entry("step heat, bdf", "step_heat", "bdf"),
		Entry("no heat, rk45", "no_heat", "rk45"),
	)
})

var _ = Describe("Ensembles", func() {
	It("runs methods concurrently and they agree", func() {
		var jobs []dynamo.Job
		for _, method := range []string{"bdf", "rk45"} {
			cfg := config.GetPreset(config.ModelCSTRPI, "step_heat")
			cfg.Method = method
			exp := experiment.New(cfg).WithLogger(quietLogger())
			Expect(exp.Setup()).To(Succeed())
			jobs = append(jobs, exp.Job(method))
		}

		outcomes := dynamo.RunEnsemble(context.Background(), jobs, 2)
		Expect(outcomes).To(HaveLen(2))
		for _, o := range outcomes {
			Expect(o.Err).NotTo(HaveOccurred(), o.Name)
		}
		Expect(outcomes[0].Name).To(Equal("bdf"))
		Expect(outcomes[0].Result.Final()[1]).To(BeNumerically("~", outcomes[1].Result.Final()[1], 0.01))
	})
})

var _ = Describe("Registry", func() {
	It("lists models and methods", func() {
		r := experiment.NewRegistry()
		Expect(r.ListModels()).To(Equal([]string{"cstr", "cstr_pi", "thermal_tank"}))
		Expect(r.ListMethods()).To(ContainElements("bdf", "rk45"))
	})

	It("labels controlled reactor states", func() {
		exp := experiment.New(config.GetPreset(config.ModelCSTRPI, "step_heat"))
		Expect(exp.Setup()).To(Succeed())
		Expect(exp.Labels()).To(Equal([]string{"C", "T", "I"}))
	})
})
