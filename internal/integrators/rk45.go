package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an adaptive explicit Dormand-Prince 5(4) solver. Every accepted
// step is recorded in the trajectory.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) Name() string { return "rk45" }

func (r *RK45) Solve(sys dynamo.System, x0 dynamo.State, span dynamo.Span, opts dynamo.Options) *dynamo.Trajectory {
	opts = opts.WithDefaults()
	tr := &dynamo.Trajectory{Solver: r.Name()}

	if err := checkProblem(sys, x0, span); err != nil {
		tr.Fail(err)
		return tr
	}

	ev := newEvaluator(sys, opts.MaxEvaluations)
	t := span.Start
	x := x0.Clone()
	tr.Append(t, x)

	f, err := ev.derive(t, x)
	if err != nil {
		return failAt(tr, ev, 0, t, x, err)
	}

	h := opts.FirstStep
	if h <= 0 {
		h, err = r.initialStep(ev, t, x, f, opts)
		if err != nil {
			return failAt(tr, ev, 0, t, x, err)
		}
	}

	step := 0
	for t < span.End {
		minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
		h = math.Min(h, opts.MaxStep)
		if h < minStep {
			h = minStep
		}

		rejected := false
		for {
			if h < minStep {
				return failAt(tr, ev, step, t, x, fmt.Errorf("h=%g below %g: %w", h, minStep, dynamo.ErrStepTooSmall))
			}

			tNew := t + h
			if tNew > span.End {
				tNew = span.End
			}
			h = tNew - t

			xNew, fNew, errNorm, err := r.trial(ev, t, x, f, h, opts)
			if err != nil {
				return failAt(tr, ev, step, t, x, err)
			}

			if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
				h *= r.minScale
				rejected = true
				continue
			}

			if errNorm < 1 {
				factor := r.maxScale
				if errNorm > 0 {
					factor = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
				}
				if rejected {
					factor = math.Min(1, factor)
				}

				step++
				t, x, f = tNew, xNew, fNew
				tr.Append(t, x)
				h *= factor
				break
			}

			h *= math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.25))
			rejected = true
		}
	}

	tr.NFev = ev.nfev
	tr.Complete()
	return tr
}

// trial takes one Dormand-Prince step of size dt from (t, x) with k1 = f.
// It returns the new state, its derivative (FSAL) and the scaled error norm.
func (r *RK45) trial(ev *evaluator, t float64, x, k1 dynamo.State, dt float64, opts dynamo.Options) (dynamo.State, dynamo.State, float64, error) {
	n := len(x)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k1[i]
	}
	k2, err := ev.derive(t+a2*dt, x2)
	if err != nil {
		return nil, nil, 0, err
	}

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3, err := ev.derive(t+a3*dt, x3)
	if err != nil {
		return nil, nil, 0, err
	}

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := ev.derive(t+a4*dt, x4)
	if err != nil {
		return nil, nil, 0, err
	}

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := ev.derive(t+a5*dt, x5)
	if err != nil {
		return nil, nil, 0, err
	}

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := ev.derive(t+dt, x6)
	if err != nil {
		return nil, nil, 0, err
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7, err := ev.derive(t+dt, xNew)
	if err != nil {
		return nil, nil, 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := opts.AbsTol + opts.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		sum += (errEst / scale) * (errEst / scale)
	}

	return xNew, k7, math.Sqrt(sum / float64(n)), nil
}

// initialStep follows Hairer, Nørsett and Wanner, "Solving Ordinary
// Differential Equations I", sec. II.4.
func (r *RK45) initialStep(ev *evaluator, t float64, x, f dynamo.State, opts dynamo.Options) (float64, error) {
	n := len(x)
	var d0, d1 float64
	for i := 0; i < n; i++ {
		scale := opts.AbsTol + opts.RelTol*math.Abs(x[i])
		d0 += (x[i] / scale) * (x[i] / scale)
		d1 += (f[i] / scale) * (f[i] / scale)
	}
	d0 = math.Sqrt(d0 / float64(n))
	d1 = math.Sqrt(d1 / float64(n))

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, opts.MaxStep)

	x1 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x1[i] = x[i] + h0*f[i]
	}
	f1, err := ev.derive(t+h0, x1)
	if err != nil {
		return 0, err
	}

	var d2 float64
	for i := 0; i < n; i++ {
		scale := opts.AbsTol + opts.RelTol*math.Abs(x[i])
		d := (f1[i] - f[i]) / scale
		d2 += d * d
	}
	d2 = math.Sqrt(d2/float64(n)) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 0.2)
	}

	return math.Min(100*h0, h1), nil
}
