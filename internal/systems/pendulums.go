package systems

import (
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Pendulum is a damped pendulum with optional periodic drive,
// θ'' = -(g/L) sin θ - cθ' + A cos(ω_d t). Energy is per unit mass.
func Pendulum() System {
	return System{
		Name:        "pendulum",
		Description: "damped driven pendulum",
		Vars:        []string{"theta", "omega"},
		Params: dynamo.Params{
			"gravity":    9.81,
			"length":     1.0,
			"damping":    0.1,
			"drive":      0.0,
			"drive_freq": 2.0 / 3.0,
		},
		Initial: dynamo.State{0.5, 0.0},
		Derive: func(t float64, s dynamo.State, p dynamo.Params) dynamo.State {
			theta, omega := s[0], s[1]
			alpha := -p["gravity"]/p["length"]*math.Sin(theta) - p["damping"]*omega +
				p["drive"]*math.Cos(p["drive_freq"]*t)
			return dynamo.State{omega, alpha}
		},
		Energy: func(s dynamo.State, p dynamo.Params) float64 {
			l := p["length"]
			v := l * s[1]
			return 0.5*v*v + p["gravity"]*l*(1-math.Cos(s[0]))
		},
	}
}

// DoublePendulum is the frictionless planar double pendulum.
// State: [θ1, θ2, ω1, ω2].
func DoublePendulum() System {
	return System{
		Name:        "double",
		Description: "double pendulum, chaotic at large amplitude",
		Vars:        []string{"theta1", "theta2", "omega1", "omega2"},
		Params:      dynamo.Params{"m1": 1.0, "m2": 1.0, "l1": 1.0, "l2": 1.0, "gravity": 9.81},
		Initial:     dynamo.State{1.5, 1.5, 0.0, 0.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			theta1, theta2, omega1, omega2 := s[0], s[1], s[2], s[3]
			m1, m2, l1, l2, g := p["m1"], p["m2"], p["l1"], p["l2"], p["gravity"]

			delta := theta2 - theta1
			sinD, cosD := math.Sincos(delta)

			den1 := (m1+m2)*l1 - m2*l1*cosD*cosD
			den2 := (l2 / l1) * den1

			alpha1 := (m2*l1*omega1*omega1*sinD*cosD +
				m2*g*math.Sin(theta2)*cosD +
				m2*l2*omega2*omega2*sinD -
				(m1+m2)*g*math.Sin(theta1)) / den1

			alpha2 := (-m2*l2*omega2*omega2*sinD*cosD +
				(m1+m2)*g*math.Sin(theta1)*cosD -
				(m1+m2)*l1*omega1*omega1*sinD -
				(m1+m2)*g*math.Sin(theta2)) / den2

			return dynamo.State{omega1, omega2, alpha1, alpha2}
		},
		Energy: func(s dynamo.State, p dynamo.Params) float64 {
			theta1, theta2, omega1, omega2 := s[0], s[1], s[2], s[3]
			m1, m2, l1, l2, g := p["m1"], p["m2"], p["l1"], p["l2"], p["gravity"]

			v1sq := l1 * l1 * omega1 * omega1
			v2sq := v1sq + l2*l2*omega2*omega2 + 2*l1*l2*omega1*omega2*math.Cos(theta1-theta2)

			y1 := -l1 * math.Cos(theta1)
			y2 := y1 - l2*math.Cos(theta2)
			return 0.5*m1*v1sq + 0.5*m2*v2sq + m1*g*y1 + m2*g*y2
		},
	}
}
