package probit

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// The link functions operate on slices in statmodel style: x is read, y is
// written, lengths must agree. mu values are clamped away from {0,1} so the
// link derivative stays finite.

const muEps = 1e-10

var stdNormal = distuv.UnitNormal

func clampMu(m float64) float64 {
	if m < muEps {
		return muEps
	}
	if m > 1-muEps {
		return 1 - muEps
	}
	return m
}

// probitLink maps means to the linear predictor: eta = Phi^-1(mu).
func probitLink(mu []float64, eta []float64) {
	for i := range mu {
		eta[i] = stdNormal.Quantile(clampMu(mu[i]))
	}
}

// probitInvLink maps the linear predictor to means: mu = Phi(eta).
func probitInvLink(eta []float64, mu []float64) {
	for i := range eta {
		mu[i] = clampMu(stdNormal.CDF(eta[i]))
	}
}

// probitLinkDeriv writes d(eta)/d(mu) = 1/phi(Phi^-1(mu)).
func probitLinkDeriv(mu []float64, deriv []float64) {
	for i := range mu {
		deriv[i] = 1 / stdNormal.Prob(stdNormal.Quantile(clampMu(mu[i])))
	}
}

// binomialVariance writes the binomial variance function mu*(1-mu).
func binomialVariance(mu []float64, va []float64) {
	for i := range mu {
		m := clampMu(mu[i])
		va[i] = m * (1 - m)
	}
}
