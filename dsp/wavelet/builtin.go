package wavelet

import "math"

var (
	haarLow = []float64{math.Sqrt2 / 2, math.Sqrt2 / 2}

	db2Low = []float64{
		(1 + math.Sqrt(3)) / (4 * math.Sqrt2),
		(3 + math.Sqrt(3)) / (4 * math.Sqrt2),
		(3 - math.Sqrt(3)) / (4 * math.Sqrt2),
		(1 - math.Sqrt(3)) / (4 * math.Sqrt2),
	}

	db4Low = []float64{
		0.2303778133088964,
		0.7148465705529154,
		0.6308807679298587,
		-0.0279837694168599,
		-0.1870348117190931,
		0.0308413818355607,
		0.0328830116668852,
		-0.0105974017850690,
	}

	sym4Low = []float64{
		-0.07576571478927333,
		-0.02963552764599851,
		0.49761866763201545,
		0.8037387518059161,
		0.29785779560527736,
		-0.09921954357684722,
		-0.012603967262037833,
		0.032223100604042702,
	}
)

func mustOrthogonal(name string, moments int, low []float64) *Orthogonal {
	w, err := NewOrthogonal(name, moments, low)
	if err != nil {
		panic(err)
	}
	return w
}

// Haar returns the 2-tap Haar wavelet.
func Haar() *Orthogonal { return mustOrthogonal("haar", 1, haarLow) }

// DB2 returns the 4-tap Daubechies wavelet with two vanishing moments.
func DB2() *Orthogonal { return mustOrthogonal("db2", 2, db2Low) }

// DB4 returns the 8-tap Daubechies wavelet with four vanishing moments.
func DB4() *Orthogonal { return mustOrthogonal("db4", 4, db4Low) }

// Sym4 returns the 8-tap least-asymmetric Symlet with four vanishing moments.
func Sym4() *Orthogonal { return mustOrthogonal("sym4", 4, sym4Low) }

// Builtin returns every built-in wavelet, shortest first.
func Builtin() []*Orthogonal {
	return []*Orthogonal{Haar(), DB2(), DB4(), Sym4()}
}
