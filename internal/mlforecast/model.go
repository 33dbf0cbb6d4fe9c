package mlforecast

import (
	"errors"
	"math"
)

// errSingular means the normal-equation system could not be solved.
var errSingular = errors.New("mlforecast: singular feature matrix")

// model is a ridge regression fit on standardized features. Training is
// closed form (normal equations), so identical input always yields an
// identical fit.
type model struct {
	means     []float64
	stds      []float64
	coef      []float64
	intercept float64
}

// fitModel trains a ridge regression of y on X. lambda is the ridge
// penalty applied to the standardized design; lambda 0 degrades to OLS
// and may fail on collinear features.
func fitModel(X [][]float64, y []float64, lambda float64) (*model, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, errors.New("mlforecast: empty or misaligned training set")
	}
	p := len(X[0])

	means := make([]float64, p)
	stds := make([]float64, p)
	for j := 0; j < p; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X[i][j]
		}
		means[j] = sum / float64(n)

		ss := 0.0
		for i := 0; i < n; i++ {
			d := X[i][j] - means[j]
			ss += d * d
		}
		stds[j] = math.Sqrt(ss / float64(n))
		if stds[j] == 0 {
			// Constant column carries no signal; scale of 1 keeps it
			// harmless after centering.
			stds[j] = 1
		}
	}

	z := make([][]float64, n)
	for i := 0; i < n; i++ {
		z[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			z[i][j] = (X[i][j] - means[j]) / stds[j]
		}
	}

	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	// Normal equations on centered data: (ZᵀZ + λI) w = Zᵀ(y - ȳ).
	a := make([][]float64, p)
	b := make([]float64, p)
	for j := 0; j < p; j++ {
		a[j] = make([]float64, p)
		for k := 0; k < p; k++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += z[i][j] * z[i][k]
			}
			a[j][k] = sum
		}
		a[j][j] += lambda
		for i := 0; i < n; i++ {
			b[j] += z[i][j] * (y[i] - yMean)
		}
	}

	coef, err := solveLinear(a, b)
	if err != nil {
		return nil, err
	}

	return &model{means: means, stds: stds, coef: coef, intercept: yMean}, nil
}

// predict evaluates the fit at one feature row.
func (m *model) predict(x []float64) float64 {
	out := m.intercept
	for j, c := range m.coef {
		out += c * (x[j] - m.means[j]) / m.stds[j]
	}
	return out
}

// solveLinear solves a*x = b by Gaussian elimination with partial
// pivoting. a and b are modified in place.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= f * a[col][k]
			}
			b[row] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}
