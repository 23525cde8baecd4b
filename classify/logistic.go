package classify

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Training hyperparameters. Full-batch gradient descent from a zero
// initialization with a fixed iteration count involves no randomness, so a
// fit on identical data always yields identical weights.
const (
	learningRate = 0.1
	iterations   = 500
	l2Penalty    = 1.0
)

// Logistic is a fitted binary logistic regression model.
type Logistic struct {
	weights *mat.VecDense
	bias    float64
}

// FitLogistic trains an L2-penalized logistic regression on X (one example
// per row) and labels y in {0, 1}.
func FitLogistic(X mat.Matrix, y []float64) *Logistic {
	n, d := X.Dims()

	w := mat.NewVecDense(d, nil)
	b := 0.0

	yVec := mat.NewVecDense(n, y)
	z := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(d, nil)

	for it := 0; it < iterations; it++ {
		// diff_i = sigmoid(x_i . w + b) - y_i
		z.MulVec(X, w)
		for i := 0; i < n; i++ {
			z.SetVec(i, sigmoid(z.AtVec(i)+b))
		}
		z.SubVec(z, yVec)

		// grad_w = X^T diff / n + (l2/n) w
		grad.MulVec(X.T(), z)
		grad.AddScaledVec(grad, l2Penalty, w)
		w.AddScaledVec(w, -learningRate/float64(n), grad)

		gradB := mat.Sum(z) / float64(n)
		b -= learningRate * gradB
	}

	return &Logistic{weights: w, bias: b}
}

// Predict returns 1 when the model scores x at or above the decision
// boundary, else 0. An exact 0.5 tie maps to 1.
func (l *Logistic) Predict(x []float64) int {
	if sigmoid(mat.Dot(l.weights, mat.NewVecDense(len(x), x))+l.bias) >= 0.5 {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
