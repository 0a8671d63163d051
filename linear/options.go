package linear

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithAlpha adds an L2 penalty of strength alpha to the coefficients. The
// intercept is never penalised. Negative values are treated as 0.
func WithAlpha(alpha float64) Option {
	return func(lr *LinearRegression) {
		if alpha < 0 {
			alpha = 0
		}
		lr.alpha = alpha
	}
}
