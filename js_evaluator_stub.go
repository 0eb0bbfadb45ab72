//go:build !js_eval

package store

// NewJSEvaluator is unavailable without the js_eval build tag. Stores fall
// back to the default expr engine when it returns nil.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}
