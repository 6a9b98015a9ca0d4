package server

import "context"

// Runner renders one view of an addons repository analysis.
// This is the core interface all method handlers are built on.
type Runner interface {
	Run(ctx context.Context, params MethodParams) (string, error)
}

// AnalyzeRunner produces the full repository report.
type AnalyzeRunner interface {
	Runner
}

// ModulesRunner produces the module listing.
type ModulesRunner interface {
	Runner
}

// ModelsRunner produces the model listing.
type ModelsRunner interface {
	Runner
}
