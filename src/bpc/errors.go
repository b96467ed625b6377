package bpc

import "github.com/pkg/errors"

var (
	ErrTimeLimit = errors.New("time limit exceeded")
	// ErrOracle wraps any failure of the LP or MIP oracle.
	ErrOracle = errors.New("oracle failure")
	// ErrBoundViolation means the master objective fell below a proven
	// lower bound, which only numerical trouble can cause.
	ErrBoundViolation = errors.New("master objective below lower bound")
	ErrInfeasible     = errors.New("model infeasible")
)
