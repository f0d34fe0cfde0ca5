package api

import (
	"errors"

	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/pkg/einsum"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg   string
	param string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, msg string) error {
	return invalidRequestError{msg: msg, param: param}
}

// errorCode maps an einsum validation error to a stable code string.
func errorCode(err error) string {
	switch {
	case errors.Is(err, einsum.ErrExpressionFormat):
		return "expression_format"
	case errors.Is(err, einsum.ErrRankMismatch):
		return "rank_mismatch"
	case errors.Is(err, einsum.ErrDimensionConflict):
		return "dimension_conflict"
	case errors.Is(err, einsum.ErrUnboundOutputSymbol):
		return "unbound_output_symbol"
	case errors.Is(err, einsum.ErrDuplicateOutputSymbol):
		return "duplicate_output_symbol"
	case errors.Is(err, einsum.ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, einsum.ErrTensorIndex):
		return "tensor_index"
	case errors.Is(err, gemm.ErrOutOfBounds):
		return "out_of_bounds"
	default:
		return ""
	}
}

// isClientError reports whether err stems from the request rather than the
// server.
func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errorCode(err) != ""
}
