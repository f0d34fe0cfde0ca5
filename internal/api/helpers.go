package api

import (
	"fmt"
	"io"
	"net/http"
	"slices"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/linalg/pkg/einsum"
	"github.com/samcharles93/linalg/pkg/tensor"
)

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(b)
	return err
}

func writeBadRequest(c *echo.Context, msg, param, code string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, code)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return writeJSON(c, status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeFailure renders err as a 400 when the request caused it and a 500
// otherwise.
func writeFailure(c *echo.Context, err error) error {
	if !isClientError(err) {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
	var param string
	if ire, ok := err.(invalidRequestError); ok {
		param = ire.param
	}
	return writeBadRequest(c, err.Error(), param, errorCode(err))
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest("", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return out, nil
}

// toTensors validates the payloads and wraps them as row-major tensors.
func toTensors(payloads []TensorPayload) ([]*tensor.Tensor, error) {
	out := make([]*tensor.Tensor, len(payloads))
	for i, p := range payloads {
		for _, d := range p.Shape {
			if d < 0 {
				return nil, newInvalidRequest(fmt.Sprintf("tensors[%d].shape", i), fmt.Sprintf("negative dimension %d", d))
			}
		}
		n, ok := elementCount(p.Shape)
		if !ok {
			return nil, newInvalidRequest(fmt.Sprintf("tensors[%d].shape", i), "tensor too large")
		}
		if n != len(p.Data) {
			return nil, newInvalidRequest(fmt.Sprintf("tensors[%d].data", i),
				fmt.Sprintf("shape %v needs %d values, got %d", p.Shape, n, len(p.Data)))
		}
		data := p.Data
		if data == nil {
			data = []float64{}
		}
		out[i] = tensor.FromData(data, p.Shape...)
	}
	return out, nil
}

// elementCount multiplies out shape, reporting false once the product
// exceeds maxElements. Dimensions must be non-negative.
func elementCount(shape []int) (int, bool) {
	if slices.Contains(shape, 0) {
		return 0, true
	}
	n := 1
	for _, d := range shape {
		if n > maxElements/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func planSteps(p *einsum.Plan) []PlanStep {
	steps := p.Steps()
	out := make([]PlanStep, len(steps))
	for i, s := range steps {
		out[i] = PlanStep{
			Left:       s.Left,
			Right:      s.Right,
			Result:     s.Result,
			Cost:       s.Cost,
			Flops:      s.Flops,
			ResultSize: s.ResultSize,
		}
	}
	return out
}
