package api

// TensorPayload carries a dense row-major tensor. An empty shape is a
// scalar with one element.
type TensorPayload struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

type ContractionRequest struct {
	Expression string          `json:"expression"`
	Alpha      *float64        `json:"alpha,omitempty"`
	Tensors    []TensorPayload `json:"tensors"`
	Store      *bool           `json:"store,omitempty"`
}

type ContractionResponse struct {
	ID         string     `json:"id"`
	Object     string     `json:"object"`
	CreatedAt  int64      `json:"created_at"`
	Expression string     `json:"expression"`
	Shape      []int      `json:"shape"`
	Data       []float64  `json:"data"`
	DurationMS float64    `json:"duration_ms"`
	Steps      []PlanStep `json:"steps"`
}

type PlanRequest struct {
	Expression string  `json:"expression"`
	Shapes     [][]int `json:"shapes"`
}

type PlanResponse struct {
	Object      string     `json:"object"`
	Expression  string     `json:"expression"`
	OutputShape []int      `json:"output_shape"`
	Flops       float64    `json:"flops"`
	Steps       []PlanStep `json:"steps"`
	Tree        string     `json:"tree"`
}

type PlanStep struct {
	Left       string  `json:"left"`
	Right      string  `json:"right"`
	Result     string  `json:"result"`
	Cost       float64 `json:"cost"`
	Flops      float64 `json:"flops"`
	ResultSize float64 `json:"result_size"`
}

type DeleteContractionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
