package novaquerywire

import "github.com/tuannm99/novaquery/internal/sql/executor"

// ExecuteRequest carries one SQL statement. With Explain set the server
// returns the optimized plan instead of running it.
type ExecuteRequest struct {
	ID      uint64 `json:"id"`
	SQL     string `json:"sql"`
	Explain bool   `json:"explain,omitempty"`
}

// ExecuteResponse answers the request with the same ID. Exactly one of
// Result, Plan and Error is set.
type ExecuteResponse struct {
	ID     uint64           `json:"id"`
	Result *executor.Result `json:"result,omitempty"`
	Plan   string           `json:"plan,omitempty"`
	Error  string           `json:"error,omitempty"`
}
