package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionID         string `json:"session_id,omitempty"`
	Name              string `json:"name,omitempty"`
	Category          string `json:"category,omitempty"`
	SessionsReceived  int    `json:"sessions_received"`
	SessionsInserted  int    `json:"sessions_inserted"`
	Duplicate         bool   `json:"duplicate,omitempty"`
	BlocksInserted    int64  `json:"blocks_inserted"`
	ExercisesInserted int64  `json:"exercises_inserted"`
	EstimatedTSS      int    `json:"estimated_tss"`

	Message string `json:"message,omitempty"`
}
