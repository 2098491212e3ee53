package gemini

// translateRequest is the JSON payload sent for a single hop.
type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source_language"`
	Target string `json:"target_language"`
}

// translateResponse is the JSON object the model is instructed to return.
type translateResponse struct {
	Translation string `json:"translation"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Language string `json:"language"`
}
