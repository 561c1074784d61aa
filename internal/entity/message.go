package entity

// SendResult is what the messaging API answered to one send request.
type SendResult struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body,omitempty"`
}
