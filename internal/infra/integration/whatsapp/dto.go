package whatsapp

// SendMessageInput is the Whapi text message payload.
type SendMessageInput struct {
	To         string `json:"to"` // 491701234567@s.whatsapp.net
	Body       string `json:"body"`
	TypingTime int    `json:"typing_time,omitempty"`
}

type SendMessageResponse struct {
	Sent    bool `json:"sent"`
	Message *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"message"`
	Error *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}
