package facebook

// FieldData is one answer of a lead form, as sent in webhooks and returned
// by the Graph API.
type FieldData struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type LeadResponse struct {
	ID          string      `json:"id"`
	CreatedTime string      `json:"created_time"`
	FieldData   []FieldData `json:"field_data"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
