package handler

// TeamRequest carries the writable team fields for create and update.
type TeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
