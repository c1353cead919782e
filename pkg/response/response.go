package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Pagination describes the page returned in a list response
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// PagedData wraps a page of items with its pagination metadata
type PagedData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// SuccessWithPagination returns a success response for a paginated list
func SuccessWithPagination(statusCode int, items interface{}, page, limit int, total int64) Response {
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Success(statusCode, PagedData{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: pages,
		},
	})
}

// ValidationFailure is an error response that also names the offending field
func ValidationFailure(statusCode int, err, field string, allowed []string) ValidationResponse {
	return ValidationResponse{Response: Error(statusCode, err), Field: field, Allowed: allowed}
}

// ValidationResponse carries field-level detail for rejected input
type ValidationResponse struct {
	Response
	Field   string   `json:"field,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}
