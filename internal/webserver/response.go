package webserver

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the uniform JSON response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PagedData wraps list payloads with pagination metadata.
type PagedData struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
}

// Ok writes a success envelope with http 200.
func Ok(c echo.Context, data interface{}) error {
	return c.JSON(200, Envelope{Success: true, Data: data})
}

// Created writes a success envelope with http 201.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(201, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope. detail carries upstream error text when it
// is safe to pass through; keep it nil for internal errors.
func Fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, Envelope{Success: false, Code: code, Error: message, Detail: detail})
}

// Paged writes a paginated success envelope.
func Paged(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return c.JSON(200, Envelope{Success: true, Data: PagedData{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}})
}

// ParsePagination reads page/limit query params with sane bounds.
func ParsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if v := c.QueryParam("page"); v != "" {
		if p, err := atoiSafe(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if ps, err := atoiSafe(v); err == nil && ps > 0 && ps <= 200 {
			pageSize = ps
		}
	}
	return page, pageSize
}
