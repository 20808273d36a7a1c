package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/catalog"
)

// ToHTTPStatus maps catalog errors to response codes
func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrInvalidStateOrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorFromErr builds the {"error": ...} body. Internal errors are not echoed to clients.
func errorFromErr(err error) gin.H {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return errorBody(err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return errorBody("Book not found")
	case errors.Is(err, catalog.ErrInvalidStateOrNotFound):
		return errorBody("Book not found or not in a state that allows this operation")
	default:
		return errorBody("Internal server error")
	}
}

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}
