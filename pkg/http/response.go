package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data inside the APIResponse envelope, echoing the
// request ID set by the RequestID middleware.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:    statusCode,
		Message:   http.StatusText(statusCode),
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		Data:      data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes the result of ReadAndValidateRequest.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse writes err as a one-element error list. Errors that are
// not an *AppError become a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("Something went wrong").WithError(err)
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
