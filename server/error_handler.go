package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/spektr-org/painel/visits"
)

// CodedError carries the HTTP status a handler error should map to.
type CodedError struct {
	code int
	msg  string
	err  error
}

func NewCodedError(code int, msg string, err error) *CodedError {
	return &CodedError{code: code, msg: msg, err: err}
}

func (e *CodedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *CodedError) Code() int     { return e.code }
func (e *CodedError) Unwrap() error { return e.err }

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{Message: err.Error(), Code: http.StatusInternalServerError}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(*CodedError); ok {
			resp.Code = ce.Code()
			break
		}
		if le, ok := e.(*visits.LoadError); ok {
			resp.Code = loadErrorCode(le.Kind)
			resp.Message = le.Message()
			resp.Kind = le.Kind.String()
			break
		}
		if he, ok := e.(*echo.HTTPError); ok {
			resp.Code = he.Code
			resp.Message = fmt.Sprint(he.Message)
			break
		}
	}

	_ = c.JSON(resp.Code, resp)
}

func loadErrorCode(kind visits.ErrorKind) int {
	switch kind {
	case visits.FileNotFound:
		return http.StatusServiceUnavailable
	case visits.ParseFailure, visits.EmptyDataset:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
