package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tadeufagundes/go-geo-meet/core"
)

// errorResponse is the envelope returned for every API error.
type errorResponse struct {
	Code        string      `json:"code"`
	Message     string      `json:"message"`
	UserMessage string      `json:"userMessage"`
	Timestamp   string      `json:"timestamp"`
	RequestID   string      `json:"requestId,omitempty"`
	Details     interface{} `json:"details,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		status := http.StatusInternalServerError
		resp := errorResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: ctx.Response().Header().Get(echo.HeaderXRequestID),
		}

		switch origErr := errors.Cause(err).(type) {
		case *core.AppError:
			status = origErr.Status
			resp.Code = origErr.Code
			resp.Message = origErr.Message
			resp.UserMessage = origErr.UserMessage
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing || origErr.Code == http.StatusUnauthorized {
				appErr := core.ErrUnauthorized()
				status = appErr.Status
				resp.Code = appErr.Code
				resp.Message = appErr.Message
				resp.UserMessage = appErr.UserMessage
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			status = origErr.Code
			resp.Code = httpErrorCode(origErr.Code)
			if msg, ok := origErr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(origErr.Code)
			}
			resp.UserMessage = userMessageFor(origErr.Code)
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			status = http.StatusBadRequest
			resp.Code = core.CodeBadRequest
			resp.Message = "validation failed"
			resp.UserMessage = "Verifique os dados informados."
			resp.Details = fldErrs
		case *core.ValidationError:
			status = http.StatusBadRequest
			resp.Code = core.CodeBadRequest
			resp.Message = origErr.Error()
			resp.UserMessage = "Verifique os dados informados."
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				resp.Details = fldErrs
			}
		default: // any other error is a server error
			status = http.StatusInternalServerError
			resp.Code = core.CodeInternalError
			resp.Message = http.StatusText(http.StatusInternalServerError)
			resp.UserMessage = "Ocorreu um erro inesperado. Tente novamente."

			var id core.Identity
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				id.ID = claims.Subject
				id.Name = claims.Name
				id.Email = claims.Email
			}
			logger.Error(resp.Message, errors.Wrap(err, resp.Message), id)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(status)
			} else {
				err = ctx.JSON(status, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return core.CodeUnauthorized
	case http.StatusForbidden:
		return core.CodeForbidden
	case http.StatusNotFound:
		return core.CodeNotFound
	case http.StatusInternalServerError:
		return core.CodeInternalError
	default:
		return core.CodeBadRequest
	}
}

func userMessageFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Acesso negado."
	case http.StatusNotFound:
		return "Recurso não encontrado."
	default:
		return "Requisição inválida."
	}
}
