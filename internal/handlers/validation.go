package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Hassan-Maher/Quizify/internal/response"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindingErrors turns validator failures into field-level messages surfaced
// verbatim to the client.
func bindingErrors(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{"invalid request body"}
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("the %s field is required", fe.Field())
	case "email":
		return fmt.Sprintf("the %s field must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("the %s field must be at least %s characters", fe.Field(), fe.Param())
	case "len", "numeric":
		return fmt.Sprintf("the %s field must be 6 digits", fe.Field())
	case "eqfield":
		return fmt.Sprintf("the %s confirmation does not match", fe.Field())
	default:
		return fmt.Sprintf("the %s field is invalid", fe.Field())
	}
}

func validationFailed(c *gin.Context, msgs []string) {
	message := "validation failed"
	if len(msgs) > 0 {
		message = msgs[0]
	}
	response.Send(c, http.StatusUnprocessableEntity, message, msgs)
}

// fieldErrors collects per-field messages for the quiz payloads, which carry
// conditional and nested rules that struct tags cannot express.
type fieldErrors map[string][]string

func (f fieldErrors) add(field string, format string, args ...any) {
	f[field] = append(f[field], fmt.Sprintf(format, args...))
}

func (f fieldErrors) empty() bool {
	return len(f) == 0
}

func (f fieldErrors) send(c *gin.Context) {
	response.Send(c, http.StatusUnprocessableEntity, "Validation Error", f)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
