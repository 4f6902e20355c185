package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// customTag is a binding tag registered on gin's validator. Each tag
// accepts the empty string so it composes with omitempty and required.
type customTag struct {
	check   func(string) bool
	message string
}

var customTags = map[string]customTag{
	"isodate":   {check: parsesAs("2006-01-02"), message: "Must be a date in YYYY-MM-DD format"},
	"yearmonth": {check: parsesAs("2006-01"), message: "Must be a month in YYYY-MM format"},
	"idnumber":  {check: looksLikeIDNumber, message: "Must be an ID number made of digits"},
}

var setupOnce sync.Once

// SetupValidator makes gin report JSON field names and registers the
// custom tags: isodate, yearmonth and idnumber
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		registerTags(v)
	})
}

func registerTags(v *validator.Validate) {
	for tag, ct := range customTags {
		check := ct.check
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || check(s)
		})
	}
}

// fieldName prefers the json name, then the form name
func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

func parsesAs(layout string) func(string) bool {
	return func(s string) bool {
		_, err := time.Parse(layout, s)
		return err == nil
	}
}

// looksLikeIDNumber accepts the spellings found in spreadsheets: digits
// with optional spaces or dashes, and at least one non-zero digit
func looksLikeIDNumber(s string) bool {
	nonZero := false
	for _, r := range s {
		switch {
		case r >= '1' && r <= '9':
			nonZero = true
		case r == '0', r == ' ', r == '-':
		default:
			return false
		}
	}
	return nonZero
}

// FormatValidationErrors builds the 400 envelope for failed bindings
func FormatValidationErrors(err error, requestID string) dto.Response {
	var verrs validator.ValidationErrors
	var details []dto.ValidationDetail
	if errors.As(err, &verrs) {
		details = make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes the validation envelope
func HandleValidationError(c *gin.Context, err error) {
	SetErrorCode(c, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func validationMessage(fe validator.FieldError) string {
	if ct, ok := customTags[fe.Tag()]; ok {
		return ct.message
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Must be at least " + fe.Param() + unit
	case "max":
		return "Must be at most " + fe.Param() + unit
	case "len":
		return "Must be exactly " + fe.Param() + unit
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "lte":
		return "Must be less than or equal to " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "numeric":
		return "Must be numeric"
	case "dive":
		return "Contains an invalid item"
	default:
		return "Invalid value"
	}
}
