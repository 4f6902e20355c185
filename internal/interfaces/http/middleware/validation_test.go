package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/advisory/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientInput struct {
	IDNumber     string `json:"idNumber" binding:"required,max=12,idnumber"`
	SnapshotDate string `json:"snapshotDate" binding:"required,isodate"`
	Month        string `json:"month" binding:"omitempty,yearmonth"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/crm/clients", func(c *gin.Context) {
		var in clientInput
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/crm/clients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports every field by json name", func(t *testing.T) {
		w := postJSON(router, `{"idNumber": "AB-123", "snapshotDate": "2024/01/31", "month": "2024-13"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeEnvelope(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)

		got := map[string]string{}
		for _, d := range resp.Error.Details {
			got[d.Field] = d.Message
		}
		assert.Equal(t, map[string]string{
			"idNumber":     "Must be an ID number made of digits",
			"snapshotDate": "Must be a date in YYYY-MM-DD format",
			"month":        "Must be a month in YYYY-MM format",
		}, got)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := decodeEnvelope(t, postJSON(router, `{}`))
		require.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
	})

	t.Run("valid input", func(t *testing.T) {
		w := postJSON(router, `{"idNumber": "012-345-678", "snapshotDate": "2024-01-31"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("malformed json has no details", func(t *testing.T) {
		resp := decodeEnvelope(t, postJSON(router, `{"idNumber":`))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Empty(t, resp.Error.Details)
	})
}

func TestCustomTags(t *testing.T) {
	type input struct {
		Date  string `validate:"isodate"`
		Month string `validate:"yearmonth"`
		ID    string `validate:"idnumber"`
	}
	v := validator.New()
	registerTags(v)

	tests := []struct {
		name  string
		in    input
		valid bool
	}{
		{"all empty", input{}, true},
		{"valid values", input{Date: "2024-02-29", Month: "2024-02", ID: "123456782"}, true},
		{"impossible date", input{Date: "2023-02-29"}, false},
		{"month with day", input{Month: "2024-02-01"}, false},
		{"slashes", input{Date: "01/02/2024"}, false},
		{"dashed id", input{ID: "12-345 678"}, true},
		{"zeros only", input{ID: "000"}, false},
		{"letters", input{ID: "12a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Name   string   `validate:"required"`
		Short  string   `validate:"min=5"`
		Status string   `validate:"oneof=open done"`
		Share  int      `validate:"max=100"`
		Funds  []string `validate:"max=1"`
	}
	v := validator.New()
	registerTags(v)

	err := v.Struct(input{Short: "ab", Status: "lost", Share: 120, Funds: []string{"a", "b"}})
	require.Error(t, err)

	messages := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		messages[fe.Field()] = validationMessage(fe)
	}
	assert.Equal(t, "This field is required", messages["Name"])
	assert.Equal(t, "Must be at least 5 characters", messages["Short"])
	assert.Equal(t, "Must be one of: open done", messages["Status"])
	assert.Equal(t, "Must be at most 100", messages["Share"])
	assert.Equal(t, "Must be at most 1", messages["Funds"])
}

func TestFieldName(t *testing.T) {
	type tagged struct {
		A string `json:"clientId,omitempty"`
		B string `form:"snapshot_month"`
		C string `json:"-"`
		D string `uri:"id"`
		E string
	}
	typ := reflect.TypeOf(tagged{})
	want := []string{"clientId", "snapshot_month", "", "id", ""}
	for i, name := range want {
		assert.Equal(t, name, fieldName(typ.Field(i)), typ.Field(i).Name)
	}
}
