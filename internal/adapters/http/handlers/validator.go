// Package handlers implements the façade's HTTP handlers: the three
// money-movement flows and the three read-only queries, each a thin
// adapter from gin.Context to ledger.Service.
package handlers

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wallethub/ledgercore/internal/adapters/http/common"
)

var setupOnce sync.Once

// SetupValidator registers the façade's custom field validators and
// switches Gin's error messages to use json tag names.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("ledger_amount", validateLedgerAmount)
	})
}

// amountShape matches a positive decimal with at most 8 fractional digits
// (spec §6); the upper bound of 1e7 is checked separately since regexp
// alone can't bound magnitude cleanly.
var amountShape = regexp.MustCompile(`^\d+(\.\d{1,8})?$`)

const maxAmount = "10000000"

func validateLedgerAmount(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if !amountShape.MatchString(raw) {
		return false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	if !amount.IsPositive() {
		return false
	}
	ceiling, _ := decimal.NewFromString(maxAmount)
	return amount.LessThanOrEqual(ceiling)
}

// BindJSON binds the request body, responding with a 400 and returning
// false on failure so the caller can return immediately.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		handleBindError(c, err)
		return false
	}
	return true
}

// BindQuery binds query-string parameters the same way.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		handleBindError(c, err)
		return false
	}
	return true
}

// BindURI binds path parameters the same way.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		handleBindError(c, err)
		return false
	}
	return true
}

func handleBindError(c *gin.Context, err error) {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		common.Error(c, 400, &common.APIError{Code: "VALIDATION_ERROR", Message: err.Error()})
		return
	}
	fields := make([]common.FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, common.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	common.ValidationError(c, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "must be a valid UUID"
	case "max":
		return "exceeds maximum length of " + fe.Param()
	case "ledger_amount":
		return "must be a positive decimal with at most 8 fractional digits, no greater than 10000000"
	default:
		return "invalid value"
	}
}
