package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs
// to gin's validator:
//
//	decimal_coord  plain decimal number (no exponent, finite)
//	payment_mode   cash or online
//	hhmm           24h clock time "15:04"
//	ymd            calendar date "2006-01-02"
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		for tag, fn := range map[string]validator.Func{
			"decimal_coord": validateDecimal,
			"payment_mode":  validatePaymentMode,
			"hhmm":          layoutValidator("15:04"),
			"ymd":           layoutValidator("2006-01-02"),
		} {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, ok := ParseDecimal(fl.Field().String())
	return ok
}

func validatePaymentMode(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "cash", "online":
		return true
	}
	return false
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	}
}
