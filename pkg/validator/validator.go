package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	curpPattern  = regexp.MustCompile(`^[A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]\d$`)
	phonePattern = regexp.MustCompile(`^[\d\s-]+$`)
)

const minPhoneLen = 10

// ValidCURP reports whether s is a well-formed Mexican CURP.
func ValidCURP(s string) bool {
	return curpPattern.MatchString(s)
}

// ValidPhone accepts digits, spaces and dashes, at least ten characters long.
func ValidPhone(s string) bool {
	return len(s) >= minPhoneLen && phonePattern.MatchString(s)
}

func curpRule(fl validator.FieldLevel) bool {
	return ValidCURP(fl.Field().String())
}

func phoneRule(fl validator.FieldLevel) bool {
	return ValidPhone(fl.Field().String())
}

// Rules are the custom tags shared by the "validate" and gin "binding" engines.
var Rules = map[string]validator.Func{
	"curp":  curpRule,
	"phone": phoneRule,
}

// TagName matches gin's so request structs validate the same in handlers
// and services.
const TagName = "binding"

// New returns a validator with the custom rules and json field names.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName(TagName)
	configure(v)
	return v
}

// RegisterGin installs the custom rules on gin's binding engine.
func RegisterGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func configure(v *validator.Validate) {
	for tag, fn := range Rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}
