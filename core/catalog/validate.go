package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidRecord is wrapped by every record validation failure.
var ErrInvalidRecord = errors.New("invalid record")

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag = "notblank"
	subjectTag  = "subject"
	identityTag = "identity"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names, which is what upstream feeds and logs use.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	validate.RegisterStructValidation(courseStructValidation, Course{})
	validate.RegisterStructValidation(instructorStructValidation, Instructor{})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, subjectTag, identityTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
	}
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case subjectTag:
		return "subject_code is required when the course code has no alphabetic prefix"
	case identityTag:
		return "one of employee_id or email is required"
	default:
		return fe.Error()
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// courseStructValidation requires a subject, either explicit or derivable
// from the course code.
func courseStructValidation(sl validator.StructLevel) {
	c, ok := sl.Current().Interface().(Course)
	if !ok {
		return
	}
	if strings.TrimSpace(c.SubjectCode) == "" && SubjectFromCourseCode(c.Code) == "" {
		sl.ReportError(c.SubjectCode, "subject_code", "SubjectCode", subjectTag, "")
	}
}

// instructorStructValidation requires something to key the instructor on.
func instructorStructValidation(sl validator.StructLevel) {
	i, ok := sl.Current().Interface().(Instructor)
	if !ok {
		return
	}
	if i.NaturalKey() == "" {
		sl.ReportError(i.EmployeeID, "employee_id", "EmployeeID", identityTag, "")
	}
}

// validateRecord runs the struct rules of rec and flattens the failures into
// one error, e.g. "invalid record: course: name cannot be blank".
func validateRecord(rec Record) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, rec.Category(), err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidRecord, rec.Category(), strings.Join(msgs, "; "))
}
