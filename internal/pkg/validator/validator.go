package validator

import (
	"fmt"
	"sort"

	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation on req. Field failures are
// attached as hints so they reach the client.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	b := xerrors.WithError(err).WithHint("request validation failed")
	var fieldErrs validator.ValidationErrors
	if xerrors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		sort.Strings(msgs)
		for _, m := range msgs {
			b = b.WithHint(m)
		}
	}
	return b.Mark(xerrors.ErrValidation)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Namespace(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
}
