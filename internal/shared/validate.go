package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// emailPattern is the loose shape check applied before calling the planner login endpoint.
var emailPattern = regexp.MustCompile(`^\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Credentials is the login form as submitted by the CLI or web dashboard.
type Credentials struct {
	Email    string `json:"email" validate:"required,opsemail"`
	Password string `json:"password" validate:"required"`
}

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("opsemail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidEmail reports whether email passes the login shape check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateStruct runs struct tag validation and flattens field errors into one message.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ValidateCredentials checks a login form and maps failures onto sentinel errors.
func ValidateCredentials(c Credentials) error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: %s", ErrMissingArgument, MsgBothRequired)
	}

	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "Email" {
				return fmt.Errorf("%w: %s", ErrInvalidEmail, c.Email)
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
