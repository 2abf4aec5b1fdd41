package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dkeye/Sketch/internal/domain"
)

// Validator checks inbound payloads before any state is touched. The bounds
// come from the domain package; the tags only name them.
type Validator struct {
	v           *validator.Validate
	messageRule string
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("roomid", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseRoomID(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return domain.ValidateUsername(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("roompassword", func(fl validator.FieldLevel) bool {
		return domain.ValidatePassword(fl.Field().String()) == nil
	})
	return &Validator{
		v:           v,
		messageRule: fmt.Sprintf("min=1,max=%d", domain.MaxMessageLen),
	}
}

// Struct validates a payload carrying `validate` tags.
func (val *Validator) Struct(payload any) error {
	return val.v.Struct(payload)
}

// MessageContent enforces the chat message length bounds.
func (val *Validator) MessageContent(content string) error {
	return val.v.Var(content, val.messageRule)
}
