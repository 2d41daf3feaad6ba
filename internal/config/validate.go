package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/robfig/cron/v3"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	translator    ut.Translator
)

func setupValidator() {
	validate = validator.New()

	// 에러 메시지에 Go 필드명 대신 설정 파일 키를 쓴다
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	_ = validate.RegisterTranslation("cronspec", translator,
		func(ut ut.Translator) error {
			return ut.Add("cronspec", "{0} must be a standard 5-field cron expression", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("cronspec", fe.Field())
			return msg
		},
	)
}

// Validate 설정 검증. 실패 시 항목별 영어 문장을 합친 에러를 반환한다.
func (c *Config) Validate() error {
	validatorOnce.Do(setupValidator)

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(translator))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
