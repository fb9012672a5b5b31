package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/xptkit/internal/telemetry"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("profiletype", func(fl validator.FieldLevel) bool {
			return telemetry.ValidProfileType(fl.Field().String())
		})
	})
	return validate
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if err := cfg.Export.Database.Validate(); err != nil {
		return fmt.Errorf("export.database: %w", err)
	}
	if !cfg.Export.Badger.InMemory && cfg.Export.Badger.Path == "" {
		return fmt.Errorf("export.badger: path is required")
	}
	if (cfg.S3.AccessKeyID == "") != (cfg.S3.SecretAccessKey == "") {
		return fmt.Errorf("s3: access_key_id and secret_access_key must be set together")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics: port is required when metrics are enabled")
	}

	return nil
}

// formatValidationErrors lists every failing field as "Namespace: tag=param".
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (got %v)", fe.Namespace(), rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
