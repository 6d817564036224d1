package providers

import (
	"errors"
	"predictor/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks the struct tags of every config section and the
// cross-field limits the tags cannot express.
func (cv *CnfValidator) Validate() error {
	sections := []interface{}{
		&cv.conf.WebServer,
		&cv.conf.Api,
		&cv.conf.Predictor,
		&cv.conf.Persistence,
		&cv.conf.Logger,
	}
	for _, section := range sections {
		v := validate.Struct(section)
		if !v.Validate() {
			return v.Errors
		}
	}

	if cv.conf.Predictor.DefaultLimit > cv.conf.Predictor.MaxLimit {
		return errors.New("predictor.defaultLimit must not exceed predictor.maxLimit")
	}
	if cv.conf.Predictor.FullPageSize > cv.conf.Predictor.MaxLimit {
		return errors.New("predictor.fullPageSize must not exceed predictor.maxLimit")
	}
	if cv.conf.Cache.Enabled && cv.conf.Cache.Size <= 0 {
		return errors.New("cache.size must be positive when cache is enabled")
	}
	return nil
}
