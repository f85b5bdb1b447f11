package handlers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/pkg/logger"
	"github.com/huangang/reportportal/pkg/response"
)

var registerOnce sync.Once

// RegisterValidators adds the portal's binding tags to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := v.RegisterValidation("friday", func(fl validator.FieldLevel) bool {
			return reportweek.IsValidFridayDate(fl.Field().String())
		}); err != nil {
			logger.Errorf("[Handlers] Failed to register friday validator: %v", err)
		}
	})
}

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, err error) {
	var rwErr *reportweek.Error
	if !errors.As(err, &rwErr) {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("[Handlers] Unexpected error")
		response.Error(c, err)
		return
	}

	switch rwErr.Kind {
	case reportweek.KindValidation:
		response.Error(c, response.NewBadRequest(rwErr.Message))
	case reportweek.KindNotFound:
		response.Error(c, response.NewNotFound(rwErr.Message))
	case reportweek.KindConflict:
		response.Error(c, response.NewConflict(rwErr.Message))
	case reportweek.KindState:
		response.Error(c, response.NewStateLocked(rwErr.Message))
	default:
		logger.Error().Err(rwErr).Str("path", c.Request.URL.Path).Msg("[Handlers] Internal error")
		response.Error(c, rwErr)
	}
}

// bindError answers a request that failed binding with a 400.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "friday":
			response.BadRequest(c, "week_ending_date must be a Friday in YYYY-MM-DD format")
			return
		case "timezone":
			response.BadRequest(c, fmt.Sprintf("unknown timezone %v", fe.Value()))
			return
		}
	}
	response.BadRequest(c, err.Error())
}
