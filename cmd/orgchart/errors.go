package main

import (
	"errors"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func asServiceError(err error) (*services.ServiceError, bool) {
	var se *services.ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
