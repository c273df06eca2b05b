package service

import (
	"errors"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

var domainErrors = []struct {
	domain error
	api    *appErrors.Error
}{
	{models.ErrEventNotFound, appErrors.ErrEventNotFound},
	{models.ErrUserNotFound, appErrors.ErrUserNotFound},
	{models.ErrEventFull, appErrors.ErrEventFull},
	{models.ErrRegistrationClosed, appErrors.ErrRegistrationClosed},
	{models.ErrAlreadyRegistered, appErrors.ErrAlreadyRegistered},
	{models.ErrCapacityBelowRoster, appErrors.ErrCapacityBelowRoster},
}

// mapEventError translates repository sentinels into API errors; anything else is internal.
func mapEventError(err error, fallback string) error {
	for _, m := range domainErrors {
		if errors.Is(err, m.domain) {
			return m.api
		}
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}
