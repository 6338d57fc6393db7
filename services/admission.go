package services

import (
	"service-booking-server/models"
)

// CheckProviderAdmission is the provider admission gate. It denies an actor
// whose role is provider when the account is inactive or not approved.
// Actors with any other role pass; whether they may act on a given booking
// is decided by the operation itself.
func CheckProviderAdmission(actor *models.User) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.Role != models.RoleProvider {
		return nil
	}
	if !actor.IsActive || actor.ProviderStatus != models.ProviderStatusApproved {
		return ErrProviderNotAdmitted
	}
	return nil
}

// ProviderAllowed reports whether actor may act as a provider at all.
func ProviderAllowed(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleProvider && CheckProviderAdmission(actor) == nil
}

// requireProvider runs the gate and then checks that actor is the booking's
// provider. Used at the top of every provider-facing operation.
func requireProvider(actor *models.User, b *models.Booking) error {
	if err := CheckProviderAdmission(actor); err != nil {
		return err
	}
	if b.ProviderID != actor.ID {
		return ErrForbidden
	}
	return nil
}

func requireCustomer(actor *models.User, b *models.Booking) error {
	if actor == nil || b.CustomerID != actor.ID {
		return ErrForbidden
	}
	return nil
}
