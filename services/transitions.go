package services

import (
	"fmt"

	"service-booking-server/models"
)

// BookingEvent names an action that may move a booking between states.
type BookingEvent string

const (
	EventAccept           BookingEvent = "accept"
	EventRejectByProvider BookingEvent = "reject_by_provider"
	EventCancelByCustomer BookingEvent = "cancel_by_customer"
	EventExpire           BookingEvent = "expire"
	EventStart            BookingEvent = "start"
	EventMarkDone         BookingEvent = "mark_done"
	EventConfirmPayment   BookingEvent = "confirm_payment"
	EventSubmitFeedback   BookingEvent = "submit_feedback"
)

type transitionKey struct {
	from  models.BookingStatus
	event BookingEvent
}

// transitions is the complete lifecycle graph. Anything not listed here is
// not a transition.
var transitions = map[transitionKey]models.BookingStatus{
	{models.BookingStatusPending, EventAccept}:            models.BookingStatusAccepted,
	{models.BookingStatusPending, EventRejectByProvider}:  models.BookingStatusRejected,
	{models.BookingStatusPending, EventCancelByCustomer}:  models.BookingStatusRejected,
	{models.BookingStatusPending, EventExpire}:            models.BookingStatusRejected,
	{models.BookingStatusAccepted, EventStart}:            models.BookingStatusInProgress,
	{models.BookingStatusInProgress, EventMarkDone}:       models.BookingStatusInProgress,
	{models.BookingStatusInProgress, EventConfirmPayment}: models.BookingStatusCompleted,
	{models.BookingStatusCompleted, EventSubmitFeedback}:  models.BookingStatusCompleted,
}

// Next returns the state reached by applying event in state from.
func Next(from models.BookingStatus, event BookingEvent) (models.BookingStatus, bool) {
	to, ok := transitions[transitionKey{from, event}]
	return to, ok
}

// transition is a validated edge of the lifecycle graph.
type transition struct {
	event BookingEvent
	from  models.BookingStatus
	to    models.BookingStatus
}

// mustTransition builds an edge and panics if it is not in the table, so a
// misdeclared operation fails at package initialization.
func mustTransition(from models.BookingStatus, event BookingEvent) transition {
	to, ok := Next(from, event)
	if !ok {
		panic(fmt.Sprintf("services: %q is not a valid event from %q", event, from))
	}
	return transition{event: event, from: from, to: to}
}

var (
	acceptEdge           = mustTransition(models.BookingStatusPending, EventAccept)
	rejectByProviderEdge = mustTransition(models.BookingStatusPending, EventRejectByProvider)
	cancelByCustomerEdge = mustTransition(models.BookingStatusPending, EventCancelByCustomer)
	expireEdge           = mustTransition(models.BookingStatusPending, EventExpire)
	startEdge            = mustTransition(models.BookingStatusAccepted, EventStart)
	markDoneEdge         = mustTransition(models.BookingStatusInProgress, EventMarkDone)
	confirmPaymentEdge   = mustTransition(models.BookingStatusInProgress, EventConfirmPayment)
	submitFeedbackEdge   = mustTransition(models.BookingStatusCompleted, EventSubmitFeedback)
)
