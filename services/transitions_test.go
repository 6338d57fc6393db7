package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"service-booking-server/models"
)

func TestTransitionTable(t *testing.T) {
	statuses := []models.BookingStatus{
		models.BookingStatusPending, models.BookingStatusAccepted, models.BookingStatusInProgress,
		models.BookingStatusCompleted, models.BookingStatusRejected,
	}
	events := []BookingEvent{
		EventAccept, EventRejectByProvider, EventCancelByCustomer, EventExpire,
		EventStart, EventMarkDone, EventConfirmPayment, EventSubmitFeedback,
	}

	edges := 0
	for _, from := range statuses {
		for _, ev := range events {
			to, ok := Next(from, ev)
			if !ok {
				continue
			}
			edges++
			assert.True(t, to.IsValid(), "%s --%s--> %s", from, ev, to)
			if from == models.BookingStatusRejected {
				t.Errorf("rejected must be final, found %s", ev)
			}
			if from == models.BookingStatusCompleted {
				assert.Equal(t, EventSubmitFeedback, ev, "completed only accepts feedback")
			}
		}
	}
	assert.Equal(t, len(transitions), edges)

	to, ok := Next(models.BookingStatusPending, EventStart)
	assert.False(t, ok)
	assert.Empty(t, to)
}

func TestEveryOperationEdgeIsDeclared(t *testing.T) {
	for _, e := range []transition{
		acceptEdge, rejectByProviderEdge, cancelByCustomerEdge, expireEdge,
		startEdge, markDoneEdge, confirmPaymentEdge, submitFeedbackEdge,
	} {
		to, ok := Next(e.from, e.event)
		assert.True(t, ok, string(e.event))
		assert.Equal(t, to, e.to)
	}
}

func TestMustTransitionPanicsOnUnknownEdge(t *testing.T) {
	assert.Panics(t, func() {
		mustTransition(models.BookingStatusCompleted, EventAccept)
	})
}
