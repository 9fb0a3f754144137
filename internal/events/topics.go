package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated   = "order.created"
	TopicToyDeleted     = "toy.deleted"
	TopicRentalReturned = "rental.returned"
)
