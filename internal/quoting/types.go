package quoting

import (
	"crosschain-swap-indexer/internal/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// QuoteHub fans quote requests out to market makers and routes their
	// answers back by request id.
	QuoteHub interface {
		Subscribe(requestID string, buffer int) Subscription
		Broadcast(req domain.QuoteRequest) int
	}

	// Subscription receives the answers to one request. Close stops delivery
	// and closes C; later answers are dropped.
	Subscription interface {
		C() <-chan domain.Quote
		Close()
	}
)
