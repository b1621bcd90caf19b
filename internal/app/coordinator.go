package app

import (
	"context"

	"github.com/Freeeeeet/gympartner_bot/internal/feed"
	"github.com/Freeeeeet/gympartner_bot/internal/service"
)

// Coordinator - точка входа ядра координации. Внешний слой (API, бот)
// вызывает сервисы напрямую; Run поднимает фоновую часть: hub с
// heartbeat-ами и слушатель change feed.
type Coordinator struct {
	Partners      *service.PartnerService
	Availability  *service.AvailabilityService
	Matching      *service.MatchingService
	Proposals     *service.ProposalService
	Notifications *service.NotificationService
	Hub           *feed.Hub

	listener *feed.Listener
}

func NewCoordinator(
	partners *service.PartnerService,
	availability *service.AvailabilityService,
	matching *service.MatchingService,
	proposals *service.ProposalService,
	notifications *service.NotificationService,
	hub *feed.Hub,
	listener *feed.Listener,
) *Coordinator {
	return &Coordinator{
		Partners:      partners,
		Availability:  availability,
		Matching:      matching,
		Proposals:     proposals,
		Notifications: notifications,
		Hub:           hub,
		listener:      listener,
	}
}

// Run блокируется до отмены контекста
func (c *Coordinator) Run(ctx context.Context) error {
	go c.Hub.Run(ctx)
	return c.listener.Run(ctx)
}
