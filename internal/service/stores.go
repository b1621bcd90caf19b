package service

import (
	"context"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
)

// Контракты хранилища. Сервисы работают только через эти интерфейсы;
// боевые реализации живут в internal/repository поверх pgx.

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Unlink(ctx context.Context, userID, partnerID int64) error
}

type PartnerRequestStore interface {
	Create(ctx context.Context, req *model.PartnerRequest) error
	GetByID(ctx context.Context, id int64) (*model.PartnerRequest, error)
	HasPendingBetween(ctx context.Context, userA, userB int64) (bool, error)
	GetPendingForTarget(ctx context.Context, targetID int64) ([]*model.PartnerRequest, error)
	Accept(ctx context.Context, req *model.PartnerRequest, response string) (bool, error)
	Reject(ctx context.Context, req *model.PartnerRequest, response string) (bool, error)
}

type AvailabilityStore interface {
	GetByUserID(ctx context.Context, userID int64) ([]model.AvailabilitySlot, error)
	ReplaceForUser(ctx context.Context, userID int64, slots []model.AvailabilitySlot) error
	DeleteDay(ctx context.Context, userID int64, day int) error
}

type ProposalStore interface {
	Create(ctx context.Context, p *model.SessionProposal) error
	GetByID(ctx context.Context, id int64) (*model.SessionProposal, error)
	GetPendingForUser(ctx context.Context, userID int64) ([]*model.SessionProposal, error)
	Accept(ctx context.Context, p *model.SessionProposal, response string) (*model.Session, bool, error)
	TransitionStatus(ctx context.Context, id int64, to model.ProposalStatus, response string) (bool, error)
	Counter(ctx context.Context, original, counter *model.SessionProposal) (bool, error)
}

type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetUpcomingForUser(ctx context.Context, userID int64) ([]*model.Session, error)
	Cancel(ctx context.Context, id int64) (bool, error)
}

type NotificationStore interface {
	GetByUserID(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID int64, ids []int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}
