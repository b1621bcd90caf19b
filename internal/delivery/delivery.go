package delivery

import (
	"context"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
)

// Delivery - граница внешнего канала доставки (push/SMS/мессенджер).
// Ядро отдаёт сформированное уведомление и больше ничего не знает о
// транспорте.
type Delivery interface {
	Send(ctx context.Context, user *model.User, n *model.Notification) error
}
