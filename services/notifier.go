package services

import (
	"context"
	"log"

	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/utils"
	"gorm.io/gorm"
)

// Notifier fans domain events out to websocket clients and email. Delivery
// failures are logged and never reach the caller. A nil Notifier is a no-op.
type Notifier struct {
	db   *gorm.DB
	rt   *RealtimeHub
	mail utils.Mailer
}

func NewNotifier(db *gorm.DB, rt *RealtimeHub, mail utils.Mailer) *Notifier {
	return &Notifier{db: db, rt: rt, mail: mail}
}

// FoodModerated tells a food's owner that a staff member changed it.
func (n *Notifier) FoodModerated(ctx context.Context, actor policy.Principal, food *models.Food) {
	if n == nil || !actor.IsStaff() || food.UserID == nil || *food.UserID == actor.UserID {
		return
	}
	owner := *food.UserID
	kind := food.FoodTypeID.String()

	if n.rt != nil {
		n.rt.Publish(owner, Event{
			Kind: "food.moderated",
			Data: map[string]any{"id": food.ID, "type": kind, "name": food.Name, "is_verified": food.IsVerified},
		})
	}
	if n.mail == nil || n.db == nil {
		return
	}
	var user models.User
	if err := n.db.WithContext(ctx).Select("id", "email").First(&user, owner).Error; err != nil {
		log.Printf("notifier: load owner %d: %v", owner, err)
		return
	}
	subject, body := utils.ModerationNotice(kind, food.Name)
	if err := n.mail.Send(ctx, user.Email, subject, body); err != nil {
		log.Printf("notifier: moderation mail to user %d: %v", owner, err)
	}
}

// DiaryChanged publishes a diary.* event to the entry owner.
func (n *Notifier) DiaryChanged(ownerID uint, kind string, entryID uint) {
	if n == nil || n.rt == nil {
		return
	}
	n.rt.Publish(ownerID, Event{Kind: kind, Data: map[string]any{"id": entryID}})
}
