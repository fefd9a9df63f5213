package mapper

import (
	"encoding/json"

	"gym-membership-be/internal/entity"
	"gym-membership-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func toJSON(v map[string]interface{}) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func fromJSON(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func (m *NotificationMapper) ToModel(n *entity.Notification) *model.Notification {
	if n == nil || n.RecipientId == nil {
		return nil
	}
	return &model.Notification{
		Id:           n.Id,
		UserId:       *n.RecipientId,
		MembershipId: n.MembershipId,
		Type:         string(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		Metadata:     toJSON(n.Metadata),
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

func (m *NotificationMapper) ToEntity(n *model.Notification) *entity.Notification {
	if n == nil {
		return nil
	}
	recipient := n.UserId
	return &entity.Notification{
		Id:           n.Id,
		RecipientId:  &recipient,
		MembershipId: n.MembershipId,
		Type:         entity.NotificationType(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		Metadata:     fromJSON(n.Metadata),
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

func (m *NotificationMapper) AdminToModel(n *entity.Notification) *model.AdminNotification {
	if n == nil {
		return nil
	}
	return &model.AdminNotification{
		Id:           n.Id,
		MembershipId: n.MembershipId,
		Type:         string(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		Metadata:     toJSON(n.Metadata),
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

func (m *NotificationMapper) AdminToEntity(n *model.AdminNotification) *entity.Notification {
	if n == nil {
		return nil
	}
	return &entity.Notification{
		Id:           n.Id,
		MembershipId: n.MembershipId,
		Type:         entity.NotificationType(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		Metadata:     fromJSON(n.Metadata),
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

func (m *NotificationMapper) AuditToModel(a *entity.AuditLog) *model.MembershipAuditLog {
	if a == nil {
		return nil
	}
	id := a.Id
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &model.MembershipAuditLog{
		Id:             id,
		MembershipId:   a.MembershipId,
		Action:         a.Action,
		ActorId:        a.ActorId,
		PreviousStatus: a.PreviousStatus,
		NewStatus:      a.NewStatus,
		Details:        toJSON(a.Details),
		CreatedAt:      a.CreatedAt,
	}
}

func (m *NotificationMapper) AuditToEntity(a *model.MembershipAuditLog) *entity.AuditLog {
	if a == nil {
		return nil
	}
	return &entity.AuditLog{
		Id:             a.Id,
		MembershipId:   a.MembershipId,
		Action:         a.Action,
		ActorId:        a.ActorId,
		PreviousStatus: a.PreviousStatus,
		NewStatus:      a.NewStatus,
		Details:        fromJSON(a.Details),
		CreatedAt:      a.CreatedAt,
	}
}
