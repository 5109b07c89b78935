package repository

import (
	"context"

	"healthbuddy/internal/models"
	"healthbuddy/internal/observability"

	"gorm.io/gorm"
)

// SupportRepository persists support tickets and their message history.
type SupportRepository interface {
	CreateTicket(ctx context.Context, ticket *models.SupportTicket) error
	GetTicket(ctx context.Context, id string) (*models.SupportTicket, error)
	ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error)
	// UpdateTicket writes the given columns and bumps updated_at.
	UpdateTicket(ctx context.Context, id string, fields map[string]interface{}) error
	CreateMessage(ctx context.Context, msg *models.SupportMessage) error
	ListMessages(ctx context.Context, ticketID string) ([]models.SupportMessage, error)
}

type supportRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewSupportRepository returns a gorm-backed SupportRepository.
func NewSupportRepository(db *gorm.DB) SupportRepository {
	return &supportRepository{
		db:     db,
		logger: observability.NewRepoLogger("support_tickets"),
	}
}

func (r *supportRepository) CreateTicket(ctx context.Context, ticket *models.SupportTicket) error {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{
		"ticket_id": ticket.ID,
		"category":  ticket.Category,
	})
	return nil
}

func (r *supportRepository) GetTicket(ctx context.Context, id string) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &ticket, nil
}

func (r *supportRepository) ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tickets, nil
}

func (r *supportRepository) UpdateTicket(ctx context.Context, id string, fields map[string]interface{}) error {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	}
	if err := r.db.WithContext(ctx).Model(&models.SupportTicket{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"ticket_id": id, "fields": len(fields)})
	return nil
}

func (r *supportRepository) CreateMessage(ctx context.Context, msg *models.SupportMessage) error {
	defer observability.TrackQuery("insert", "support_messages")()
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *supportRepository) ListMessages(ctx context.Context, ticketID string) ([]models.SupportMessage, error) {
	var msgs []models.SupportMessage
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
