package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

type profileRepository struct {
	db           *gorm.DB
	defaultLimit int
}

func NewProfileRepository(db *gorm.DB, defaultLimit int) interfaces.ProfileRepository {
	return &profileRepository{db: db, defaultLimit: defaultLimit}
}

// GetOrCreate returns the user's quota row, creating it with the default limit on first use
func (r *profileRepository) GetOrCreate(ctx context.Context, userId string) (*models.Profile, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "profileRepository.GetOrCreate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	now := utils.Now()
	profile := models.Profile{
		UserID:        userId,
		DocumentLimit: r.defaultLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to create profile")
	}

	var stored models.Profile
	if err = r.db.WithContext(ctx).Where("user_id = ?", userId).First(&stored).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get profile")
	}
	span.LogKV("document_count", stored.DocumentCount, "document_limit", stored.DocumentLimit)

	return &stored, nil
}

// IncrementDocumentCount adds one document to the user's count unless the limit is
// already reached. The check and the increment are a single statement.
func (r *profileRepository) IncrementDocumentCount(ctx context.Context, userId string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "profileRepository.IncrementDocumentCount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	result := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ? AND document_count < document_limit", userId).
		Updates(map[string]interface{}{
			"document_count": gorm.Expr("document_count + 1"),
			"updated_at":     utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, errors.Wrap(result.Error, "failed to increment document count")
	}

	incremented := result.RowsAffected == 1
	span.SetTag("incremented", incremented)
	return incremented, nil
}

// DecrementDocumentCount gives one document back, never going below zero
func (r *profileRepository) DecrementDocumentCount(ctx context.Context, userId string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "profileRepository.DecrementDocumentCount")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ? AND document_count > 0", userId).
		Updates(map[string]interface{}{
			"document_count": gorm.Expr("document_count - 1"),
			"updated_at":     utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to decrement document count")
	}
	return nil
}
