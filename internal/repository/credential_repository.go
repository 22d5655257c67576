package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/tracing"
	"github.com/customeros/invoicestack/internal/utils"
)

type mailCredentialRepository struct {
	db *gorm.DB
}

func NewMailCredentialRepository(db *gorm.DB) interfaces.MailCredentialRepository {
	return &mailCredentialRepository{db: db}
}

// GetByUserId returns nil, nil when the user has no connected mailbox
func (r *mailCredentialRepository) GetByUserId(ctx context.Context, userId string) (*models.MailCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.GetByUserId")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	var credential models.MailCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to get mail credential")
	}

	return &credential, nil
}

// Upsert stores the credential, replacing the tokens of an existing row for the same user
func (r *mailCredentialRepository) Upsert(ctx context.Context, credential *models.MailCredential) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, credential.UserID)

	credential.UpdatedAt = utils.Now()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expiry", "mail_address", "updated_at"}),
		}).
		Create(credential).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to upsert mail credential")
	}

	return nil
}

func (r *mailCredentialRepository) UpdateAccessToken(ctx context.Context, userId, accessToken string, expiry time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.UpdateAccessToken")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	result := r.db.WithContext(ctx).
		Model(&models.MailCredential{}).
		Where("user_id = ?", userId).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"expiry":       expiry,
			"updated_at":   utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return errors.Wrap(result.Error, "failed to update access token")
	}
	if result.RowsAffected == 0 {
		err := errors.Errorf("no mail credential for user %s", userId)
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (r *mailCredentialRepository) UpdateLastSyncAt(ctx context.Context, userId string, lastSyncAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.UpdateLastSyncAt")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	err := r.db.WithContext(ctx).
		Model(&models.MailCredential{}).
		Where("user_id = ?", userId).
		Updates(map[string]interface{}{
			"last_sync_at": lastSyncAt,
			"updated_at":   utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to update last sync time")
	}

	return nil
}

func (r *mailCredentialRepository) Delete(ctx context.Context, userId string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagUser(span, userId)

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Delete(&models.MailCredential{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to delete mail credential")
	}

	return nil
}

// ListUserIds returns every user with a connected mailbox
func (r *mailCredentialRepository) ListUserIds(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailCredentialRepository.ListUserIds")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var userIds []string
	err := r.db.WithContext(ctx).
		Model(&models.MailCredential{}).
		Order("user_id").
		Pluck("user_id", &userIds).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list connected users")
	}
	span.LogKV("count", len(userIds))

	return userIds, nil
}
