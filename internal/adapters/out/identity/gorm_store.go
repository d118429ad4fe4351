package identity

import (
	"context"
	"errors"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CredentialDTO maps to the credentials table.
type CredentialDTO struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Login      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	SecretHash []byte    `gorm:"type:bytea;not null"`
	Role       string    `gorm:"type:varchar(32);not null;default:''"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (CredentialDTO) TableName() string {
	return "credentials"
}

// GormStore is a CredentialStore backed by Postgres. The *gorm.DB must be
// opened with TranslateError.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, credential Credential) error {
	dto := CredentialDTO{
		UserID:     credential.UserID.Bytes(),
		Login:      credential.Login,
		SecretHash: credential.SecretHash,
		Role:       credential.Role,
		CreatedAt:  credential.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrLoginTaken
		}
		return err
	}
	return nil
}

func (s *GormStore) FindByLogin(ctx context.Context, login string) (Credential, error) {
	var dto CredentialDTO
	if err := s.db.WithContext(ctx).First(&dto, "login = ?", login).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Credential{}, errs.NewObjectNotFoundError("credential", login)
		}
		return Credential{}, err
	}

	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return Credential{}, err
	}

	return Credential{
		UserID:     userID,
		Login:      dto.Login,
		SecretHash: dto.SecretHash,
		Role:       dto.Role,
		CreatedAt:  dto.CreatedAt,
	}, nil
}

func (s *GormStore) SetRole(ctx context.Context, userID kernel.UUID, role string) error {
	result := s.db.WithContext(ctx).
		Model(&CredentialDTO{}).
		Where("user_id = ?", userID.Bytes()).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("credential", userID.String())
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, userID kernel.UUID) error {
	result := s.db.WithContext(ctx).Delete(&CredentialDTO{}, "user_id = ?", userID.Bytes())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("credential", userID.String())
	}
	return nil
}
