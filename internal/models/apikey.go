package models

import (
	"time"

	"gorm.io/gorm"

	"gatewarden-api/internal/utils"
)

// APIKey represents a long-lived API key issued to a principal.
// The plaintext secret is never stored; only its SHA-256 hash.
type APIKey struct {
	ID         string   `gorm:"primaryKey;column:id" json:"id"`
	Name       string   `gorm:"column:name;size:100;not null" json:"name"`
	KeyHash    string   `gorm:"column:key_hash;size:64;not null;unique;index:idx_api_keys_key_hash" json:"-"`
	DisplayKey string   `gorm:"column:display_key;size:32;not null" json:"displayKey"`
	Scopes     []string `gorm:"column:scopes;type:jsonb;serializer:json;default:'[]'" json:"scopes"`
	CreatedBy  string   `gorm:"column:created_by;size:64;not null;index:idx_api_keys_created_by" json:"createdBy"`
	CreatedAt  int64    `gorm:"column:created_at;autoCreateTime:false;not null" json:"createdAt"`
	LastUsedAt *int64   `gorm:"column:last_used_at;default:null" json:"lastUsedAt,omitempty"`
	ExpiresAt  *int64   `gorm:"column:expires_at;default:null" json:"expiresAt,omitempty"`
	IsActive   bool     `gorm:"column:is_active;default:true;not null" json:"isActive"`
}

// TableName specifies the table name for APIKey
func (APIKey) TableName() string {
	return "api_keys"
}

// BeforeCreate hook for APIKey
func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = utils.GenerateKeyID()
	}
	if k.CreatedAt == 0 {
		k.CreatedAt = time.Now().Unix()
	}
	return nil
}

// IsExpired reports whether the key's optional expiry has passed
func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && *k.ExpiresAt <= now.Unix()
}
