package model

import "time"

// Theme is the top taxonomy level, scoped to a tenant.
type Theme struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	TenantID  string    `json:"tenantId" bson:"tenantId"`
	Name      string    `json:"name" bson:"name"`
	Prefix    string    `json:"prefix,omitempty" bson:"prefix,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Subtheme belongs to exactly one theme.
type Subtheme struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	TenantID  string    `json:"tenantId" bson:"tenantId"`
	ThemeID   string    `json:"themeId" bson:"themeId"`
	Name      string    `json:"name" bson:"name"`
	Prefix    string    `json:"prefix,omitempty" bson:"prefix,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Group belongs to exactly one subtheme.
type Group struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	TenantID   string    `json:"tenantId" bson:"tenantId"`
	SubthemeID string    `json:"subthemeId" bson:"subthemeId"`
	Name       string    `json:"name" bson:"name"`
	Prefix     string    `json:"prefix,omitempty" bson:"prefix,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
