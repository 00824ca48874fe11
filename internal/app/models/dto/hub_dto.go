package dto

import "github.com/yigit/peerlearn/internal/app/models"

// CreateHubRequest represents hub creation data
type CreateHubRequest struct {
	Name        string            `json:"name" binding:"required,min=3,max=150"`
	Description string            `json:"description" binding:"max=2000"`
	Category    string            `json:"category" binding:"max=100"`
	Privacy     models.HubPrivacy `json:"privacy" binding:"omitempty,oneof=public private closed"`
}

// UpdateHubRequest represents hub update data
type UpdateHubRequest struct {
	Name        string            `json:"name" binding:"required,min=3,max=150"`
	Description string            `json:"description" binding:"max=2000"`
	Category    string            `json:"category" binding:"max=100"`
	Privacy     models.HubPrivacy `json:"privacy" binding:"required,oneof=public private closed"`
}

// JoinHubRequest is the optional body of a join call
type JoinHubRequest struct {
	Message string `json:"message" binding:"max=500"`
}

// UpdateMemberRoleRequest changes a member's hub role
type UpdateMemberRoleRequest struct {
	Role models.HubRole `json:"role" binding:"required,oneof=admin moderator member"`
}

// HubFilterRequest represents hub list filters
type HubFilterRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Mine     bool   `form:"mine"`
}

// JoinHubResponse tells the caller whether they joined or are waiting for approval
type JoinHubResponse struct {
	Status string `json:"status" example:"joined" enums:"joined,pending"`
}
