// Package domain define las entidades de la aplicación y el esquema de claves
// de la tabla única que las persiste.
package domain

import "encoding/json"

type Project struct {
	ProjectID string   `json:"project_id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"` // building | annotation
	Locked    bool     `json:"locked"`
	Labels    []string `json:"labels"`
	CreatedAt string   `json:"created_at"`
}

type Block struct {
	BlockID    string  `json:"block_id"`
	ProjectID  string  `json:"project_id"`
	Name       string  `json:"name"`
	State      string  `json:"state"` // draft | current | review | complete | paid
	Locked     bool    `json:"locked"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type Image struct {
	ImageID    string `json:"image_id"`
	BlockID    string `json:"block_id"`
	URL        string `json:"url"`
	Locked     bool   `json:"locked"`
	Order      *int   `json:"order,omitempty"`
	UploadedAt string `json:"uploaded_at"`
}

// Annotation lleva la geometría como documento opaco ({"type":"polygon",...}
// o {"type":"bbox",...}); el backend no la interpreta, sólo la persiste.
type Annotation struct {
	AnnotationID string          `json:"annotation_id"`
	ImageID      string          `json:"image_id"`
	ClassID      string          `json:"class_id"`
	Geometry     json.RawMessage `json:"geometry"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    *string         `json:"updated_at,omitempty"`
}

type Class struct {
	ClassID    string          `json:"class_id"`
	ProjectID  string          `json:"project_id"`
	Name       string          `json:"name"`
	Color      *string         `json:"color,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
	Count      int             `json:"count"`
}

type User struct {
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Company   *string `json:"company,omitempty"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login,omitempty"`
}

type Invite struct {
	InviteCode string  `json:"invite_code"`
	Email      string  `json:"email"`
	Status     string  `json:"status"` // pending | used
	CreatedBy  string  `json:"created_by"`
	CreatedAt  string  `json:"created_at"`
	ExpiresAt  string  `json:"expires_at"`
	UsedAt     *string `json:"used_at,omitempty"`
}

// Connection es una entrada del registry: conexión WebSocket viva y a quién
// pertenece. Nunca se muta en el lugar; se crea al conectar y se borra al
// desconectar.
type Connection struct {
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
	ConnectedAt  string `json:"connected_at"`
}
