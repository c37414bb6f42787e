package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies who produced a SessionRecord.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleOptimizer Role = "optimizer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleOptimizer:
		return true
	}
	return false
}

// RoutingInfo is the proof-of-routing metadata attached to assistant records.
type RoutingInfo struct {
	Location     string  `json:"location"`
	Logic        string  `json:"logic"`
	WaterSavedML float64 `json:"water_saved_ml"`
	IsEstimate   bool    `json:"is_estimate"`
}

// SessionRecord is one immutable entry of the session log.
// Fields are unexported so that routing info can only be attached through
// NewAssistantRecord.
type SessionRecord struct {
	role      Role
	content   string
	routing   *RoutingInfo
	turnID    string
	createdAt time.Time
}

func NewUserRecord(turnID, content string) SessionRecord {
	return newRecord(RoleUser, turnID, content)
}

func NewOptimizerRecord(turnID, optimized string) SessionRecord {
	return newRecord(RoleOptimizer, turnID, "⚡ Optimized: \""+optimized+"\"")
}

func NewSystemRecord(turnID, content string) SessionRecord {
	return newRecord(RoleSystem, turnID, content)
}

func NewAssistantRecord(turnID, content string, info RoutingInfo) SessionRecord {
	r := newRecord(RoleAssistant, turnID, content)
	r.routing = &info
	return r
}

func newRecord(role Role, turnID, content string) SessionRecord {
	return SessionRecord{
		role:      role,
		content:   content,
		turnID:    turnID,
		createdAt: time.Now().UTC(),
	}
}

func (r SessionRecord) Role() Role           { return r.role }
func (r SessionRecord) Content() string      { return r.content }
func (r SessionRecord) TurnID() string       { return r.turnID }
func (r SessionRecord) CreatedAt() time.Time { return r.createdAt }

// RoutingInfo returns a copy of the routing metadata, if any.
func (r SessionRecord) RoutingInfo() (RoutingInfo, bool) {
	if r.routing == nil {
		return RoutingInfo{}, false
	}
	return *r.routing, true
}

type recordJSON struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content"`
	RoutingInfo *RoutingInfo `json:"routing_info,omitempty"`
	TurnID      string       `json:"turn_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (r SessionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Role:        r.role,
		Content:     r.content,
		RoutingInfo: r.routing,
		TurnID:      r.turnID,
		CreatedAt:   r.createdAt,
	})
}

// UnmarshalJSON rejects records that break the routing-info invariant.
func (r *SessionRecord) UnmarshalJSON(b []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if !raw.Role.Valid() {
		return fmt.Errorf("unknown record role %q", raw.Role)
	}
	if raw.RoutingInfo != nil && raw.Role != RoleAssistant {
		return fmt.Errorf("routing info on %s record", raw.Role)
	}
	*r = SessionRecord{
		role:      raw.Role,
		content:   raw.Content,
		routing:   raw.RoutingInfo,
		turnID:    raw.TurnID,
		createdAt: raw.CreatedAt,
	}
	return nil
}
