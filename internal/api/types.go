package api

import "time"

// Minimal wire types for the resources the client touches. Fields not listed
// here survive round-trips untouched because callers can always drop to the
// dispatcher and decode raw bodies themselves.

// User is an account on the platform.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
}

// Channel is a guild or direct-message channel.
type Channel struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	GuildID string `json:"guild_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Topic   string `json:"topic,omitempty"`
	NSFW    bool   `json:"nsfw,omitempty"`
}

// Message is a message posted to a channel.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Author      *User        `json:"author,omitempty"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file carried by a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Guild is a server.
type Guild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// Emoji is a custom guild emoji.
type Emoji struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Animated bool   `json:"animated,omitempty"`
	Managed  bool   `json:"managed,omitempty"`
}

// Sticker is a guild sticker.
type Sticker struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	FormatType  int    `json:"format_type,omitempty"`
}

// Webhook is a channel webhook.
type Webhook struct {
	ID        string `json:"id"`
	Type      int    `json:"type"`
	GuildID   string `json:"guild_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
}

// ScheduledEvent is a guild scheduled event.
type ScheduledEvent struct {
	ID          string     `json:"id"`
	GuildID     string     `json:"guild_id"`
	ChannelID   string     `json:"channel_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartTime   *time.Time `json:"scheduled_start_time,omitempty"`
	EndTime     *time.Time `json:"scheduled_end_time,omitempty"`
	Status      int        `json:"status,omitempty"`
}

// AuditLog is a page of guild audit log entries.
type AuditLog struct {
	Entries []AuditLogEntry `json:"audit_log_entries"`
}

// AuditLogEntry is one audited action.
type AuditLogEntry struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	ActionType int    `json:"action_type"`
	Reason     string `json:"reason,omitempty"`
}
