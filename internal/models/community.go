package models

import "time"

// Notification types.
const (
	NotificationAchievement  = "achievement"
	NotificationReminder     = "reminder"
	NotificationCommunity    = "community"
	NotificationMotivational = "motivational"
	NotificationSystem       = "system"
)

// Ranks awarded by level.
const (
	RankBeginner = "Beginner"
	RankBronze   = "Bronze"
	RankSilver   = "Silver"
	RankGold     = "Gold"
	RankPlatinum = "Platinum"
)

// UserPoints is the gamification state of one user.
type UserPoints struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	UserID        string    `gorm:"size:64;not null;uniqueIndex" json:"userId"`
	TotalPoints   int       `gorm:"not null;default:0" json:"totalPoints"`
	CurrentStreak int       `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak int       `gorm:"not null;default:0" json:"longestStreak"`
	Level         int       `gorm:"not null;default:1" json:"level"`
	Rank          string    `gorm:"size:32;not null;default:Beginner" json:"rank"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName returns the database table name for UserPoints.
func (UserPoints) TableName() string { return "user_points" }

// UserAchievement is an unlocked badge.
type UserAchievement struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	UserID           string    `gorm:"size:64;not null;index" json:"userId"`
	BadgeID          string    `gorm:"size:64;not null" json:"badgeId"`
	BadgeName        string    `gorm:"size:255;not null" json:"badgeName"`
	BadgeDescription string    `gorm:"type:text" json:"badgeDescription"`
	BadgeIcon        string    `gorm:"size:1024" json:"badgeIcon"`
	UnlockedAt       time.Time `json:"unlockedAt"`
}

// CommunityPost is a feed entry. Likes and Comments are denormalized counters.
type CommunityPost struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  string    `gorm:"size:32;not null" json:"category"`
	ImageURL  string    `gorm:"size:1024" json:"imageUrl"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Comments  int       `gorm:"not null;default:0" json:"comments"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommunityComment is a reply to a post.
type CommunityComment struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	PostID    string    `gorm:"size:64;not null;index" json:"postId"`
	UserID    string    `gorm:"size:64;not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserNotification is an in-app notification, also pushed over websocket.
type UserNotification struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"userId"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"isRead"`
	ActionURL string    `gorm:"size:1024" json:"actionUrl,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}
