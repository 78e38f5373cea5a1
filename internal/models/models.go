package models

import (
	"time"
)

// UserMode is how the session user is currently browsing the marketplace.
type UserMode string

const (
	ModeGuest  UserMode = "guest"
	ModeBuyer  UserMode = "buyer"
	ModeSeller UserMode = "seller"
)

func (m UserMode) Valid() bool {
	switch m {
	case ModeGuest, ModeBuyer, ModeSeller:
		return true
	}
	return false
}

// MembershipTier gates posting limits for sellers and feed access for buyers.
type MembershipTier string

const (
	TierFree    MembershipTier = "free"
	TierPremium MembershipTier = "premium"
)

func (t MembershipTier) Valid() bool {
	return t == TierFree || t == TierPremium
}

// Category is the product family a listing belongs to.
type Category string

const (
	CategoryFabric  Category = "fabric"
	CategoryYarn    Category = "yarn"
	CategoryJute    Category = "jute"
	CategoryLeather Category = "leather"
	CategoryFiber   Category = "fiber"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFabric, CategoryYarn, CategoryJute, CategoryLeather, CategoryFiber:
		return true
	}
	return false
}

// ReactionType is the emoji-style endorsement attached to a broadcast.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionFire  ReactionType = "fire"
	ReactionClap  ReactionType = "clap"
	ReactionThink ReactionType = "think"
)

func (r ReactionType) Valid() bool {
	switch r {
	case ReactionLike, ReactionLove, ReactionFire, ReactionClap, ReactionThink:
		return true
	}
	return false
}

// NotificationType classifies entries of the notification feed.
type NotificationType string

const (
	NotificationOrder     NotificationType = "order"
	NotificationMessage   NotificationType = "message"
	NotificationBroadcast NotificationType = "broadcast"
	NotificationFollow    NotificationType = "follow"
)

func (n NotificationType) Valid() bool {
	switch n {
	case NotificationOrder, NotificationMessage, NotificationBroadcast, NotificationFollow:
		return true
	}
	return false
}

// User is the single session user. Mode and membership are changed in
// place; the user is never recreated by mode switches.
type User struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Mode       UserMode       `json:"mode"`
	Membership MembershipTier `json:"membership"`
	Avatar     string         `json:"avatar,omitempty"`
}

// IsPremium reports whether the user is on the premium tier.
func (u User) IsPremium() bool {
	return u.Membership == TierPremium
}

// Product is a listing owned by a seller. Titles and descriptions are
// carried in English and Bangla.
type Product struct {
	ID            string   `json:"id"`
	SellerID      string   `json:"seller_id"`
	Title         string   `json:"title"`
	TitleBn       string   `json:"title_bn"`
	Description   string   `json:"description"`
	DescriptionBn string   `json:"description_bn"`
	Price         float64  `json:"price"`
	MOQ           string   `json:"moq"`
	Blend         string   `json:"blend"`
	Category      Category `json:"category"`
	Image         string   `json:"image"`
}

// Seller is a storefront. Followers, ProductCount and BroadcastCount are
// denormalized counters kept in sync by the store operations that own them.
type Seller struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	NameBn         string   `json:"name_bn"`
	Description    string   `json:"description"`
	DescriptionBn  string   `json:"description_bn"`
	Logo           string   `json:"logo"`
	Banner         string   `json:"banner,omitempty"`
	Followers      int      `json:"followers"`
	ProductCount   int      `json:"product_count"`
	BroadcastCount int      `json:"broadcast_count"`
	Verified       bool     `json:"verified"`
	Categories     []string `json:"categories,omitempty"`
}

// ChannelSettings are the per-channel toggles a seller controls.
type ChannelSettings struct {
	NotificationsEnabled bool `json:"notifications_enabled"`
	AllowComments        bool `json:"allow_comments"`
	ShowSubscriberCount  bool `json:"show_subscriber_count"`
}

// BroadcastChannel is the one-per-seller feed buyers subscribe to.
//
// Subscribers is a set: a user ID appears at most once. MessageCount equals
// the number of live broadcasts created under the channel. PinnedMessageID
// is empty when nothing is pinned.
type BroadcastChannel struct {
	ID              string          `json:"id"`
	SellerID        string          `json:"seller_id"`
	Name            string          `json:"name"`
	NameBn          string          `json:"name_bn"`
	Description     string          `json:"description"`
	DescriptionBn   string          `json:"description_bn"`
	Avatar          string          `json:"avatar"`
	Subscribers     []string        `json:"subscribers"`
	CreatedAt       time.Time       `json:"created_at"`
	IsPremiumOnly   bool            `json:"is_premium_only"`
	MessageCount    int             `json:"message_count"`
	PinnedMessageID string          `json:"pinned_message_id,omitempty"`
	Settings        ChannelSettings `json:"settings"`
}

// HasSubscriber reports whether userID is subscribed to the channel.
func (c BroadcastChannel) HasSubscriber(userID string) bool {
	for _, id := range c.Subscribers {
		if id == userID {
			return true
		}
	}
	return false
}

// Reaction is one user's endorsement of a broadcast. A user holds at most
// one reaction per broadcast.
type Reaction struct {
	UserID string       `json:"user_id"`
	Type   ReactionType `json:"type"`
}

// Broadcast is a single post published to a channel.
type Broadcast struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	SellerID  string     `json:"seller_id"`
	Content   string     `json:"content"`
	Image     string     `json:"image,omitempty"`
	ProductID string     `json:"product_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Views     []string   `json:"views"`
	Reactions []Reaction `json:"reactions"`
	Forwards  int        `json:"forwards"`
	IsPinned  bool       `json:"is_pinned"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// ReactionBy returns the reaction userID left on the broadcast, if any.
func (b Broadcast) ReactionBy(userID string) (Reaction, bool) {
	for _, r := range b.Reactions {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// Message is a direct message between two users. Only Read ever changes,
// and only from false to true.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"read"`
}

// CartItem is one line of the session cart. Quantity is always >= 1 and a
// product appears on at most one line.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Notification is an entry of the newest-first notification feed.
type Notification struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
	Type      NotificationType `json:"type"`
}

// State is the complete session snapshot. It is what observers receive and
// what gets persisted under the state key.
type State struct {
	User              User               `json:"user"`
	Products          []Product          `json:"products"`
	Sellers           []Seller           `json:"sellers"`
	BroadcastChannels []BroadcastChannel `json:"broadcast_channels"`
	Broadcasts        []Broadcast        `json:"broadcasts"`
	Messages          []Message          `json:"messages"`
	Cart              []CartItem         `json:"cart"`
	Notifications     []Notification     `json:"notifications"`
	FollowedSellers   []string           `json:"followed_sellers"`
}
