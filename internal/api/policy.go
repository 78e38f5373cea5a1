package api

import (
	"fmt"

	"github.com/lalith-99/auraloom/internal/models"
	"github.com/lalith-99/auraloom/internal/store"
)

const (
	CodeQuotaExceeded   = "quota_exceeded"
	CodePremiumRequired = "premium_required"
)

// PolicyError is a request refused by the membership rules. It maps to 403.
type PolicyError struct {
	Code    string
	Message string
}

func (e *PolicyError) Error() string { return e.Message }

// Policy holds the membership rules. The store only keeps accurate counts;
// deciding what a free account may do happens here, before the store is
// asked to change anything.
type Policy struct {
	FreeProductLimit   int
	FreeBroadcastLimit int
}

// DefaultPolicy allows two products and two broadcasts on the free tier.
var DefaultPolicy = Policy{FreeProductLimit: 2, FreeBroadcastLimit: 2}

func (p Policy) CheckNewProduct(user models.User, q store.Quota) error {
	if user.IsPremium() || q.Products < p.FreeProductLimit {
		return nil
	}
	return &PolicyError{
		Code:    CodeQuotaExceeded,
		Message: fmt.Sprintf("free sellers can list up to %d products; upgrade to premium for more", p.FreeProductLimit),
	}
}

func (p Policy) CheckNewBroadcast(user models.User, q store.Quota) error {
	if user.IsPremium() || q.Broadcasts < p.FreeBroadcastLimit {
		return nil
	}
	return &PolicyError{
		Code:    CodeQuotaExceeded,
		Message: fmt.Sprintf("free sellers can publish up to %d broadcasts; upgrade to premium for more", p.FreeBroadcastLimit),
	}
}

// CheckFeed gates the subscribed feed. Only buyers on the free tier are
// turned away; sellers and guests browse it freely.
func (p Policy) CheckFeed(user models.User) error {
	if user.Mode != models.ModeBuyer || user.IsPremium() {
		return nil
	}
	return &PolicyError{Code: CodePremiumRequired, Message: "the broadcast feed requires a premium membership"}
}

func (p Policy) CheckSubscribe(user models.User, channel models.BroadcastChannel) error {
	if !channel.IsPremiumOnly || user.IsPremium() {
		return nil
	}
	return &PolicyError{Code: CodePremiumRequired, Message: "this channel is for premium members only"}
}
