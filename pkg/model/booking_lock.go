package model

import "time"

// BookingLock is a lease on one booking shared by every service instance.
// A lock past ExpiresAt may be taken over by another owner.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (l *BookingLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
