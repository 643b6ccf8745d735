// Package roomref resolves the two room addressing schemes the platform
// has accumulated: canonical identifiers derived from a booking UUID, and
// opaque legacy identifiers for ad-hoc rooms that predate bookings.
package roomref

import (
	"strings"

	"github.com/google/uuid"

	"github.com/solacecare/counselcall/internal/apperr"
)

type Kind int

const (
	KindCanonical Kind = iota
	KindLegacy
)

const maxLegacyIDLength = 64

// Ref is a room reference resolved once at the boundary. Canonical refs
// carry the booking UUID; legacy refs only the opaque room id.
type Ref struct {
	kind      Kind
	roomID    string
	bookingID uuid.UUID
}

// Parse classifies a raw room/booking reference by syntactic validity:
// anything that parses as a UUID addresses a booking-backed room.
func Parse(raw string) (Ref, error) {
	s := Normalize(raw)
	if s == "" {
		return Ref{}, apperr.InvalidArgument("empty room reference")
	}

	if id, err := uuid.Parse(s); err == nil {
		return Ref{kind: KindCanonical, roomID: id.String(), bookingID: id}, nil
	}

	if len(s) > maxLegacyIDLength || strings.ContainsAny(s, " \t\n/") {
		return Ref{}, apperr.InvalidArgument("malformed room reference")
	}
	return Ref{kind: KindLegacy, roomID: s}, nil
}

func (r Ref) Kind() Kind { return r.kind }

func (r Ref) IsCanonical() bool { return r.kind == KindCanonical }

// RoomID returns the canonical string form used as the room's durable id.
func (r Ref) RoomID() string { return r.roomID }

// BookingID is only meaningful for canonical refs.
func (r Ref) BookingID() uuid.UUID { return r.bookingID }

// Normalize maps identifiers from different subsystems onto one
// comparable string form. UUIDs arrive upper-cased from some clients and
// ObjectId-style hex from others; comparisons must not care.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SameID compares two identifiers after normalization.
func SameID(a, b string) bool {
	return Normalize(a) != "" && Normalize(a) == Normalize(b)
}
