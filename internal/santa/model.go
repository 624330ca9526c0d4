// Package santa implements the gift-exchange conversation: registration of an
// external identifier, tracking code submission and the assignment lookups.
package santa

import (
	"errors"
	"strings"
)

// ErrNotFound reports a lookup that matched no row or an unset value.
var ErrNotFound = errors.New("not found")

// Status is the persisted registration status of a user.
type Status string

const (
	// StatusPending means the user has not submitted an external identifier yet.
	StatusPending Status = "pending"
	// StatusComplete means the external identifier is stored.
	StatusComplete Status = "complete"
)

// ParseStatus maps a stored value onto a Status. Anything unrecognized is pending.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusComplete:
		return StatusComplete
	default:
		return StatusPending
	}
}

// Preferences are the twelve sign-up sheet answers of one participant.
type Preferences struct {
	Name          string `db:"name"`
	Address       string `db:"address"`
	PostIndex     string `db:"post_index"`
	NewYearAttr   string `db:"new_year_attr"`
	NewYearDoings string `db:"new_year_doings"`
	BestGift      string `db:"best_gift"`
	BestFilm      string `db:"best_film"`
	BestSong      string `db:"best_song"`
	BestDish      string `db:"best_dish"`
	BestFlashback string `db:"best_flashback"`
	Decorations   string `db:"decorations"`
	RabbitGift    string `db:"rabbit_gift"`
}

// PreferenceFields is the number of sign-up sheet answers per participant.
const PreferenceFields = 12

// Values lists the answers in sheet order.
func (p Preferences) Values() []string {
	return []string{
		p.Name, p.Address, p.PostIndex, p.NewYearAttr, p.NewYearDoings, p.BestGift,
		p.BestFilm, p.BestSong, p.BestDish, p.BestFlashback, p.Decorations, p.RabbitGift,
	}
}

// PreferencesFromValues is the inverse of Values. It requires exactly PreferenceFields values.
func PreferencesFromValues(v []string) (Preferences, bool) {
	if len(v) != PreferenceFields {
		return Preferences{}, false
	}
	return Preferences{
		Name: v[0], Address: v[1], PostIndex: v[2], NewYearAttr: v[3], NewYearDoings: v[4], BestGift: v[5],
		BestFilm: v[6], BestSong: v[7], BestDish: v[8], BestFlashback: v[9], Decorations: v[10], RabbitGift: v[11],
	}, true
}

// Assignment is one sign-up sheet row: who sends to whom, plus the giver's own answers.
type Assignment struct {
	GiverExternalID    string
	ReceiverExternalID string
	Preferences        Preferences
}

// Stats are aggregate counters shown to the admin.
type Stats struct {
	Users         int `db:"users"`
	Registered    int `db:"registered"`
	TrackingCodes int `db:"tracking_codes"`
	Assignments   int `db:"assignments"`
}
