package ledger

import "time"

// UserRecord is the per-user entry of the ledger. User ids are
// platform-assigned and treated as opaque strings.
type UserRecord struct {
	// Balance is the current balance in whole currency units. Never negative.
	Balance int64 `json:"balance"`
	// Active lists currently active service identifiers.
	Active []string `json:"active"`
	// Purchased lists historical purchase identifiers. Append-only.
	Purchased []string `json:"purchased"`
	// Phone is empty until the user shares a contact. Write-once.
	Phone string `json:"phone"`
	// Invited lists user ids this user referred. Append-only.
	Invited []string `json:"invited"`
	// Inviter is the id of the user that referred this one, set at most once.
	Inviter string `json:"inviter,omitempty"`
}

// PurchaseRecord captures one completed purchase.
type PurchaseRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PackageID string    `json:"package_id"`
	Timestamp time.Time `json:"timestamp"`
	Amount    int64     `json:"amount"`
}

// Document is the root aggregate persisted as a single unit.
type Document struct {
	Users     map[string]*UserRecord `json:"users"`
	Purchases []PurchaseRecord       `json:"purchases"`
}

// NewDocument returns an empty document ready for use.
func NewDocument() *Document {
	return &Document{
		Users:     make(map[string]*UserRecord),
		Purchases: []PurchaseRecord{},
	}
}

// NewUserRecord returns a record with the defaults applied on first contact.
func NewUserRecord() *UserRecord {
	return &UserRecord{
		Active:    []string{},
		Purchased: []string{},
		Invited:   []string{},
	}
}

// Clone returns a deep copy of the record.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Active = append([]string{}, u.Active...)
	cp.Purchased = append([]string{}, u.Purchased...)
	cp.Invited = append([]string{}, u.Invited...)
	return &cp
}

// Clone returns a deep copy of the document. Commits always operate on a
// clone so a failed durable write never leaves a half-mutated mirror behind.
func (d *Document) Clone() *Document {
	if d == nil {
		return NewDocument()
	}
	cp := &Document{
		Users:     make(map[string]*UserRecord, len(d.Users)),
		Purchases: append([]PurchaseRecord{}, d.Purchases...),
	}
	for id, rec := range d.Users {
		cp.Users[id] = rec.Clone()
	}
	return cp
}

// Normalize replaces nil maps and slices left behind by decoding with their
// empty equivalents so mutations never hit a nil container.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = make(map[string]*UserRecord)
	}
	if d.Purchases == nil {
		d.Purchases = []PurchaseRecord{}
	}
	for _, rec := range d.Users {
		if rec.Active == nil {
			rec.Active = []string{}
		}
		if rec.Purchased == nil {
			rec.Purchased = []string{}
		}
		if rec.Invited == nil {
			rec.Invited = []string{}
		}
	}
}
