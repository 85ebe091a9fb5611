package entities

import "time"

// MaxArticleKeywords is the number of keyword slots an article carries.
const MaxArticleKeywords = 5

type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JournalID uint      `gorm:"index;not null" json:"journal_id"`
	Year      int       `gorm:"not null" json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

// Storage is one physical issue of a journal held by the library.
type Storage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JournalID uint      `gorm:"index;not null" json:"journal_id"`
	Year      int       `gorm:"not null" json:"year"`
	Volume    int       `gorm:"not null" json:"volume"`
	Issue     int       `gorm:"not null" json:"issue"`
	CreatedAt time.Time `json:"created_at"`
}

type Article struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StorageID  uint      `gorm:"index;not null" json:"storage_id"`
	PageNumber int       `gorm:"not null" json:"page_number"`
	Title      string    `gorm:"size:512;not null" json:"title"`
	Author     string    `gorm:"size:256;not null" json:"author"`
	Content    string    `gorm:"type:text" json:"content"`
	Keyword1   string    `gorm:"index;size:100" json:"keyword1,omitempty"`
	Keyword2   string    `gorm:"index;size:100" json:"keyword2,omitempty"`
	Keyword3   string    `gorm:"index;size:100" json:"keyword3,omitempty"`
	Keyword4   string    `gorm:"index;size:100" json:"keyword4,omitempty"`
	Keyword5   string    `gorm:"index;size:100" json:"keyword5,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Keywords returns the non-empty keyword slots in order.
func (a *Article) Keywords() []string {
	var out []string
	for _, k := range []string{a.Keyword1, a.Keyword2, a.Keyword3, a.Keyword4, a.Keyword5} {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// SetKeywords fills the keyword slots from kw. Callers check the length first.
func (a *Article) SetKeywords(kw []string) {
	slots := []*string{&a.Keyword1, &a.Keyword2, &a.Keyword3, &a.Keyword4, &a.Keyword5}
	for i, slot := range slots {
		*slot = ""
		if i < len(kw) {
			*slot = kw[i]
		}
	}
}

// Borrowing is a loan of a Storage item to a User. ReturnedAt is nil while open.
type Borrowing struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	StorageID  uint       `gorm:"index;not null" json:"storage_id"`
	BorrowedAt time.Time  `gorm:"not null" json:"borrowed_at"`
	DueAt      time.Time  `gorm:"index;not null" json:"due_at"`
	ReturnedAt *time.Time `gorm:"index" json:"returned_at,omitempty"`
}

// IsOpen returns true while the item has not been returned.
func (b *Borrowing) IsOpen() bool {
	return b.ReturnedAt == nil
}

// IsOverdue reports whether the loan is open and past its due time at now.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return b.IsOpen() && b.DueAt.Before(now)
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (Storage) TableName() string {
	return "storage"
}

func (Article) TableName() string {
	return "articles"
}

func (Borrowing) TableName() string {
	return "borrowings"
}

func (s *Subscription) Export() map[string]any {
	return map[string]any{
		"id":         s.ID,
		"journal_id": s.JournalID,
		"year":       s.Year,
	}
}

func (s *Storage) Export() map[string]any {
	return map[string]any{
		"id":         s.ID,
		"journal_id": s.JournalID,
		"year":       s.Year,
		"volume":     s.Volume,
		"issue":      s.Issue,
	}
}

func (a *Article) Export() map[string]any {
	return map[string]any{
		"id":          a.ID,
		"storage_id":  a.StorageID,
		"page_number": a.PageNumber,
		"title":       a.Title,
		"author":      a.Author,
		"content":     a.Content,
		"keywords":    a.Keywords(),
	}
}

func (b *Borrowing) Export() map[string]any {
	out := map[string]any{
		"id":          b.ID,
		"user_id":     b.UserID,
		"storage_id":  b.StorageID,
		"borrowed_at": b.BorrowedAt,
		"due_at":      b.DueAt,
	}
	if b.ReturnedAt != nil {
		out["returned_at"] = *b.ReturnedAt
	}
	return out
}
