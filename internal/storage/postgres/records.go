package postgres

// Row types mapped by gorm. Timestamps are Unix seconds like the domain models.

type splitRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Title         string `gorm:"not null"`
	TotalCents    int64  `gorm:"not null"`
	Method        string `gorm:"type:varchar(20);not null"`
	CreatorID     string `gorm:"index;not null"`
	Status        string `gorm:"type:varchar(20);not null"`
	SubtotalCents int64
	TaxCents      int64
	TipCents      int64
	Confidence    float64
	CreatedAt     int64 `gorm:"index"`
}

func (splitRecord) TableName() string { return "splits" }

type participantRecord struct {
	SplitID       string `gorm:"primaryKey;type:varchar(36)"`
	ParticipantID string `gorm:"primaryKey"`
	Position      int    `gorm:"not null"`
	DisplayName   string
	AmountOwed    int64  `gorm:"not null"`
	AmountPaid    int64  `gorm:"not null;default:0"`
	Status        string `gorm:"type:varchar(20);not null"`
	Version       int64  `gorm:"not null;default:0"`
	UpdatedAt     int64
}

func (participantRecord) TableName() string { return "participants" }

type receiptItemRecord struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	SplitID    string `gorm:"index;type:varchar(36);not null"`
	Position   int    `gorm:"not null"`
	Name       string
	PriceCents int64 `gorm:"not null"`
	Quantity   int64 `gorm:"not null"`
}

func (receiptItemRecord) TableName() string { return "receipt_items" }

type itemClaimRecord struct {
	ItemID        string `gorm:"primaryKey;type:varchar(36)"`
	ParticipantID string `gorm:"primaryKey"`
	Position      int    `gorm:"not null"`
}

func (itemClaimRecord) TableName() string { return "item_claims" }

type paymentRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	EventID       string `gorm:"uniqueIndex;not null"`
	SplitID       string `gorm:"index;type:varchar(36);not null"`
	ParticipantID string `gorm:"not null"`
	AmountCents   int64  `gorm:"not null"`
	ReceivedAt    int64
	Source        string `gorm:"type:varchar(50)"`
	CreatedAt     int64
}

func (paymentRecord) TableName() string { return "payments" }
