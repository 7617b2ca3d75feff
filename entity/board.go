package entity

type BoardType string

const (
	BoardPersonal  BoardType = "personal"
	BoardWorkplace BoardType = "workplace"
)

func (t BoardType) Valid() bool {
	return t == BoardPersonal || t == BoardWorkplace
}

type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        BoardType `json:"type"`
	OwnerID     string    `json:"ownerId"`
	Description *string   `json:"description"`
}

// BoardMember grants a non-owner access to a board. The owner never has a row.
type BoardMember struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	UserID  string `json:"userId"`
}
