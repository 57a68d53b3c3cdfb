package models

import "time"

type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Gender    Gender    `json:"gender" db:"gender"`
	Ranking   int       `json:"ranking" db:"ranking"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
