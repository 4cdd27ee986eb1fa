package model

import "time"

// Student is the minimal student record joined into teacher views.
// Students are not authenticated; the ID arrives from the client.
type Student struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
