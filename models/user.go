package models

import "time"

// Usuario é a linha do diretório local de usuários sincronizada a partir do token
type Usuario struct {
	FirebaseUID string    `json:"firebase_uid" db:"firebase_uid"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
