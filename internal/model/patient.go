package model

type Patient struct {
	Base
	FirstName    string  `db:"first_name" json:"first_name"`
	LastName     string  `db:"last_name" json:"last_name"`
	Email        string  `db:"email" json:"email"`
	Phone        *string `db:"phone" json:"phone"`
	Address      *string `db:"address" json:"address"`
	Age          *int    `db:"age" json:"age"`
	PhotoURL     *string `db:"photo_url" json:"photo_url"`
	PasswordHash *string `db:"password_hash" json:"-"`
}

type UpdatePatientRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	Address   *string `json:"address"`
	Age       *int    `json:"age" binding:"omitempty,min=0,max=150"`
	PhotoURL  *string `json:"photo_url" binding:"omitempty,url"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
}
