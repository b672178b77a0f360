package dto

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponseDTO struct {
	AccessToken string  `json:"accessToken"`
	User        UserDTO `json:"user"`
}
