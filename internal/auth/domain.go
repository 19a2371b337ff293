package auth

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name         string  `json:"name" validate:"required"`
	Age          *int    `json:"age" validate:"required,gte=0,lte=150"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required"`
	Phone        *string `json:"phone"`
	Street       *string `json:"street"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Zip          *string `json:"zip"`
	Country      *string `json:"country"`
	IsSubscribed bool    `json:"is_subscribed"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenType is the only token type issued.
const TokenType = "bearer"

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
