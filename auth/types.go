package auth

import (
	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/identity"
)

type LoginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// LoginResponse is returned by login, Google login and refresh.
type LoginResponse struct {
	apiclient.TokenPair
	User identity.UserProfile `json:"usuario"`
}

type ChangePasswordRequest struct {
	Current string `json:"contrasena_actual"`
	New     string `json:"contrasena_nueva"`
}

// ActiveSession is a server-side login session of a user.
type ActiveSession struct {
	ID        string  `json:"ID"`
	IPAddress *string `json:"DIRECCION_IP"`
	UserAgent *string `json:"AGENTE_USUARIO"`
	CreatedAt string  `json:"CREADO_EN"`
	ExpiresAt string  `json:"EXPIRA_EN"`
	Revoked   bool    `json:"ESTA_REVOCADO"`
}
