package auth

import errs "github.com/jrsteele09/go-tareas-client/internal/errors"

var (
	EmailRequiredErr       = errs.Invalid("correo", "El correo electrónico es requerido")
	EmailInvalidErr        = errs.Invalid("correo", "Por favor ingresa un correo electrónico válido")
	PasswordRequiredErr    = errs.Invalid("contrasena", "La contraseña es requerida")
	PasswordTooShortErr    = errs.Invalid("contrasena", "La contraseña debe tener al menos 6 caracteres")
	NewPasswordTooShortErr = errs.Invalid("contrasena_nueva", "La nueva contraseña debe tener al menos 8 caracteres")
	PasswordsDontMatchErr  = errs.Invalid("contrasena_confirmar", "Las contraseñas no coinciden")
	IDTokenRequiredErr     = errs.Invalid("id_token", "El token de Google es requerido")
	EmptyLoginResponseErr  = errs.Wrapf(errs.ErrInternal, "login response carries no tokens")
)
