package googlelogin

import errs "github.com/jrsteele09/go-tareas-client/internal/errors"

var (
	StateNotFoundErr = errs.Wrapf(errs.ErrNotFound, "sign-in state")
	StateExpiredErr  = errs.Wrapf(errs.ErrInvalidInput, "sign-in state expired")
	NonceMismatchErr = errs.Wrapf(errs.ErrInvalidInput, "id token nonce mismatch")
	NoIDTokenErr     = errs.Wrapf(errs.ErrInvalidInput, "no id_token in token response")
	MissingCodeErr   = errs.Invalid("code", "code and state are required")
)
