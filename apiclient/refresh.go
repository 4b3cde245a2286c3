package apiclient

import (
	"context"
	"fmt"

	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/pkg/errors"
)

// refresh returns an access token to retry with after a 401 that was sent
// with staleAccess. Concurrent callers holding the same refresh token share a
// single refresh call.
func (f *Factory) refresh(ctx context.Context, staleAccess string) (string, error) {
	sess, err := f.store.Get(ctx)
	if err != nil {
		return "", wrapStoreErr(err, "read session for refresh")
	}
	if current := sess.AccessToken(); current != "" && current != staleAccess {
		f.logger.Debug().Msg("access token already rotated, retrying with the stored one")
		return current, nil
	}
	if sess.Empty() && staleAccess != "" {
		// Cleared after this request was sent; whoever cleared it already notified.
		return "", sessionGone()
	}

	refreshToken := sess.RefreshToken()
	flightCtx := context.WithoutCancel(ctx)
	ch := f.flight.DoChan("refresh:"+refreshToken, func() (any, error) {
		return f.runRefresh(flightCtx, refreshToken)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (f *Factory) runRefresh(ctx context.Context, refreshToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.refreshTimeout)
	defer cancel()

	// Another flight may have rotated or cleared the pair between our read and this one.
	if sess, err := f.store.Get(ctx); err == nil && refreshToken != "" && sess.RefreshToken() != refreshToken {
		if sess.AccessToken() == "" {
			return "", sessionGone()
		}
		return sess.AccessToken(), nil
	}

	if refreshToken == "" {
		f.metrics.observeRefresh("no_refresh_token")
		return "", f.invalidate(ctx, errs.ErrNoRefreshToken)
	}

	token, err := f.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		f.metrics.observeRefresh("failed")
		return "", f.invalidate(ctx, fmt.Errorf("%w: %w", errs.ErrRefreshFailed, err))
	}
	if token == nil || token.AccessToken == "" {
		f.metrics.observeRefresh("failed")
		return "", f.invalidate(ctx, fmt.Errorf("%w: refresher returned no access token", errs.ErrRefreshFailed))
	}

	fresh := *token
	token = &fresh
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	err = f.store.SetToken(ctx, refreshToken, token)
	if errs.Is(err, errs.ErrSessionChanged) {
		// Logged out or rotated while the refresh was in flight; the new pair is dropped.
		f.metrics.observeRefresh("discarded")
		f.logger.Info().Msg("session changed during refresh, discarding new token")
		if sess, getErr := f.store.Get(ctx); getErr == nil && sess.AccessToken() != "" {
			return sess.AccessToken(), nil
		}
		return "", sessionGone()
	}
	if err != nil {
		f.metrics.observeRefresh("failed")
		return "", f.invalidate(ctx, fmt.Errorf("%w: store new token: %w", errs.ErrRefreshFailed, err))
	}

	f.metrics.observeRefresh("success")
	f.logger.Info().Time("expires_at", token.Expiry).Msg("access token refreshed")
	return token.AccessToken, nil
}

// invalidate clears the session and tells subscribers about it.
func (f *Factory) invalidate(ctx context.Context, cause error) error {
	if err := f.store.Clear(ctx); err != nil {
		f.logger.Err(err).Msg("failed to clear session store")
	}
	f.metrics.observeInvalidation()
	f.logger.Warn().Err(cause).Str("login_path", f.loginPath).Msg("session invalidated")
	f.notify(ctx, Invalidation{Cause: cause, LoginPath: f.loginPath})
	return fmt.Errorf("%w: %w", errs.ErrSessionInvalidated, cause)
}

// sessionGone reports a session that was torn down elsewhere, without
// clearing or notifying again.
func sessionGone() error {
	return fmt.Errorf("%w: %w", errs.ErrSessionInvalidated, errs.ErrSessionChanged)
}

func isInvalidation(err error) bool {
	return errs.Is(err, errs.ErrSessionInvalidated)
}

func wrapStoreErr(err error, msg string) error {
	return errors.Wrap(err, "[Client.Do] "+msg)
}
