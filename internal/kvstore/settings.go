package kvstore

import (
	"context"
	"errors"

	"github.com/LavishGent/subtitlecache/internal/types"
)

const (
	settingSourcePreference = "subtitle_source"
	settingAuthToken        = "auth_token"
)

// Settings exposes the user settings kept in the settings namespace.
type Settings struct {
	store    types.KeyValueStore
	fallback types.SourcePreference
	seed     types.SecretString
}

// NewSettings returns settings over store. fallback is reported when no valid
// preference is saved; seedToken is reported when no token is saved.
func NewSettings(store types.KeyValueStore, fallback types.SourcePreference, seedToken types.SecretString) *Settings {
	if fallback == "" {
		fallback = types.PreferenceCloud
	}
	return &Settings{store: store, fallback: fallback, seed: seedToken}
}

// Preference returns the saved source preference, or the fallback when none
// is saved or the saved value is not recognized. Store failures also yield
// the fallback together with the error.
func (s *Settings) Preference(ctx context.Context) (types.SourcePreference, error) {
	raw, err := s.store.Get(ctx, NamespaceSettings, settingSourcePreference)
	if err != nil {
		if errors.Is(err, types.ErrCacheMiss) {
			return s.fallback, nil
		}
		return s.fallback, err
	}
	if pref, ok := types.ParseSourcePreference(string(raw)); ok {
		return pref, nil
	}
	return s.fallback, nil
}

func (s *Settings) SetPreference(ctx context.Context, pref types.SourcePreference) error {
	return s.store.Put(ctx, NamespaceSettings, settingSourcePreference, []byte(pref))
}

// AuthToken returns the saved bearer token, or the seed token when none is
// saved. A store failure returns the seed together with the error, so callers
// can keep authenticating with it.
func (s *Settings) AuthToken(ctx context.Context) (types.SecretString, error) {
	raw, err := s.store.Get(ctx, NamespaceSettings, settingAuthToken)
	if err != nil {
		if errors.Is(err, types.ErrCacheMiss) {
			return s.seed, nil
		}
		return s.seed, err
	}
	if len(raw) == 0 {
		return s.seed, nil
	}
	return types.NewSecretString(string(raw)), nil
}

func (s *Settings) SetAuthToken(ctx context.Context, token types.SecretString) error {
	if token.IsEmpty() {
		return s.store.Delete(ctx, NamespaceSettings, settingAuthToken)
	}
	return s.store.Put(ctx, NamespaceSettings, settingAuthToken, []byte(token.Value()))
}

var (
	_ types.PreferenceReader = (*Settings)(nil)
	_ types.TokenProvider    = (*Settings)(nil)
)
