package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/longbridge/openapi-go/config"
)

// ErrMissingFields is returned when api_key, secret or access_token is empty.
var ErrMissingFields = errors.New("credential missing required fields (api_key, secret, access_token)")

// Keys are the three Longbridge OpenAPI secrets.
type Keys struct {
	AppKey      string
	AppSecret   string
	AccessToken string
}

// Read loads keys from a key=value credential file:
//
//	api_key=...
//	secret=...
//	access_token=...
//
// A missing file falls back to LONGBRIDGE_APP_KEY, LONGBRIDGE_APP_SECRET and
// LONGBRIDGE_ACCESS_TOKEN.
func Read(path string) (Keys, error) {
	kv, err := godotenv.Read(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		kv = map[string]string{
			"api_key":      os.Getenv("LONGBRIDGE_APP_KEY"),
			"secret":       os.Getenv("LONGBRIDGE_APP_SECRET"),
			"access_token": os.Getenv("LONGBRIDGE_ACCESS_TOKEN"),
		}
	case err != nil:
		return Keys{}, fmt.Errorf("read credential file: %w", err)
	}

	k := Keys{AppKey: kv["api_key"], AppSecret: kv["secret"], AccessToken: kv["access_token"]}
	if k.AppKey == "" || k.AppSecret == "" || k.AccessToken == "" {
		return Keys{}, ErrMissingFields
	}
	return k, nil
}

// Load reads the credential file and returns a config.Config.
func Load(path string) (*config.Config, error) {
	k, err := Read(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.New(
		config.WithConfigKey(k.AppKey, k.AppSecret, k.AccessToken),
	)
	if err != nil {
		return nil, fmt.Errorf("create config: %w", err)
	}
	return cfg, nil
}
