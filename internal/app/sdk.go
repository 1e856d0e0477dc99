package app

import (
	"fmt"

	"github.com/kokoroe/kokoroe-sdk-go/internal/config"
	"github.com/kokoroe/kokoroe-sdk-go/internal/logger"
	"github.com/kokoroe/kokoroe-sdk-go/internal/storage"
	"github.com/kokoroe/kokoroe-sdk-go/pkg/httpclient"
	"github.com/kokoroe/kokoroe-sdk-go/pkg/kokoroe"
	"github.com/kokoroe/kokoroe-sdk-go/pkg/signature"
)

// SDK is a configured API client together with the resources it owns.
type SDK struct {
	API   *kokoroe.Kokoroe
	store storage.Store
	log   logger.Logger
}

// NewSDK builds transport, optional cassette, client and facade from cfg.
func NewSDK(cfg *config.Config, log logger.Logger) (*SDK, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	mode, err := httpclient.ParseCassetteMode(cfg.CassetteMode)
	if err != nil {
		return nil, fmt.Errorf("cassette mode: %w", err)
	}

	var adapter httpclient.Adapter = httpclient.NewRestyAdapter(
		httpclient.WithSSLVerify(cfg.SSLVerify),
		httpclient.WithReadTimeout(cfg.ReadTimeout),
	)
	if !cfg.SSLVerify {
		log.WarnObj("TLS verification disabled", "api_url", cfg.APIURL)
	}

	var store storage.Store
	if mode != httpclient.CassetteOff {
		store, err = storage.NewStore("bbolt", cfg.CassettePath, storage.Options{
			TTL:             cfg.CassetteTTL,
			CleanupInterval: cfg.CassetteCleanup,
		})
		if err != nil {
			return nil, fmt.Errorf("init cassette storage: %w", err)
		}
		cassette, err := httpclient.NewCassetteAdapter(adapter, store, mode, log)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("init cassette: %w", err)
		}
		adapter = cassette
		log.InfoObj("cassette enabled", "cassette_config", map[string]any{
			"mode":                     string(mode),
			"path":                     cfg.CassettePath,
			"ttl_seconds":              int(cfg.CassetteTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.CassetteCleanup.Seconds()),
		})
	}

	opts := []httpclient.ClientOption{
		httpclient.WithAdapter(adapter),
		httpclient.WithLogger(log),
		httpclient.WithTimeout(cfg.Timeout),
	}
	if cfg.SignKey != "" {
		opts = append(opts, httpclient.WithSigner(signature.NewHMACSigner(cfg.SignKey)))
	}

	api, err := kokoroe.New(kokoroe.Options{
		ClientID:           cfg.ClientID,
		ClientSecret:       cfg.ClientSecret,
		DefaultAccessToken: cfg.AccessToken,
		DefaultAPIURL:      cfg.APIURL,
		DefaultAPIVersion:  cfg.APIVersion,
		HTTPClient:         httpclient.NewClient(opts...),
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &SDK{API: api, store: store, log: log}, nil
}

// Close releases the cassette store, logging any errors encountered.
func (s *SDK) Close() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.log.ErrorObj("cassette store close failed", "error", err)
	}
}
