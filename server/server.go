// Package server exposes the playlist and the track library over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"Playdeck/cache"
	"Playdeck/config"
	"Playdeck/core/library"
	"Playdeck/core/metadata"
	"Playdeck/core/nowplaying"
	"Playdeck/core/playlist"
	"Playdeck/logger"
	"Playdeck/storage"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

// NewRouter registers every route on a fresh router. webAppDir, when not
// empty, is served at /.
func NewRouter(h *APIHandler, webAppDir string) *mux.Router {
	router := mux.NewRouter().UseEncodedPath()
	router.Use(RequestLogging, Recovery, CORS)

	// Preflight requests only need the CORS middleware.
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/playlist/songs", h.AddSongHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlist/songs", h.ListSongsHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlist/songs/{title:.+}", h.RemoveSongHandler).Methods(http.MethodDelete)
	api.HandleFunc("/playlist/current", h.CurrentSongHandler).Methods(http.MethodGet)
	api.HandleFunc("/playlist/next", h.NextSongHandler).Methods(http.MethodPost)
	api.HandleFunc("/playlist/previous", h.PreviousSongHandler).Methods(http.MethodPost)

	api.HandleFunc("/songs", h.LibraryHandler).Methods(http.MethodGet)
	api.HandleFunc("/upload", h.UploadHandler).Methods(http.MethodPost)
	api.HandleFunc("/delete/{filename}", h.DeleteFileHandler).Methods(http.MethodDelete)

	router.HandleFunc("/static/music/{filename}", h.MusicFileHandler).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/ws/playlist", h.PlaylistFeedHandler).Methods(http.MethodGet)

	if webAppDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(webAppDir)))
	}
	return router
}

// NewStore builds the track store selected by cfg.
func NewStore(ctx context.Context, cfg *config.Config) (storage.TrackStore, error) {
	policy := storage.Policy{AllowedExtensions: cfg.AllowedExtensions, MaxBytes: cfg.MaxUploadBytes}
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return storage.NewLocalStore(cfg.UploadDir, policy)
	case config.StorageMinio:
		return storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
			Prefix:    cfg.MinioPrefix,
		}, policy)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewExtractor returns a tag extractor over store, cached in Redis when
// Redis is configured and reachable. The returned client is nil when no
// cache is used; callers must close it otherwise.
func NewExtractor(ctx context.Context, cfg *config.Config, store storage.TrackStore) (metadata.Extractor, *redis.Client) {
	tags := metadata.NewTagExtractor(store)
	if !cfg.RedisEnabled() {
		return tags, nil
	}
	client, err := cache.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Warn("metadata cache disabled", logger.ErrorField(err))
		return tags, nil
	}
	logger.Info("metadata cache enabled",
		logger.String("addr", client.Options().Addr),
		logger.Duration("ttl", cfg.MetadataCacheTTL))
	return metadata.NewCachedExtractor(tags, cache.NewMetadataCache(client, cfg.MetadataCacheTTL)), client
}

// Start wires the application together and serves until ctx is done.
func Start(ctx context.Context, cfg *config.Config) error {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialise track store: %w", err)
	}

	extractor, redisClient := NewExtractor(ctx, cfg, store)
	if redisClient != nil {
		defer redisClient.Close()
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cached, ok := extractor.(*metadata.CachedExtractor); ok && cfg.WatchUploads {
		if local, ok := store.(*storage.LocalStore); ok {
			policy := storage.Policy{AllowedExtensions: cfg.AllowedExtensions}
			w, err := library.NewWatcher(local.Dir(), policy.Allowed, cached.Invalidate)
			if err != nil {
				logger.Warn("upload directory watcher disabled", logger.ErrorField(err))
			} else {
				go w.Run(watchCtx)
			}
		}
	}

	hub := nowplaying.NewHub()
	defer hub.Stop()

	session := playlist.NewSession()
	session.SetChecks(cfg.PlaylistChecks)
	session.Subscribe(hub.Publish)

	handler := NewAPIHandler(session, store, extractor, hub, cfg.MaxUploadBytes)
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           NewRouter(handler, cfg.WebAppDir),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
