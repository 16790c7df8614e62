package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"attendview/internal/api"
	"attendview/internal/attendance"
	"attendview/internal/backend"
	"attendview/internal/board"
	"attendview/internal/checkin"
	"attendview/internal/cloudinary"
	"attendview/internal/config"
	"attendview/internal/faceclient"
	"attendview/internal/qrtoken"
	"attendview/internal/queue"
	"attendview/internal/refresh"
	"attendview/internal/reportcache"
	"attendview/internal/store"
	"attendview/internal/wifi"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policies := attendance.PolicySet{Default: attendance.DefaultPolicy()}
	if cfg.PolicyFile != "" {
		var err error
		if policies, err = attendance.LoadPolicies(cfg.PolicyFile); err != nil {
			return err
		}
		log.Printf("loaded shift policies from %s", cfg.PolicyFile)
	}

	bk := backend.New(cfg.BackendURL)
	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	usesRedis := false

	var src attendance.Source = bk
	if cfg.DataSource == config.SourcePostgres {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres source: %w", err)
		}
		defer pool.Close()
		src = attendance.NewRepository(pool)
		log.Println("reading roster and attendance from postgres")
	}

	var cache attendance.ReportCache
	var tokens qrtoken.Store
	if cfg.CacheBackend == "memory" {
		cache = reportcache.NewMemory(cfg.ReportCacheTTL)
		tokens = qrtoken.NewMemory()
	} else {
		cache = reportcache.NewRedis(redisClient.Client, cfg.ReportCacheTTL)
		tokens = qrtoken.NewRedis(redisClient.Client, "")
		usesRedis = true
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
		usesRedis = true
	}

	svc := attendance.NewService(src, policies, cache)
	live := board.New(svc)
	issuer := qrtoken.NewIssuer(tokens, cfg.QRTTL)

	health := map[string]func(context.Context) bool{"backend": bk.Healthy}
	if usesRedis {
		health["redis"] = redisClient.Healthy
	}

	var face checkin.FaceVerifier = checkin.BackendFace{Client: bk}
	if cfg.FaceBackend == config.FaceService {
		fc := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)
		face = checkin.ServiceFace{Client: fc}
		if !cfg.FaceSkip {
			health["face"] = func(ctx context.Context) bool { return fc.Health(ctx) == nil }
		}
	}

	flow := &checkin.Flow{
		Presence: wifi.New(cfg.WifiBaseURL),
		HostID:   cfg.HostID,
		Fence: checkin.Geofence{
			Center: checkin.Point{Lat: cfg.OfficeLat, Lon: cfg.OfficeLon},
			Radius: cfg.GeofenceRadius,
		},
		Face:     face,
		QR:       issuer,
		Recorder: bk,
		Jobs:     q,
	}

	// Cloudinary client (nil when not configured)
	if cfg.CloudinaryEnabled() {
		flow.Snapshots = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured, check-in snapshots are not stored")
	}

	// An in-memory queue is only visible to this process, so consume it here.
	if cfg.QueueBackend == "memory" {
		w := &refresh.Worker{Jobs: q, Reports: svc, Board: live}
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("refresh worker: %v", err)
			}
		}()
	}
	go refresh.Poll(ctx, live, cfg.BoardPoll)

	router := api.NewRouter(api.Options{
		JWTSigningKey:   cfg.JWTSigningKey,
		JWTIssuer:       cfg.JWTIssuer,
		AccessTTL:       cfg.AccessTTL,
		RefreshTTL:      cfg.RefreshTTL,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		HostID:          cfg.HostID,
	}, api.Deps{
		Directory: bk,
		Reports:   svc,
		Board:     live,
		Sessions:  wifi.New(cfg.WifiBaseURL),
		QR:        issuer,
		CheckIns:  flow,
		Health:    health,
	})

	// Face check-in waits on the backend for up to two minutes.
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
