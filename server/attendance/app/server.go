package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"attendance_server/server/attendance/api"
	"attendance_server/server/attendance/repository"
	"attendance_server/server/attendance/service"
	"attendance_server/server/common/auth"
	"attendance_server/server/common/infra/cache"
	"attendance_server/server/common/infra/db"
	"attendance_server/server/common/infra/facerec"
	"attendance_server/server/common/infra/mq"
	"attendance_server/server/common/infra/object"
	"attendance_server/server/common/log"
	"attendance_server/server/common/middleware"
	"attendance_server/server/common/transport/httpresp"
)

const (
	lruCacheSize       = 1024
	maxMultipartMemory = 32 << 20
)

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Publisher  *mq.Publisher
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.PostgresDSN); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	pool, err := db.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}
	s := &Server{DB: pool}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	recordCache, err := s.newCache(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	var events service.Publisher = mq.Nop{}
	if cfg.AMQPURL != "" {
		conn, err := mq.NewConnection(cfg.AMQPURL)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("initialize amqp: %w", err)
		}
		s.Publisher, err = mq.NewPublisher(conn, mq.DefaultExchange)
		if err != nil {
			_ = conn.Close()
			s.close()
			return nil, fmt.Errorf("initialize amqp publisher: %w", err)
		}
		events = s.Publisher
	}

	face := facerec.NewClient(facerec.Config{
		Endpoints:    cfg.FaceEndpoints,
		Enabled:      cfg.FaceEnabled,
		Timeout:      cfg.FaceTimeout,
		MaxDimension: cfg.FaceMaxDimension,
	})
	var verifier service.FaceVerifier
	if cfg.FaceVerify {
		verifier = face
	}

	teacherRepo := repository.NewTeacherRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	lectureRepo := repository.NewLectureRepository(pool)

	deps := service.Deps{
		Store:    store,
		Uploader: service.NewUploader(store, cfg.UploadConcurrency),
		Cache:    recordCache,
		Events:   events,
	}
	policy := func(required bool) service.UploadPolicy {
		p := service.DefaultUploadPolicy(required)
		p.MaxFileSize = cfg.UploadMaxFileBytes
		p.MaxFiles = cfg.UploadMaxFiles
		return p
	}

	h := api.NewHandler(
		service.NewTeacherService(teacherRepo),
		service.NewSubjectService(subjectRepo, teacherRepo),
		service.NewStudentService(studentRepo, face, policy(true), deps),
		service.NewLectureService(lectureRepo, subjectRepo, studentRepo, verifier, policy(false), deps),
	)
	h.ExposeErrors = !cfg.IsProduction()
	h.Uploads = policy(false)

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(
		gin.Logger(),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			log.Exceptionf("panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
			c.AbortWithStatusJSON(http.StatusInternalServerError, httpresp.NewErrorResponse(httpresp.ErrSomethingWentWrong))
		}),
		middleware.CORS(cfg.CORSOrigin),
		middleware.Metrics(),
		middleware.Timeout(cfg.RequestTimeout),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpresp.NewSuccessResponse(gin.H{"status": "ok"}, "ok"))
	})
	r.GET("/health/ready", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpresp.NewErrorResponse("database unavailable"))
			return
		}
		c.JSON(http.StatusOK, httpresp.NewSuccessResponse(gin.H{"status": "ready"}, "ok"))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var guards api.Guards
	if cfg.AuthEnabled {
		tokenAuth := auth.NewService(cfg.JWTSecret, cfg.JWTTTL)
		guards.Auth = middleware.AuthRequired(tokenAuth)
		guards.Admin = middleware.RequireRoles(auth.RoleAdmin)
	}
	h.RegisterRoutes(r, guards)

	s.HTTPServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func newObjectStore(ctx context.Context, cfg Config) (object.Store, error) {
	switch cfg.StorageDriver {
	case StorageS3:
		store, err := object.NewS3Store(ctx, object.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize s3: %w", err)
		}
		return store, nil
	case StorageMinIO, "":
		client, err := object.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("initialize minio: %w", err)
		}
		if err := object.EnsureBucket(ctx, client, cfg.MinioBucket); err != nil {
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		return object.NewMinIOStore(client, cfg.MinioBucket, cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func (s *Server) newCache(ctx context.Context, cfg Config) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		log.Infof("REDIS_ADDR not set, using in-process record cache")
		return cache.NewLRUStore(lruCacheSize, cfg.CacheTTL), nil
	}
	s.Redis = cache.NewClient(cfg.RedisAddr)
	if err := cache.Ping(ctx, s.Redis); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return cache.NewRedisStore(s.Redis, "attendance:", cfg.CacheTTL), nil
}

func (s *Server) close() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTPServer.Shutdown(ctx)
	s.close()
	return err
}
