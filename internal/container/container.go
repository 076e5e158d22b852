package container

import (
	"errors"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"piaxe-console/internal/config"
	"piaxe-console/internal/service"
	"piaxe-console/internal/service/apiclient"
	"piaxe-console/internal/service/auth"
	"piaxe-console/internal/service/authapi"
	"piaxe-console/internal/service/imagekit"
	"piaxe-console/internal/service/shopping"
	"piaxe-console/internal/service/store"
	"piaxe-console/internal/service/support"
	"piaxe-console/internal/service/wallet"
	"piaxe-console/internal/session"
	"piaxe-console/pkg/logger"
	"piaxe-console/pkg/redis"
)

// Clients groups the domain API clients. They are bound to the session's
// token source.
type Clients struct {
	Stores   *store.Client
	Wallet   *wallet.Client
	Shopping *shopping.Client
	Support  *support.Client
	ImageKit *imagekit.Client
}

// Container holds all application dependencies. The shared session and the
// clients bound to it are built on first use, so a server that only runs
// request-scoped sessions never starts a refresh loop.
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	HTTPClient  *http.Client
	Storage     session.Storage

	requester   *apiclient.Requester
	storeClient *store.Client

	sessionOnce sync.Once
	authAPI     *authapi.Client
	session     *auth.Provider
	clients     *Clients

	// request-scoped sessions with a backend logout still in flight
	requests sync.WaitGroup
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	var storage session.Storage
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, keeping the session in memory")
		} else {
			redisClient = client
			storage = session.NewRedisStorage(client, cfg.SessionNamespace)
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, keeping the session in memory")
	}
	if storage == nil {
		storage = session.NewMemoryStorage()
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	requester := apiclient.New(apiclient.Options{
		BaseURL:      cfg.APIBaseURL,
		ProxyBaseURL: cfg.ProxyBaseURL(),
		Policy:       cfg.DevicePolicy(),
		HTTPClient:   httpClient,
		Logger:       log,
	})

	return &Container{
		Config:      cfg,
		Logger:      log,
		RedisClient: redisClient,
		HTTPClient:  httpClient,
		Storage:     storage,
		requester:   requester,
		storeClient: store.NewClient(requester),
	}, nil
}

// Session returns the process-wide session persisted in Storage. Nothing
// mirrors it into cookies.
func (c *Container) Session() *auth.Provider {
	c.initSession()
	return c.session
}

// Clients returns the domain clients bound to the process-wide session
func (c *Container) Clients() *Clients {
	c.initSession()
	return c.clients
}

func (c *Container) initSession() {
	c.sessionOnce.Do(func() {
		c.authAPI = authapi.NewClient(c.Config.APIBaseURL, c.HTTPClient, c.storeClient, c.Logger)
		c.session = auth.NewProvider(auth.Options{
			API:             c.authAPI,
			Persistence:     session.NewPersistence(c.Storage, nil, c.CookieOptions(), c.Logger),
			Stores:          c.storeLister,
			Logger:          c.Logger,
			RefreshInterval: c.Config.RefreshInterval,
		})

		ts := c.session.TokenSource()
		c.clients = &Clients{
			Stores:   c.storeClient.WithTokenSource(ts),
			Wallet:   wallet.NewClient(c.requester).WithTokenSource(ts),
			Shopping: shopping.NewClient(c.requester).WithTokenSource(ts),
			Support:  support.NewClient(c.requester).WithTokenSource(ts),
			ImageKit: imagekit.NewClient(c.requester).WithTokenSource(ts),
		}
	})
}

// RequestSession builds a session for one HTTP request. It starts from the
// request's session cookies and writes every change back as Set-Cookie
// headers on w, so the cookies stay in step with what the session persists.
// The returned release func must be called once the handler is done.
func (c *Container) RequestSession(w http.ResponseWriter, r *http.Request) (*auth.Provider, func()) {
	cookies := session.FromRequest(r)

	// the device id is per client, so requests never share one
	api := authapi.NewClient(c.Config.APIBaseURL, c.HTTPClient, c.storeClient, c.Logger)
	if id := cookies.EffectiveDeviceID(); id != "" {
		api.SetDeviceID(id)
	}
	provider := auth.NewProvider(auth.Options{
		API:                 api,
		Persistence:         session.NewPersistence(cookies.Storage(), session.ResponseCookies{W: w}, c.CookieOptions(), c.Logger),
		Stores:              c.storeLister,
		Logger:              c.Logger,
		NoBackgroundRefresh: true,
	})

	c.requests.Add(1)
	release := func() {
		_ = provider.Close()
		go func() {
			defer c.requests.Done()
			api.Wait()
		}()
	}
	return provider, release
}

// CookieOptions are the attributes of the session cookies
func (c *Container) CookieOptions() session.CookieOptions {
	return session.CookieOptions{Secure: c.Config.IsProduction()}
}

func (c *Container) storeLister(ts oauth2.TokenSource) service.StoreLister {
	return c.storeClient.WithTokenSource(ts)
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// Close stops the session refresh loop, waits for pending backend logouts
// and releases the Redis connection.
func (c *Container) Close() error {
	var errs []error
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			errs = append(errs, err)
		}
		c.authAPI.Wait()
	}
	c.requests.Wait()
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
